package filter

import (
	"encoding/json"
	"testing"
)

func TestGroup_Serialize(t *testing.T) {
	g := NewGroup("or",
		mustLeaf(t, "patient_id", Eq, String("abc-123")),
		mustLeaf(t, "visit_type", In, Array("routine", "insurance")),
	)

	got, err := g.Serialize(0)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "[\n" +
		"\t{\n" +
		"\t\t\"field\": \"patient_id\",\n" +
		"\t\t\"type\": \"eq\",\n" +
		"\t\t\"value\": \"abc-123\"\n" +
		"\t},\n" +
		"\t{\n" +
		"\t\t\"field\": \"visit_type\",\n" +
		"\t\t\"type\": \"in\",\n" +
		"\t\t\"value\": [\"routine\",\"insurance\"]\n" +
		"\t}\n" +
		"]"
	if got != want {
		t.Errorf("Serialize(0) =\n%s\nwant\n%s", got, want)
	}

	var arr []map[string]any
	if err := json.Unmarshal([]byte(got), &arr); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(arr) != 2 || arr[0]["field"] != "patient_id" || arr[1]["field"] != "visit_type" {
		t.Errorf("unexpected array: %v", arr)
	}
}

func TestGroup_Empty(t *testing.T) {
	g := NewGroup("and")
	got, err := g.Serialize(2)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got != "[]" {
		t.Errorf("Serialize = %q", got)
	}
	if g.DebugString() != "(and)" {
		t.Errorf("DebugString = %q", g.DebugString())
	}
}

func TestGroup_DebugString(t *testing.T) {
	inner := NewGroup("or", mustLeaf(t, "b", Lt, Int(2)), mustLeaf(t, "c", Eq, Bool(true)))
	g := NewGroup("and", mustLeaf(t, "a", Gt, Int(1)), inner)
	want := "(and {a gt 1} (or {b lt 2} {c eq true}))"
	if got := g.DebugString(); got != want {
		t.Errorf("DebugString = %q, want %q", got, want)
	}
}

func TestGroup_PropagatesSerializeError(t *testing.T) {
	bad := Leaf{field: "x", op: Eq, value: Value{}}
	if _, err := NewGroup("and", bad).Serialize(0); err == nil {
		t.Fatal("expected error from child")
	}
}

func TestGroup_ChildrenCopied(t *testing.T) {
	children := []Node{mustLeaf(t, "a", Eq, Int(1))}
	g := NewGroup("and", children...)
	children[0] = mustLeaf(t, "z", Eq, Int(9))
	if g.Children()[0].DebugString() != "{a eq 1}" {
		t.Error("group aliased caller slice")
	}
}

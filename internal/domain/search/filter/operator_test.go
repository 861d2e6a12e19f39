package filter

import (
	"errors"
	"testing"
)

func TestOperator_RoundTrip(t *testing.T) {
	for _, op := range Operators() {
		got, err := ParseOperator(op.Token())
		if err != nil {
			t.Fatalf("ParseOperator(%q): %v", op.Token(), err)
		}
		if got != op {
			t.Errorf("ParseOperator(%q) = %v, want %v", op.Token(), got, op)
		}
	}
}

func TestOperator_Tokens(t *testing.T) {
	want := []string{"eq", "ne", "gt", "gte", "lt", "lte", "in", "nin", "wildcard"}
	ops := Operators()
	if len(ops) != len(want) {
		t.Fatalf("Operators() len = %d, want %d", len(ops), len(want))
	}
	seen := map[string]bool{}
	for i, op := range ops {
		if op.Token() != want[i] {
			t.Errorf("Operators()[%d].Token() = %q, want %q", i, op.Token(), want[i])
		}
		if seen[op.Token()] {
			t.Errorf("duplicate token %q", op.Token())
		}
		seen[op.Token()] = true
	}
}

func TestParseOperator_Unknown(t *testing.T) {
	for _, tok := range []string{"", "EQ", "Eq", "like", "is", " eq", "contains"} {
		_, err := ParseOperator(tok)
		if err == nil {
			t.Errorf("ParseOperator(%q): expected error", tok)
			continue
		}
		if !errors.Is(err, ErrUnknownOperator) {
			t.Errorf("ParseOperator(%q) error = %v, want ErrUnknownOperator", tok, err)
		}
		var uoe *UnknownOperatorError
		if !errors.As(err, &uoe) || uoe.Token != tok {
			t.Errorf("ParseOperator(%q) error = %#v, want UnknownOperatorError with token", tok, err)
		}
	}
}

func TestOperator_Zero(t *testing.T) {
	var op Operator
	if op.IsValid() {
		t.Error("zero Operator is valid")
	}
	if op.Token() != "" {
		t.Errorf("zero Token() = %q", op.Token())
	}
	if _, err := op.MarshalText(); err == nil {
		t.Error("expected MarshalText error for zero operator")
	}
}

func TestOperator_TextCodec(t *testing.T) {
	b, err := Gte.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "gte" {
		t.Errorf("MarshalText = %q", b)
	}

	var op Operator
	if err := op.UnmarshalText([]byte("nin")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if op != Nin {
		t.Errorf("op = %v, want nin", op)
	}
	if err := op.UnmarshalText([]byte("NIN")); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("UnmarshalText(NIN) error = %v", err)
	}
}

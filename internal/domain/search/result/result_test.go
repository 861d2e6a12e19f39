package result

import (
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
)

func TestPage_FullContent(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	items := []Item{
		NewItem("d1", "s1", "", map[string]any{"a": 1}, true, now, now),
		NewItem("d2", "s1", "", nil, false, now, now),
	}
	p := NewPage(mode.FullContent, 5, 2, 0, items, nil)

	if p.Count() != 2 {
		t.Errorf("Count() = %d, want 2", p.Count())
	}
	if p.TotalCount() != 5 {
		t.Errorf("TotalCount() = %d, want 5", p.TotalCount())
	}
	if !reflect.DeepEqual(p.IDs(), []string{"d1", "d2"}) {
		t.Errorf("IDs() = %v", p.IDs())
	}
	if !p.HasMore() {
		t.Error("HasMore() = false, want true")
	}
}

func TestPage_OnlyID(t *testing.T) {
	p := NewPage(mode.OnlyID, 2, 10, 0, nil, []string{"a", "b"})
	if p.Count() != 2 {
		t.Errorf("Count() = %d", p.Count())
	}
	if p.HasMore() {
		t.Error("HasMore() = true on last page")
	}
	if len(p.Items()) != 0 {
		t.Errorf("Items() = %v", p.Items())
	}
}

func TestPage_Existence(t *testing.T) {
	p := NewExistence(mode.UsernameExists, true)
	if !p.Exists() {
		t.Error("Exists() = false")
	}
	if p.ResultType() != mode.UsernameExists {
		t.Errorf("ResultType() = %q", p.ResultType())
	}
	if p.HasMore() {
		t.Error("existence page reports more results")
	}
}

func TestItem_ContentCopied(t *testing.T) {
	content := map[string]any{"k": "v"}
	it := NewItem("u1", "us1", "alice", content, true, time.Time{}, time.Time{})
	content["k"] = "changed"
	if it.Content()["k"] != "v" {
		t.Error("item aliased caller map")
	}
	got := it.Content()
	got["k"] = "changed"
	if it.Content()["k"] != "v" {
		t.Error("Content() exposed internal map")
	}
	if it.Username() != "alice" {
		t.Errorf("Username() = %q", it.Username())
	}
}

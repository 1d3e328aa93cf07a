package session

import (
	"path/filepath"
	"testing"
)

func TestRecentStore(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecentStore(dir)
	if err != nil {
		t.Fatalf("NewRecentStore: %v", err)
	}

	if _, ok, err := r.Last(); ok || err != nil {
		t.Fatalf("Last() on empty store = %v, %v", ok, err)
	}

	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	for _, step := range []struct{ path, title string }{{a, "A"}, {b, "B"}, {a, "A2"}} {
		if err := r.Touch(step.path, step.title); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}

	recs, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(recs))
	}
	if recs[0].Path != a || recs[0].Title != "A2" || recs[1].Path != b {
		t.Errorf("List() = %+v, want a then b", recs)
	}

	if err := r.Forget(a); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	last, ok, _ := r.Last()
	if !ok || last.Path != b {
		t.Errorf("Last() = %+v, %v, want b", last, ok)
	}
}

func TestRecentStoreBounded(t *testing.T) {
	dir := t.TempDir()
	r, _ := NewRecentStore(dir)
	for i := 0; i < MaxRecent+5; i++ {
		_ = r.Touch(filepath.Join(dir, string(rune('a'+i))+".json"), "")
	}
	recs, _ := r.List()
	if len(recs) != MaxRecent {
		t.Errorf("len(List()) = %d, want %d", len(recs), MaxRecent)
	}
}

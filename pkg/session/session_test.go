package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/ident"
	"github.com/matzehuels/drilldown/pkg/io"
	"github.com/matzehuels/drilldown/pkg/storage"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return New(Options{Title: "Payments", IDs: &ident.Sequence{Prefix: "id"}})
}

func TestNew(t *testing.T) {
	s := New(Options{
		Groups: map[string]groups.Props{
			"db":      {Title: "Databases", Color: "#22c55e", Radius: 30},
			"default": {Title: "Other"},
		},
	})
	if s.Title() != io.DefaultTitle {
		t.Errorf("Title() = %q, want %q", s.Title(), io.DefaultTitle)
	}
	if s.Stack.Root() == nil || s.Stack.Depth() != 1 {
		t.Fatalf("stack not initialised")
	}
	if g, ok := s.Groups.Get("db"); !ok || g.Radius != 30 {
		t.Errorf("seeded group db = %+v, %v", g, ok)
	}
	if got := s.Groups.Resolve(groups.DefaultKey).Title; got != "Other" {
		t.Errorf("default group title = %q, want Other", got)
	}
	if s.Dirty() {
		t.Error("new session is dirty")
	}
}

func TestEditsMarkDirty(t *testing.T) {
	s := newSession(t)
	s.Builder.Enable()
	e, ok := s.Builder.CreateEntityAt(graph.Position{X: 1, Y: 2})
	if !ok {
		t.Fatal("CreateEntityAt failed")
	}
	if !s.Dirty() {
		t.Error("Dirty() = false after edit")
	}
	if e.ID != "id2" {
		t.Errorf("entity id = %q, want id2", e.ID)
	}
}

func TestSaveAndOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.yaml")

	s := newSession(t)
	s.Model.AddEntity(graph.EntityProps{ID: "a", Label: "A"})
	s.Model.AddEntity(graph.EntityProps{ID: "b", Label: "B"})
	s.Model.AddFlow("a", "b", graph.KindAdmin)
	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if s.Dirty() {
		t.Error("Dirty() = true after save")
	}

	other := New(Options{})
	if _, err := other.OpenFile(ctx, path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if other.Title() != "Payments" {
		t.Errorf("Title() = %q, want Payments", other.Title())
	}
	if got := len(other.Model.Current().Nodes); got != 2 {
		t.Errorf("entities = %d, want 2", got)
	}
	if other.Path() != path {
		t.Errorf("Path() = %q, want %q", other.Path(), path)
	}
	if other.Dirty() {
		t.Error("Dirty() = true after open")
	}
}

func TestSaveFileWithoutPath(t *testing.T) {
	s := newSession(t)
	if err := s.SaveFile(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("SaveFile(\"\") error = %v, want INVALID_PATH", err)
	}
}

func TestSaveAndLoadStore(t *testing.T) {
	ctx := context.Background()
	st := storage.New(storage.NewMemory(), storage.DefaultPrefix)

	s := newSession(t)
	s.Model.AddEntity(graph.EntityProps{ID: "a", Label: "A"})
	if err := s.Save(ctx, st, "payments"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := New(Options{})
	if _, err := other.Load(ctx, st, "payments"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := other.Model.Entity("a"); !ok {
		t.Error("entity a missing after Load")
	}

	if _, err := other.Load(ctx, st, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestImportRejectedKeepsDocument(t *testing.T) {
	s := newSession(t)
	s.Model.AddEntity(graph.EntityProps{ID: "a"})
	if _, err := s.Import([]byte(`{"hello":1}`), io.FormatJSON); err == nil {
		t.Fatal("Import accepted an unknown payload")
	}
	if _, ok := s.Model.Entity("a"); !ok {
		t.Error("document changed by rejected import")
	}
}

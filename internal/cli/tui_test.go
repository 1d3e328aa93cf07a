package cli

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/builder"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/ident"
	"github.com/matzehuels/drilldown/pkg/layout"
	"github.com/matzehuels/drilldown/pkg/session"
)

func newTestEditor(t *testing.T) *editor {
	t.Helper()
	s := session.New(session.Options{
		Title:  "Payments",
		IDs:    &ident.Sequence{Prefix: "id"},
		Logger: log.New(io.Discard),
	})
	for _, p := range []struct {
		label string
		x, y  float64
	}{{"API", 100, 100}, {"Postgres", 400, 100}} {
		if _, ok := s.Model.AddEntity(graph.EntityProps{Label: p.label, Position: &graph.Position{X: p.x, Y: p.y}}); !ok {
			t.Fatalf("seed %s", p.label)
		}
	}
	return newEditor(s, filepath.Join(t.TempDir(), "payments.json"), layout.DefaultOptions(), &statusLog{})
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(m *editor, msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestEditorNewEntity(t *testing.T) {
	m := newTestEditor(t)
	press(m, runes("n"))

	nodes := m.s.Model.Current().Nodes
	if len(nodes) != 3 || nodes[2].Label != "New Node" {
		t.Fatalf("nodes after n = %d, want a third \"New Node\"", len(nodes))
	}
	if m.mode != modeForm || m.cursor != 2 {
		t.Errorf("mode = %v, cursor = %d, want the entity form on the new entity", m.mode, m.cursor)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse || m.form != nil {
		t.Errorf("esc did not close the form")
	}
}

func TestEditorLinkGesture(t *testing.T) {
	m := newTestEditor(t)

	press(m, runes("c"))
	if m.mode != modeLink || m.hover != 1 {
		t.Fatalf("mode = %v, hover = %d, want link mode hovering Postgres", m.mode, m.hover)
	}
	if !strings.Contains(m.View(), "connect API → Postgres") {
		t.Errorf("link status missing from view")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	links := m.s.Model.Current().Links
	if len(links) != 1 || links[0].Source != "id1" || links[0].Target != "id2" {
		t.Fatalf("links = %v, want one flow id1 -> id2", links)
	}
	if m.mode != modeForm {
		t.Errorf("mode = %v, want the flow form after a drop", m.mode)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})

	// Dropping back on the source is a self-loop and creates nothing.
	press(m, runes("c"), tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyEnter})
	if n := len(m.s.Model.Current().Links); n != 1 {
		t.Errorf("links after self drop = %d, want 1", n)
	}
	if m.mode != modeBrowse || m.status != "no flow created" {
		t.Errorf("mode = %v, status = %q", m.mode, m.status)
	}

	press(m, runes("c"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse || m.s.Builder.State() == builder.Dragging {
		t.Errorf("esc did not cancel the gesture")
	}
}

func TestEditorDeleteConfirm(t *testing.T) {
	m := newTestEditor(t)

	press(m, runes("d"))
	if m.mode != modeForm {
		t.Fatalf("mode = %v, want the confirm form", m.mode)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if n := len(m.s.Model.Current().Nodes); n != 2 {
		t.Fatalf("entities after cancel = %d, want 2", n)
	}

	press(m, runes("d"))
	m.confirmed = true
	m.submitForm()
	nodes := m.s.Model.Current().Nodes
	if len(nodes) != 1 || nodes[0].Label != "Postgres" {
		t.Errorf("entities after confirm = %v, want only Postgres", nodes)
	}
}

func TestEditorDrillAndBack(t *testing.T) {
	m := newTestEditor(t)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if d := m.s.Stack.Depth(); d != 2 {
		t.Fatalf("depth after drill = %d, want 2", d)
	}
	if got := m.s.Model.Current().Label; got != "API Subgraph" {
		t.Errorf("current graph = %q, want API Subgraph", got)
	}

	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if d := m.s.Stack.Depth(); d != 1 {
		t.Errorf("depth after back = %d, want 1", d)
	}

	press(m, runes("b"), runes("j"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.s.Builder.Enabled() {
		t.Fatal("b did not turn builder mode off")
	}
	if m.status != "Postgres has no nested graph" {
		t.Errorf("status = %q", m.status)
	}
	press(m, runes("n"))
	if n := len(m.s.Model.Current().Nodes); n != 2 {
		t.Errorf("n with builder off added an entity")
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{"Payments", "builder", "Entities (2)", "API", "Postgres"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestStatusLog(t *testing.T) {
	var l statusLog
	l.Write([]byte("first\nsecond\n"))
	if got := l.Last(); got != "second" {
		t.Errorf("Last() = %q, want second", got)
	}
}

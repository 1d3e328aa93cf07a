package graph

import (
	"testing"

	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/ident"
)

type fixedScope struct{ g *Graph }

func (s fixedScope) Root() *Graph    { return s.g }
func (s fixedScope) Current() *Graph { return s.g }

func newTestModel(t *testing.T) (*Model, *Graph) {
	t.Helper()
	m := NewModel(groups.New(nil), WithIDGenerator(&ident.Sequence{Prefix: "id"}))
	g := New("root", "Root")
	m.Bind(fixedScope{g})
	return m, g
}

func addEntities(t *testing.T, m *Model, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, ok := m.AddEntity(EntityProps{ID: id, Label: id}); !ok {
			t.Fatalf("AddEntity(%q) = false", id)
		}
	}
}

func TestAddEntity(t *testing.T) {
	m, g := newTestModel(t)

	e, ok := m.AddEntity(EntityProps{Label: "API", Group: "missing"})
	if !ok {
		t.Fatal("AddEntity() = false, want true")
	}
	if e.ID != "id1" {
		t.Errorf("ID = %q, want generated id1", e.ID)
	}
	if e.Group != groups.DefaultKey {
		t.Errorf("Group = %q, want %q", e.Group, groups.DefaultKey)
	}
	if e.Radius != m.Groups().Resolve(groups.DefaultKey).Radius {
		t.Errorf("Radius = %v, want default group radius", e.Radius)
	}
	if len(g.Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1", len(g.Nodes))
	}
}

func TestAddEntityKnownGroup(t *testing.T) {
	m, _ := newTestModel(t)
	m.Groups().Define("vip", groups.Props{Radius: 40})

	e, _ := m.AddEntity(EntityProps{Label: "CEO", Group: "vip"})
	if e.Group != "vip" || e.Radius != 40 {
		t.Errorf("Group, Radius = %q, %v, want vip, 40", e.Group, e.Radius)
	}
}

func TestAddEntityDuplicateIsNoop(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "a")

	if _, ok := m.AddEntity(EntityProps{ID: "a", Label: "other"}); ok {
		t.Error("AddEntity(duplicate) = true, want false")
	}
	if len(g.Nodes) != 1 || g.Nodes[0].Label != "a" {
		t.Errorf("Nodes changed: %+v", g.Nodes)
	}
}

func TestAddEntityCopiesPosition(t *testing.T) {
	m, _ := newTestModel(t)
	pos := &Position{X: 1, Y: 2}
	e, _ := m.AddEntity(EntityProps{Position: pos})
	pos.X = 99
	if e.Position.X != 1 {
		t.Errorf("Position.X = %v, want 1", e.Position.X)
	}
}

func TestUpdateEntity(t *testing.T) {
	m, g := newTestModel(t)
	m.Groups().Define("vip", groups.Props{Radius: 40})
	addEntities(t, m, "a")

	label := "Renamed"
	group := "vip"
	if !m.UpdateEntity("a", EntityPatch{Label: &label, Group: &group}) {
		t.Fatal("UpdateEntity() = false, want true")
	}
	e := g.Nodes[0]
	if e.Label != "Renamed" {
		t.Errorf("Label = %q, want Renamed", e.Label)
	}
	if e.Group != "vip" || e.Radius != 40 {
		t.Errorf("Group, Radius = %q, %v, want vip, 40", e.Group, e.Radius)
	}

	unknown := "nope"
	m.UpdateEntity("a", EntityPatch{Group: &unknown})
	if e.Group != groups.DefaultKey {
		t.Errorf("Group = %q, want fallback %q", e.Group, groups.DefaultKey)
	}
}

func TestUpdateEntityMissingIsNoop(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "a")
	label := "x"
	if m.UpdateEntity("missing", EntityPatch{Label: &label}) {
		t.Error("UpdateEntity(missing) = true, want false")
	}
	if g.Nodes[0].Label != "a" {
		t.Errorf("Label = %q, want a", g.Nodes[0].Label)
	}
}

func TestRemoveEntityCascades(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "a", "b", "c")
	m.AddFlow("a", "b", KindFlow)
	m.AddFlow("b", "a", KindAdmin)
	m.AddFlow("b", "c", KindInternal)

	if !m.RemoveEntity("a") {
		t.Fatal("RemoveEntity() = false, want true")
	}
	for _, f := range g.Links {
		if f.Source == "a" || f.Target == "a" {
			t.Errorf("flow %s still references a", f.ID)
		}
	}
	if len(g.Links) != 1 {
		t.Errorf("len(Links) = %d, want 1", len(g.Links))
	}
	if len(g.Nodes) != 2 {
		t.Errorf("len(Nodes) = %d, want 2", len(g.Nodes))
	}
	if m.RemoveEntity("a") {
		t.Error("second RemoveEntity() = true, want false")
	}
}

func TestAddFlowScenario(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "A", "B")

	f, ok := m.AddFlow("A", "B", "flow")
	if !ok {
		t.Fatal("AddFlow() = false, want true")
	}
	if len(g.Links) != 1 || f.Source != "A" || f.Target != "B" {
		t.Fatalf("Links = %+v", g.Links)
	}
	if f.Direction != Forward || f.Label != DefaultFlowLabel || f.ID == "" {
		t.Errorf("flow defaults = %+v", f)
	}

	m.RemoveEntity("A")
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "B" {
		t.Errorf("Nodes = %+v, want [B]", g.Nodes)
	}
	if len(g.Links) != 0 {
		t.Errorf("Links = %+v, want empty", g.Links)
	}
}

func TestAddFlowRejected(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		kind   FlowKind
	}{
		{"self-loop", "a", "a", KindFlow},
		{"missing source", "zz", "a", KindFlow},
		{"missing target", "a", "zz", KindFlow},
		{"unknown kind", "a", "b", "sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, g := newTestModel(t)
			addEntities(t, m, "a", "b")
			if f, ok := m.AddFlow(tt.source, tt.target, tt.kind); ok || f != nil {
				t.Errorf("AddFlow() = %v, %v, want nil, false", f, ok)
			}
			if len(g.Links) != 0 {
				t.Errorf("len(Links) = %d, want 0", len(g.Links))
			}
		})
	}
}

func TestAddFlowEmptyKindDefaults(t *testing.T) {
	m, _ := newTestModel(t)
	addEntities(t, m, "a", "b")
	f, ok := m.AddFlow("a", "b", "")
	if !ok || f.Kind != KindFlow {
		t.Errorf("AddFlow(kind \"\") = %+v, %v", f, ok)
	}
}

func TestParallelFlowsAllowed(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "a", "b")
	m.AddFlow("a", "b", KindFlow)
	m.AddFlow("a", "b", KindFlow)
	if len(g.Links) != 2 {
		t.Errorf("len(Links) = %d, want 2", len(g.Links))
	}
}

func TestUpdateFlow(t *testing.T) {
	m, _ := newTestModel(t)
	addEntities(t, m, "a", "b")
	f, _ := m.AddFlow("a", "b", KindFlow)

	kind := KindAdmin
	label := "sync"
	dir := Bidirectional
	if !m.UpdateFlow(f.ID, FlowPatch{Kind: &kind, Label: &label, Direction: &dir}) {
		t.Fatal("UpdateFlow() = false, want true")
	}
	if f.Kind != KindAdmin || f.Label != "sync" || f.Direction != Bidirectional {
		t.Errorf("flow = %+v", f)
	}

	bad := Direction("up")
	if m.UpdateFlow(f.ID, FlowPatch{Label: &label, Direction: &bad}) {
		t.Error("UpdateFlow(bad direction) = true, want false")
	}
	if f.Direction != Bidirectional {
		t.Errorf("Direction = %q, want unchanged", f.Direction)
	}
	if m.UpdateFlow("missing", FlowPatch{Label: &label}) {
		t.Error("UpdateFlow(missing) = true, want false")
	}
}

func TestRemoveFlow(t *testing.T) {
	m, g := newTestModel(t)
	addEntities(t, m, "a", "b")
	f, _ := m.AddFlow("a", "b", KindFlow)

	if m.RemoveFlow("missing") {
		t.Error("RemoveFlow(missing) = true, want false")
	}
	if !m.RemoveFlow(f.ID) {
		t.Error("RemoveFlow() = false, want true")
	}
	if len(g.Links) != 0 {
		t.Errorf("len(Links) = %d, want 0", len(g.Links))
	}
}

func TestUnboundModelIsNoop(t *testing.T) {
	m := NewModel(groups.New(nil))
	if _, ok := m.AddEntity(EntityProps{Label: "x"}); ok {
		t.Error("AddEntity on unbound model = true, want false")
	}
	if m.RemoveEntity("x") || m.RemoveFlow("x") {
		t.Error("remove on unbound model = true, want false")
	}
}

func TestRenderListener(t *testing.T) {
	m, g := newTestModel(t)
	var rendered []*Graph
	m.OnRender(func(cur *Graph) { rendered = append(rendered, cur) })

	addEntities(t, m, "a")
	m.RemoveEntity("missing")
	m.AddFlow("a", "a", KindFlow)

	if len(rendered) != 1 {
		t.Fatalf("render calls = %d, want 1", len(rendered))
	}
	if rendered[0] != g {
		t.Error("render received wrong graph")
	}
}

func TestGroupRemovalFallsBack(t *testing.T) {
	m, g := newTestModel(t)
	m.Groups().Define("vip", groups.Props{Radius: 40})
	m.AddEntity(EntityProps{ID: "a", Group: "vip"})

	m.Groups().Remove("vip")

	e := g.Nodes[0]
	resolved := m.Groups().Resolve(e.Group)
	if resolved.Key != groups.DefaultKey {
		t.Errorf("Resolve(%q).Key = %q, want default", e.Group, resolved.Key)
	}
	if e.Radius != resolved.Radius {
		t.Errorf("Radius = %v, want refreshed %v", e.Radius, resolved.Radius)
	}
}

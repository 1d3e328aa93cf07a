package graph

import "github.com/matzehuels/drilldown/pkg/groups"

// Hydrate prepares a loaded or freshly created graph tree for editing. It
// walks g and every nested graph depth-first and
//   - assigns ids to graphs, entities and flows that lack one,
//   - puts entities without a group in the default group,
//   - derives each entity's radius from its group,
//   - defaults missing flow kinds to KindFlow and directions to Forward.
//
// A graph reachable twice is visited once, so cyclic input terminates.
func (m *Model) Hydrate(g *Graph) {
	g.Walk(func(cur *Graph, _ int) bool {
		m.hydrateLevel(cur)
		return true
	})
}

func (m *Model) hydrateLevel(g *Graph) {
	if g.ID == "" {
		g.ID = m.ids.NewID()
	}
	if g.Nodes == nil {
		g.Nodes = []*Entity{}
	}
	if g.Links == nil {
		g.Links = []*Flow{}
	}
	for _, e := range g.Nodes {
		if e.ID == "" {
			e.ID = m.ids.NewID()
		}
		if e.Group == "" {
			e.Group = groups.DefaultKey
		}
		e.Radius = m.groups.Resolve(e.Group).Radius
	}
	for _, f := range g.Links {
		if f.ID == "" {
			f.ID = m.ids.NewID()
		}
		if f.Kind == "" {
			f.Kind = KindFlow
		}
		if f.Direction == "" {
			f.Direction = Forward
		}
	}
}

// RefreshStyles re-derives entity radii across the whole tree and
// re-renders. The model runs it whenever its group registry changes.
func (m *Model) RefreshStyles() {
	if m.scope == nil {
		return
	}
	root := m.scope.Root()
	if root == nil {
		return
	}
	root.Walk(func(cur *Graph, _ int) bool {
		for _, e := range cur.Nodes {
			e.Radius = m.groups.Resolve(e.Group).Radius
		}
		return true
	})
	m.Render()
}

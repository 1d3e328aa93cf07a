package graph

import (
	"slices"
)

// =============================================================================
// Constants
// =============================================================================

// FlowKind classifies a flow.
type FlowKind string

// Flow kinds.
const (
	KindFlow     FlowKind = "flow"
	KindInternal FlowKind = "internal"
	KindAdmin    FlowKind = "admin"
)

// Valid reports whether k is a known flow kind.
func (k FlowKind) Valid() bool {
	switch k {
	case KindFlow, KindInternal, KindAdmin:
		return true
	}
	return false
}

// Direction tells which way a flow travels between its endpoints.
type Direction string

// Flow directions.
const (
	Forward       Direction = "forward"
	Backward      Direction = "backward"
	Bidirectional Direction = "bidirectional"
)

// DefaultFlowLabel is the placeholder label of a newly linked flow.
const DefaultFlowLabel = "Link"

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case Forward, Backward, Bidirectional:
		return true
	}
	return false
}

// FlowKinds lists the flow kinds in display order.
var FlowKinds = []FlowKind{KindFlow, KindInternal, KindAdmin}

// Directions lists the directions in display order.
var Directions = []Direction{Forward, Backward, Bidirectional}

// =============================================================================
// Graph
// =============================================================================

// Graph is one level of the diagram. Any entity may own a nested Graph,
// which forms a tree of graphs rooted at the document's top-level graph.
//
// Invariant: every flow's Source and Target name an entity in Nodes of the
// same Graph. Ids are unique within one Graph only.
type Graph struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Nodes []*Entity `json:"nodes"`
	Links []*Flow   `json:"links"`
}

// New returns an empty graph.
func New(id, label string) *Graph {
	return &Graph{ID: id, Label: label, Nodes: []*Entity{}, Links: []*Flow{}}
}

// Entity returns the entity with the given id.
func (g *Graph) Entity(id string) (*Entity, bool) {
	if i := g.entityIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return nil, false
}

// Flow returns the flow with the given id.
func (g *Graph) Flow(id string) (*Flow, bool) {
	if i := g.flowIndex(id); i >= 0 {
		return g.Links[i], true
	}
	return nil, false
}

// FlowsOf returns every flow that starts or ends at the entity id.
func (g *Graph) FlowsOf(id string) []*Flow {
	var out []*Flow
	for _, f := range g.Links {
		if f.Source == id || f.Target == id {
			out = append(out, f)
		}
	}
	return out
}

func (g *Graph) entityIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(e *Entity) bool { return e.ID == id })
}

func (g *Graph) flowIndex(id string) int {
	return slices.IndexFunc(g.Links, func(f *Flow) bool { return f.ID == id })
}

// Walk visits g and every nested graph depth-first, parents before
// children. depth is 0 for g. Walk stops early when fn returns false and
// visits each graph at most once.
func (g *Graph) Walk(fn func(g *Graph, depth int) bool) {
	seen := make(map[*Graph]bool)
	var visit func(*Graph, int) bool
	visit = func(cur *Graph, depth int) bool {
		if cur == nil || seen[cur] {
			return true
		}
		seen[cur] = true
		if !fn(cur, depth) {
			return false
		}
		for _, e := range cur.Nodes {
			if !visit(e.SubGraph, depth+1) {
				return false
			}
		}
		return true
	}
	visit(g, 0)
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		ID:    g.ID,
		Label: g.Label,
		Nodes: make([]*Entity, len(g.Nodes)),
		Links: make([]*Flow, len(g.Links)),
	}
	for i, e := range g.Nodes {
		c := *e
		if e.Position != nil {
			p := *e.Position
			c.Position = &p
		}
		c.SubGraph = e.SubGraph.Clone()
		out.Nodes[i] = &c
	}
	for i, f := range g.Links {
		c := *f
		out.Links[i] = &c
	}
	return out
}

// =============================================================================
// Entity
// =============================================================================

// Position is a point on the drawing surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity is a node of a Graph.
type Entity struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Group       string    `json:"group"`
	Description string    `json:"description"`
	SubGraph    *Graph    `json:"subGraph,omitempty"`
	Position    *Position `json:"position,omitempty"`

	// Radius is derived from the entity's group during hydration.
	Radius float64 `json:"-"`
}

// HasSubGraph reports whether the entity owns a nested graph.
func (e *Entity) HasSubGraph() bool { return e.SubGraph != nil }

// =============================================================================
// Flow
// =============================================================================

// Flow is a directed link between two entities of the same Graph.
type Flow struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Kind      FlowKind  `json:"kind"`
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
}

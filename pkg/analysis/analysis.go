// Package analysis reports structural statistics of a nested graph tree:
// entity and flow counts per level, nesting depth, connected components
// and degree extremes. Graph algorithms come from gonum.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/drilldown/pkg/graph"
)

// Level summarises one graph of the tree.
type Level struct {
	GraphID    string   `json:"graph_id"`
	Label      string   `json:"label"`
	Path       []string `json:"path"`
	Depth      int      `json:"depth"`
	Entities   int      `json:"entities"`
	Flows      int      `json:"flows"`
	Nested     int      `json:"nested"`
	Components int      `json:"components"`
	Isolated   int      `json:"isolated"`
	Dangling   int      `json:"dangling"`
	Hub        string   `json:"hub,omitempty"`
	HubDegree  int      `json:"hub_degree,omitempty"`
}

// Report summarises the whole tree.
type Report struct {
	Levels   []Level `json:"levels"`
	MaxDepth int     `json:"max_depth"`
	Entities int     `json:"entities"`
	Flows    int     `json:"flows"`
}

// Analyze walks the tree under root depth-first. Each graph is reported
// once even when referenced from several entities.
func Analyze(root *graph.Graph) Report {
	var r Report
	if root == nil {
		return r
	}
	seen := make(map[*graph.Graph]bool)
	var visit func(g *graph.Graph, path []string)
	visit = func(g *graph.Graph, path []string) {
		if seen[g] {
			return
		}
		seen[g] = true
		path = append(path[:len(path):len(path)], g.Label)

		lv := Summarize(g)
		lv.Path = path
		lv.Depth = len(path) - 1
		r.Levels = append(r.Levels, lv)
		r.Entities += lv.Entities
		r.Flows += lv.Flows
		if lv.Depth > r.MaxDepth {
			r.MaxDepth = lv.Depth
		}
		for _, e := range g.Nodes {
			if e.SubGraph != nil {
				visit(e.SubGraph, path)
			}
		}
	}
	visit(root, nil)
	return r
}

// Summarize reports on one level without descending.
func Summarize(g *graph.Graph) Level {
	lv := Level{GraphID: g.ID, Label: g.Label, Entities: len(g.Nodes), Flows: len(g.Links)}
	for _, e := range g.Nodes {
		if e.HasSubGraph() {
			lv.Nested++
		}
	}

	ug, ids := undirected(g)
	for _, f := range g.Links {
		if _, ok := ids[f.Source]; !ok {
			lv.Dangling++
		} else if _, ok := ids[f.Target]; !ok {
			lv.Dangling++
		}
	}

	comps := topo.ConnectedComponents(ug)
	lv.Components = len(comps)
	for _, c := range comps {
		if len(c) == 1 {
			lv.Isolated++
		}
	}

	for _, e := range g.Nodes {
		d := ug.From(ids[e.ID]).Len()
		if d > lv.HubDegree {
			lv.Hub, lv.HubDegree = e.ID, d
		}
	}
	return lv
}

// Components returns the entity ids of each connected component of g,
// ignoring flow direction. Components are sorted by size, largest first,
// and ids within a component follow entity order.
func Components(g *graph.Graph) [][]string {
	ug, ids := undirected(g)
	order := make(map[int64]int, len(g.Nodes))
	names := make(map[int64]string, len(g.Nodes))
	for i, e := range g.Nodes {
		order[ids[e.ID]] = i
		names[ids[e.ID]] = e.ID
	}

	var out [][]string
	for _, c := range topo.ConnectedComponents(ug) {
		sort.Slice(c, func(i, j int) bool { return order[c[i].ID()] < order[c[j].ID()] })
		comp := make([]string, len(c))
		for i, n := range c {
			comp[i] = names[n.ID()]
		}
		out = append(out, comp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return order[ids[out[i][0]]] < order[ids[out[j][0]]]
	})
	return out
}

// Degrees returns the number of distinct neighbours of every entity.
func Degrees(g *graph.Graph) map[string]int {
	ug, ids := undirected(g)
	out := make(map[string]int, len(ids))
	for id, n := range ids {
		out[id] = ug.From(n).Len()
	}
	return out
}

// undirected builds a gonum graph of one level. Self-loops and flows with
// missing endpoints are left out.
func undirected(g *graph.Graph) (*simple.UndirectedGraph, map[string]int64) {
	ug := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(g.Nodes))
	for _, e := range g.Nodes {
		if _, dup := ids[e.ID]; dup {
			continue
		}
		id := int64(len(ids))
		ids[e.ID] = id
		ug.AddNode(simple.Node(id))
	}
	for _, f := range g.Links {
		s, okS := ids[f.Source]
		t, okT := ids[f.Target]
		if !okS || !okT || s == t {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(s), simple.Node(t)))
	}
	return ug, ids
}

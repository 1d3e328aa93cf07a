package graph

import "fmt"

// Problem describes one integrity violation found by Validate.
type Problem struct {
	GraphID string   `json:"graph_id"`
	Path    []string `json:"path"` // labels from the root to the graph holding the problem
	FlowID  string   `json:"flow_id,omitempty"`
	Reason  string   `json:"reason"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%v: flow %s: %s", p.Path, p.FlowID, p.Reason)
}

// Validate checks the referential integrity of g and every nested graph:
// flow endpoints must name entities of the same graph, flows must not be
// self-loops, and ids must be unique within a graph. It returns nil when the
// tree is consistent.
func (g *Graph) Validate() []Problem {
	var problems []Problem
	var visit func(cur *Graph, path []string, seen map[*Graph]bool)
	visit = func(cur *Graph, path []string, seen map[*Graph]bool) {
		if cur == nil || seen[cur] {
			return
		}
		seen[cur] = true
		path = append(path[:len(path):len(path)], cur.Label)

		ids := make(map[string]bool, len(cur.Nodes))
		for _, e := range cur.Nodes {
			if ids[e.ID] {
				problems = append(problems, Problem{GraphID: cur.ID, Path: path, Reason: fmt.Sprintf("duplicate entity id %q", e.ID)})
			}
			ids[e.ID] = true
		}
		flowIDs := make(map[string]bool, len(cur.Links))
		for _, f := range cur.Links {
			add := func(reason string) {
				problems = append(problems, Problem{GraphID: cur.ID, Path: path, FlowID: f.ID, Reason: reason})
			}
			if flowIDs[f.ID] {
				add("duplicate flow id")
			}
			flowIDs[f.ID] = true
			if !ids[f.Source] {
				add(fmt.Sprintf("source %q not found", f.Source))
			}
			if !ids[f.Target] {
				add(fmt.Sprintf("target %q not found", f.Target))
			}
			if f.Source == f.Target {
				add("self-loop")
			}
		}
		for _, e := range cur.Nodes {
			visit(e.SubGraph, path, seen)
		}
	}
	visit(g, nil, make(map[*Graph]bool))
	return problems
}

// Package graph provides the nested tree-of-graphs model behind drilldown.
//
// A [Graph] holds entities ([Entity]) and the flows ([Flow]) between them.
// Any entity may own a nested Graph through its SubGraph field, to any depth.
// Each Graph is an independent id namespace: flows never cross a Graph
// boundary, and entity ids need only be unique within their own Graph.
//
// # Wire Format
//
// Graphs serialize to the node-link JSON used by graph packages:
//
//	{
//	  "id": "root", "label": "Ecosystem",
//	  "nodes": [{"id": "a", "label": "API", "group": "default", "description": ""}],
//	  "links": [{"id": "f1", "source": "a", "target": "b", "kind": "flow",
//	             "label": "", "direction": "forward"}]
//	}
//
// Decoding also accepts the field names of older documents ("desc", "type",
// object-valued endpoints).
//
// # Editing
//
// A [Model] applies edits to whatever graph its [Scope] reports as current.
// Mutations return a bool instead of an error: invalid references, duplicate
// ids and self-loops are no-ops that leave the tree unchanged. This keeps
// interactive callers simple; they only need to know whether to redraw.
//
//	m := graph.NewModel(groups.New(nil))
//	m.Bind(stack)
//	a, _ := m.AddEntity(graph.EntityProps{Label: "API"})
//	b, _ := m.AddEntity(graph.EntityProps{Label: "DB"})
//	m.AddFlow(a.ID, b.ID, graph.KindFlow) // applied
//	m.AddFlow(a.ID, a.ID, graph.KindFlow) // self-loop, no-op
//	m.RemoveEntity(a.ID)                  // also removes the flow
//
// # Hydration
//
// [Model.Hydrate] walks a loaded tree and fills what documents may omit:
// ids, default groups, derived radii, flow kinds and directions.
//
// # Concurrency
//
// Graphs and models are not safe for concurrent use. Callers that share a
// model across goroutines serialize access themselves.
package graph

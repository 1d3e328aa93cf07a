// Package nodelink renders graphs as Graphviz node-link diagrams.
//
// # Usage
//
// Convert the current level to DOT, then render it to SVG:
//
//	dot := nodelink.ToDOT(g, registry, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: labels also carry the group title and the description
//   - Recursive: nested graphs are drawn as clusters inside the picture
//
// # Styling
//
// Entities are filled circles in their group color; entities with a nested
// graph get a double outline. Flow kinds map to line styles (flow solid,
// internal dashed, admin dotted) and the flow direction maps to Graphviz's
// dir attribute, so bidirectional flows get arrow heads at both ends.
//
// The DOT text is plain Graphviz and can also be piped to the dot tool:
//
//	drilldown render ecosystem.json --engine graphviz --format dot | dot -Tpdf > out.pdf
package nodelink

// Package render draws one graph level as a node-link picture.
//
// A [Scene] is the geometry of the current level: entity circles sized and
// coloured by their group, flow segments clipped to the circle rims, the
// group legend and the transient link guide. It also answers hit-tests, so
// it serves as the drawing surface for the builder controller:
//
//	scene := render.NewScene(model.Current(), registry, render.Options{})
//	ctrl.SetSurface(scene)
//	model.OnRender(func(g *graph.Graph) { scene.Rebuild(g, registry) })
//
// Scenes are written out with [WriteSVG] (via svgo) or [WritePNG] (via gg).
// The [nodelink] subpackage renders the same graph through Graphviz instead.
//
// Entities without a stored position are placed by [layout.Compute];
// positioned entities stay where the operator put them.
package render

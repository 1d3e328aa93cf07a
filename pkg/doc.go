// Package pkg provides the core libraries for drilldown ecosystem graphs.
//
// # Overview
//
// A drilldown document is a tree of graphs. Each graph holds entities
// connected by typed flows, and any entity may open into a nested graph of
// its own. Users build documents interactively, drill into entities,
// navigate back through breadcrumbs, and exchange documents as JSON or YAML
// packages.
//
// # Architecture
//
// The typical data flow through drilldown:
//
//	JSON / YAML package
//	         ↓
//	    [io] package (decode, merge legend, hydrate)
//	         ↓
//	    [graph] model + [nav] view stack + [groups] registry
//	         ↓
//	    [builder] (gestures, forms, confirmations)
//	         ↓
//	    [layout] + [render] (force layout, SVG/PNG/DOT)
//
// # Quick Start
//
// Open a document, drill into an entity and render the nested level:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/drilldown/pkg/render"
//	    "github.com/matzehuels/drilldown/pkg/session"
//	)
//
//	s := session.New(session.Options{})
//	if _, err := s.OpenFile(context.Background(), "payments.json"); err != nil {
//	    return err
//	}
//	s.Builder.Drill("api")
//
//	scene := render.NewScene(s.Model.Current(), s.Groups, render.Options{Title: s.Title()})
//	render.WriteSVG(os.Stdout, scene)
//
// # Main Packages
//
// ## Document Model
//
// [graph] - Wire types (Graph, Entity, Flow) and the Model that applies
// mutations to the current level. Invalid mutations are silent no-ops that
// report false.
//
// [nav] - The view stack behind drill-down and breadcrumbs.
//
// [groups] - Style groups (title, color, radius) with a default group that
// cannot be removed.
//
// [builder] - Builder mode: the link-drag gesture, entity creation, edit
// forms, confirmed deletes and drill-down that creates nested graphs.
//
// [ident] - Identifier generation (UUID v4 or predictable sequences).
//
// ## Exchange and Persistence
//
// [io] - Package import and export, including legacy document shapes.
//
// [storage] - Prefixed key/value stores over files, SQLite, Redis, MongoDB or
// memory.
//
// [session] - One open document with its model, stack, registry, builder and
// serializer wired together.
//
// ## Presentation
//
// [layout] - Deterministic force-directed placement.
//
// [render] - Scenes, native SVG and PNG output, and [render/nodelink] for
// DOT and Graphviz.
//
// [analysis] - Per-level structure statistics and consistency checks.
//
// ## Cross-Cutting
//
// [errors] - Structured error codes shared by the CLI and the HTTP API.
//
// [observability] - Hooks for mutation, import and storage events.
//
// [buildinfo] - Version information stamped at build time.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/graph
// [nav]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/nav
// [groups]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/groups
// [builder]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/builder
// [ident]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/ident
// [io]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/io
// [storage]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/storage
// [session]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/session
// [layout]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/render/nodelink
// [analysis]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/analysis
// [errors]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/drilldown/pkg/buildinfo
package pkg

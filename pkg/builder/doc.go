// Package builder turns operator gestures into graph edits.
//
// A [Controller] sits between an interactive surface (a terminal UI, an HTTP
// client, a canvas) and the [graph.Model]. While builder mode is enabled it
// accepts structural edits: creating entities at a point, editing and
// deleting entities and flows, defining groups and linking two entities by
// dragging from one to the other.
//
// # Link Drag
//
// Linking is a two-state machine that lives only for one gesture:
//
//	Idle --BeginLinkDrag--> Dragging --Release/CancelDrag--> Idle
//
// While dragging, pointer moves only redraw a guide line from the source to
// the pointer. On release the controller asks the surface which entity lies
// under the pointer. A hit on a different entity creates a flow of kind
// "flow" and opens it in the flow form; a miss or a hit on the source itself
// abandons the gesture. The guide line is cleared on every release.
//
// # Collaborators
//
// The controller never draws anything itself. It talks to three narrow
// interfaces: a [Surface] for hit-testing and the guide line, [Forms] for
// opening edit forms and a [Confirmer] that asks before destructive actions.
// Any of them may be nil.
//
// # Drill-Down
//
// [Controller.Drill] pushes an entity's nested graph onto the navigation
// stack. Entities without one get an empty graph labelled "<label> Subgraph",
// but only in builder mode; outside builder mode only existing nested graphs
// can be entered.
package builder

package builder

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/nav"
)

// Defaults for entities and groups created by the controller.
const (
	NewEntityLabel   = "New Node"
	NewGroupColor    = "#3b82f6"
	NewGroupRadius   = 25.0
	SubGraphSuffix   = " Subgraph"
	DefaultFlowKind  = graph.KindFlow
	deleteEntityText = "Delete entity %q and all of its flows?"
	deleteFlowText   = "Delete flow %s -> %s?"
)

// Surface is the drawing surface as seen by the controller.
type Surface interface {
	// EntityAt returns the id of the entity drawn under p, if any.
	EntityAt(p graph.Position) (string, bool)
	// DrawGuide draws the transient link guide from one point to another.
	DrawGuide(from, to graph.Position)
	// ClearGuide removes the link guide.
	ClearGuide()
}

// Forms opens edit forms for entities and flows.
type Forms interface {
	EditEntity(e *graph.Entity)
	EditFlow(f *graph.Flow)
}

// Confirmer asks the operator before a destructive action and calls proceed
// only on approval. It may answer asynchronously.
type Confirmer interface {
	Confirm(prompt string, proceed func())
}

// State is the link-drag state.
type State int

// Link-drag states.
const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Config wires a controller to its collaborators. Model and Stack are
// required. A nil Confirmer approves every action.
type Config struct {
	Model     *graph.Model
	Stack     *nav.Stack
	Surface   Surface
	Forms     Forms
	Confirmer Confirmer
	Logger    *log.Logger
}

type drag struct {
	sourceID string
	origin   graph.Position
	pointer  graph.Position
}

// Controller orchestrates interactive edits. It is not safe for concurrent
// use.
type Controller struct {
	model   *graph.Model
	stack   *nav.Stack
	surface Surface
	forms   Forms
	confirm Confirmer
	logger  *log.Logger

	enabled bool
	state   State
	drag    drag
}

// New returns a controller in Idle state with builder mode disabled.
func New(cfg Config) *Controller {
	c := &Controller{
		model:   cfg.Model,
		stack:   cfg.Stack,
		surface: cfg.Surface,
		forms:   cfg.Forms,
		confirm: cfg.Confirmer,
		logger:  cfg.Logger,
	}
	if c.surface == nil {
		c.surface = noSurface{}
	}
	if c.forms == nil {
		c.forms = noForms{}
	}
	if c.confirm == nil {
		c.confirm = approveAll{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// SetSurface replaces the drawing surface. nil restores the null surface.
func (c *Controller) SetSurface(s Surface) {
	if s == nil {
		s = noSurface{}
	}
	c.surface = s
}

// SetForms replaces the form opener.
func (c *Controller) SetForms(f Forms) {
	if f == nil {
		f = noForms{}
	}
	c.forms = f
}

// SetConfirmer replaces the confirmer. nil approves every action.
func (c *Controller) SetConfirmer(cf Confirmer) {
	if cf == nil {
		cf = approveAll{}
	}
	c.confirm = cf
}

// Enable turns builder mode on.
func (c *Controller) Enable() { c.enabled = true }

// Disable turns builder mode off and abandons any gesture in progress.
func (c *Controller) Disable() {
	c.CancelDrag()
	c.enabled = false
}

// Enabled reports whether builder mode is on.
func (c *Controller) Enabled() bool { return c.enabled }

// State returns the link-drag state.
func (c *Controller) State() State { return c.state }

// DragSource returns the source entity of the gesture in progress.
func (c *Controller) DragSource() (string, bool) {
	if c.state != Dragging {
		return "", false
	}
	return c.drag.sourceID, true
}

// Pointer returns the last pointer position seen while dragging.
func (c *Controller) Pointer() graph.Position { return c.drag.pointer }

func (c *Controller) skip(op, reason string, keyvals ...any) bool {
	c.logger.Debug("gesture skipped", append([]any{"op", op, "reason", reason}, keyvals...)...)
	return false
}

// =============================================================================
// Link Drag
// =============================================================================

// BeginLinkDrag starts a link gesture from sourceID, pressed at p.
func (c *Controller) BeginLinkDrag(sourceID string, p graph.Position) bool {
	if !c.enabled {
		return c.skip("begin_link", "builder mode off")
	}
	if c.state != Idle {
		return c.skip("begin_link", "gesture in progress")
	}
	src, ok := c.model.Entity(sourceID)
	if !ok {
		return c.skip("begin_link", "source not found", "entity", sourceID)
	}
	origin := p
	if src.Position != nil {
		origin = *src.Position
	}
	c.state = Dragging
	c.drag = drag{sourceID: sourceID, origin: origin, pointer: p}
	c.surface.DrawGuide(origin, p)
	return true
}

// MovePointer moves the guide line's end to p. It never edits the model.
func (c *Controller) MovePointer(p graph.Position) bool {
	if c.state != Dragging {
		return false
	}
	c.drag.pointer = p
	c.surface.DrawGuide(c.drag.origin, p)
	return true
}

// Release ends the gesture at p. When p hits an entity other than the
// source, a flow is created and opened in the flow form.
func (c *Controller) Release(p graph.Position) (*graph.Flow, bool) {
	if c.state != Dragging {
		return nil, c.skip("release", "not dragging")
	}
	sourceID := c.drag.sourceID
	c.reset()

	targetID, hit := c.surface.EntityAt(p)
	if !hit {
		return nil, c.skip("release", "no entity under pointer", "x", p.X, "y", p.Y)
	}
	if targetID == sourceID {
		return nil, c.skip("release", "self-loop", "entity", sourceID)
	}
	f, ok := c.model.AddFlow(sourceID, targetID, DefaultFlowKind)
	if !ok {
		return nil, false
	}
	c.forms.EditFlow(f)
	return f, true
}

// CancelDrag abandons the gesture without editing the model.
func (c *Controller) CancelDrag() {
	if c.state == Dragging {
		c.reset()
	}
}

func (c *Controller) reset() {
	c.surface.ClearGuide()
	c.state = Idle
	c.drag = drag{}
}

// =============================================================================
// Entities and Flows
// =============================================================================

// CreateEntityAt adds a default entity at p and opens it in the entity form.
func (c *Controller) CreateEntityAt(p graph.Position) (*graph.Entity, bool) {
	if !c.enabled {
		return nil, c.skip("create_entity", "builder mode off")
	}
	pos := p
	e, ok := c.model.AddEntity(graph.EntityProps{
		Label:    NewEntityLabel,
		Group:    groups.DefaultKey,
		Position: &pos,
	})
	if !ok {
		return nil, false
	}
	c.forms.EditEntity(e)
	return e, true
}

// EditEntity opens the entity form for id.
func (c *Controller) EditEntity(id string) bool {
	e, ok := c.model.Entity(id)
	if !ok {
		return c.skip("edit_entity", "not found", "entity", id)
	}
	c.forms.EditEntity(e)
	return true
}

// EditFlow opens the flow form for id.
func (c *Controller) EditFlow(id string) bool {
	f, ok := c.model.Flow(id)
	if !ok {
		return c.skip("edit_flow", "not found", "flow", id)
	}
	c.forms.EditFlow(f)
	return true
}

// SubmitEntity applies a submitted entity form.
func (c *Controller) SubmitEntity(id string, p graph.EntityPatch) bool {
	return c.model.UpdateEntity(id, p)
}

// SubmitFlow applies a submitted flow form.
func (c *Controller) SubmitFlow(id string, p graph.FlowPatch) bool {
	return c.model.UpdateFlow(id, p)
}

// DeleteEntity asks for confirmation and then removes the entity with its
// flows. It reports whether the request was put to the operator.
func (c *Controller) DeleteEntity(id string) bool {
	if !c.enabled {
		return c.skip("delete_entity", "builder mode off")
	}
	e, ok := c.model.Entity(id)
	if !ok {
		return c.skip("delete_entity", "not found", "entity", id)
	}
	c.confirm.Confirm(fmt.Sprintf(deleteEntityText, e.Label), func() {
		c.model.RemoveEntity(id)
	})
	return true
}

// DeleteFlow asks for confirmation and then removes the flow.
func (c *Controller) DeleteFlow(id string) bool {
	if !c.enabled {
		return c.skip("delete_flow", "builder mode off")
	}
	f, ok := c.model.Flow(id)
	if !ok {
		return c.skip("delete_flow", "not found", "flow", id)
	}
	c.confirm.Confirm(fmt.Sprintf(deleteFlowText, c.labelOf(f.Source), c.labelOf(f.Target)), func() {
		c.model.RemoveFlow(id)
	})
	return true
}

func (c *Controller) labelOf(id string) string {
	if e, ok := c.model.Entity(id); ok && e.Label != "" {
		return e.Label
	}
	return id
}

// =============================================================================
// Navigation
// =============================================================================

// Drill enters the nested graph of entity id, creating it in builder mode
// when missing.
func (c *Controller) Drill(id string) bool {
	e, ok := c.model.Entity(id)
	if !ok {
		return c.skip("drill", "not found", "entity", id)
	}
	if e.SubGraph == nil {
		if !c.enabled {
			return c.skip("drill", "no nested graph outside builder mode", "entity", id)
		}
		e.SubGraph = c.model.NewGraph(e.Label + SubGraphSuffix)
	}
	c.CancelDrag()
	if !c.stack.Push(e.SubGraph) {
		return false
	}
	c.model.Render()
	return true
}

// Back jumps to the breadcrumb at index.
func (c *Controller) Back(index int) bool {
	c.CancelDrag()
	if !c.stack.TruncateTo(index) {
		return false
	}
	c.model.Render()
	return true
}

// =============================================================================
// Groups
// =============================================================================

// AddGroup defines a new group under a fresh key and returns the key. An
// empty color or a non-positive radius takes the controller defaults.
func (c *Controller) AddGroup(title, color string, radius float64) (string, bool) {
	if !c.enabled {
		return "", c.skip("add_group", "builder mode off")
	}
	if color == "" {
		color = NewGroupColor
	}
	if radius <= 0 {
		radius = NewGroupRadius
	}
	key := c.model.NewID()
	ok := c.model.Groups().Define(key, groups.Props{Title: title, Color: color, Radius: radius})
	return key, ok
}

// =============================================================================
// Null Collaborators
// =============================================================================

type noSurface struct{}

func (noSurface) EntityAt(graph.Position) (string, bool)   { return "", false }
func (noSurface) DrawGuide(graph.Position, graph.Position) {}
func (noSurface) ClearGuide()                              {}

type noForms struct{}

func (noForms) EditEntity(*graph.Entity) {}
func (noForms) EditFlow(*graph.Flow)     {}

type approveAll struct{}

func (approveAll) Confirm(_ string, proceed func()) { proceed() }

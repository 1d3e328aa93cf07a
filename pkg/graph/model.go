package graph

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/ident"
	"github.com/matzehuels/drilldown/pkg/observability"
)

// Scope tells the model which graph is being edited. The navigation stack
// implements it.
type Scope interface {
	Root() *Graph
	Current() *Graph
}

// EntityProps describes an entity passed to AddEntity. An empty ID is
// generated.
type EntityProps struct {
	ID          string
	Label       string
	Group       string
	Description string
	Position    *Position
	SubGraph    *Graph
}

// EntityPatch describes a partial entity update. Nil fields are unchanged.
type EntityPatch struct {
	Label       *string
	Group       *string
	Description *string
	Position    *Position
}

// FlowPatch describes a partial flow update. Nil fields are unchanged.
type FlowPatch struct {
	Kind      *FlowKind
	Label     *string
	Direction *Direction
}

// Model applies edits to the graph currently in scope.
//
// Every mutation reports whether it was applied. Requests that name missing
// entities or flows, duplicate ids and self-loops leave the tree untouched,
// return false and are logged at debug level. Applied mutations notify the
// render listeners with the current graph.
//
// Model is not safe for concurrent use.
type Model struct {
	groups    *groups.Registry
	scope     Scope
	ids       ident.Generator
	logger    *log.Logger
	listeners []func(*Graph)
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator sets the generator used for new entity, flow and graph ids.
func WithIDGenerator(gen ident.Generator) Option {
	return func(m *Model) {
		if gen != nil {
			m.ids = gen
		}
	}
}

// WithLogger sets the model's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel creates a model styled by reg. Call Bind before editing.
func NewModel(reg *groups.Registry, opts ...Option) *Model {
	m := &Model{groups: reg, ids: ident.Default, logger: log.Default()}
	for _, opt := range opts {
		opt(m)
	}
	reg.OnChange(m.RefreshStyles)
	return m
}

// Bind sets the scope that supplies the current graph.
func (m *Model) Bind(s Scope) { m.scope = s }

// Groups returns the registry the model resolves groups against.
func (m *Model) Groups() *groups.Registry { return m.groups }

// NewID returns a fresh identifier from the model's generator.
func (m *Model) NewID() string { return m.ids.NewID() }

// NewGraph returns an empty graph with a fresh id.
func (m *Model) NewGraph(label string) *Graph { return New(m.ids.NewID(), label) }

// OnRender registers fn to run after every applied mutation.
func (m *Model) OnRender(fn func(*Graph)) {
	m.listeners = append(m.listeners, fn)
}

// Current returns the graph in scope, or nil when the model is unbound.
func (m *Model) Current() *Graph {
	if m.scope == nil {
		return nil
	}
	return m.scope.Current()
}

// Entity looks up an entity of the current graph.
func (m *Model) Entity(id string) (*Entity, bool) {
	g := m.Current()
	if g == nil {
		return nil, false
	}
	return g.Entity(id)
}

// Flow looks up a flow of the current graph.
func (m *Model) Flow(id string) (*Flow, bool) {
	g := m.Current()
	if g == nil {
		return nil, false
	}
	return g.Flow(id)
}

// Render notifies the render listeners without mutating anything.
func (m *Model) Render() {
	g := m.Current()
	for _, fn := range m.listeners {
		fn(g)
	}
}

func (m *Model) skip(op, reason string, keyvals ...any) bool {
	m.logger.Debug("edit skipped", append([]any{"op", op, "reason", reason}, keyvals...)...)
	observability.Editor().OnMutation(op, false)
	return false
}

func (m *Model) applied(op string) bool {
	observability.Editor().OnMutation(op, true)
	m.Render()
	return true
}

// =============================================================================
// Entities
// =============================================================================

// AddEntity appends an entity to the current graph. Unknown or empty groups
// resolve to the default group. An id already present in the graph makes the
// call a no-op.
func (m *Model) AddEntity(p EntityProps) (*Entity, bool) {
	g := m.Current()
	if g == nil {
		return nil, m.skip("add_entity", "no current graph")
	}
	id := p.ID
	if id == "" {
		id = m.ids.NewID()
	}
	if _, dup := g.Entity(id); dup {
		return nil, m.skip("add_entity", "duplicate id", "entity", id)
	}
	e := &Entity{
		ID:          id,
		Label:       p.Label,
		Group:       m.groups.ResolveKey(p.Group),
		Description: p.Description,
		SubGraph:    p.SubGraph,
	}
	if p.Position != nil {
		pos := *p.Position
		e.Position = &pos
	}
	e.Radius = m.groups.Resolve(e.Group).Radius
	if e.SubGraph != nil {
		m.Hydrate(e.SubGraph)
	}
	g.Nodes = append(g.Nodes, e)
	return e, m.applied("add_entity")
}

// UpdateEntity merges patch into the entity with the given id. Changing the
// group re-resolves the entity's radius.
func (m *Model) UpdateEntity(id string, p EntityPatch) bool {
	e, ok := m.Entity(id)
	if !ok {
		return m.skip("update_entity", "not found", "entity", id)
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Position != nil {
		pos := *p.Position
		e.Position = &pos
	}
	if p.Group != nil {
		e.Group = m.groups.ResolveKey(*p.Group)
		e.Radius = m.groups.Resolve(e.Group).Radius
	}
	return m.applied("update_entity")
}

// RemoveEntity deletes the entity and every flow that references it. The
// entity's nested graph goes with it.
func (m *Model) RemoveEntity(id string) bool {
	g := m.Current()
	if g == nil {
		return m.skip("remove_entity", "no current graph", "entity", id)
	}
	i := g.entityIndex(id)
	if i < 0 {
		return m.skip("remove_entity", "not found", "entity", id)
	}
	g.Nodes = slices.Delete(g.Nodes, i, i+1)
	g.Links = slices.DeleteFunc(g.Links, func(f *Flow) bool {
		return f.Source == id || f.Target == id
	})
	return m.applied("remove_entity")
}

// =============================================================================
// Flows
// =============================================================================

// AddFlow links two entities of the current graph. Self-loops, missing
// endpoints and unknown kinds are rejected. An empty kind means KindFlow.
// New flows get a fresh id, the DefaultFlowLabel placeholder and the Forward
// direction.
func (m *Model) AddFlow(sourceID, targetID string, kind FlowKind) (*Flow, bool) {
	if sourceID == targetID {
		return nil, m.skip("add_flow", "self-loop", "entity", sourceID)
	}
	g := m.Current()
	if g == nil {
		return nil, m.skip("add_flow", "no current graph")
	}
	if kind == "" {
		kind = KindFlow
	}
	if !kind.Valid() {
		return nil, m.skip("add_flow", "unknown kind", "kind", kind)
	}
	if _, ok := g.Entity(sourceID); !ok {
		return nil, m.skip("add_flow", "source not found", "entity", sourceID)
	}
	if _, ok := g.Entity(targetID); !ok {
		return nil, m.skip("add_flow", "target not found", "entity", targetID)
	}
	f := &Flow{
		ID:        m.ids.NewID(),
		Source:    sourceID,
		Target:    targetID,
		Kind:      kind,
		Label:     DefaultFlowLabel,
		Direction: Forward,
	}
	g.Links = append(g.Links, f)
	return f, m.applied("add_flow")
}

// UpdateFlow merges patch into the flow with the given id. A patch with an
// unknown kind or direction is rejected as a whole.
func (m *Model) UpdateFlow(id string, p FlowPatch) bool {
	f, ok := m.Flow(id)
	if !ok {
		return m.skip("update_flow", "not found", "flow", id)
	}
	if p.Kind != nil && !p.Kind.Valid() {
		return m.skip("update_flow", "unknown kind", "flow", id, "kind", *p.Kind)
	}
	if p.Direction != nil && !p.Direction.Valid() {
		return m.skip("update_flow", "unknown direction", "flow", id, "direction", *p.Direction)
	}
	if p.Kind != nil {
		f.Kind = *p.Kind
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Direction != nil {
		f.Direction = *p.Direction
	}
	return m.applied("update_flow")
}

// RemoveFlow deletes the flow with the given id.
func (m *Model) RemoveFlow(id string) bool {
	g := m.Current()
	if g == nil {
		return m.skip("remove_flow", "no current graph", "flow", id)
	}
	i := g.flowIndex(id)
	if i < 0 {
		return m.skip("remove_flow", "not found", "flow", id)
	}
	g.Links = slices.Delete(g.Links, i, i+1)
	return m.applied("remove_flow")
}

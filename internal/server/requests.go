package server

import "github.com/matzehuels/drilldown/pkg/graph"

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p point) pos() graph.Position { return graph.Position{X: p.X, Y: p.Y} }

type createEntityRequest struct {
	ID          string `json:"id" validate:"max=128"`
	Label       string `json:"label" validate:"max=200"`
	Group       string `json:"group" validate:"max=128"`
	Description string `json:"description" validate:"max=10000"`
	Position    *point `json:"position"`
	Nested      bool   `json:"nested"`
}

type updateEntityRequest struct {
	Label       *string `json:"label" validate:"omitempty,max=200"`
	Group       *string `json:"group" validate:"omitempty,max=128"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Position    *point  `json:"position"`
}

func (r updateEntityRequest) patch() graph.EntityPatch {
	p := graph.EntityPatch{Label: r.Label, Group: r.Group, Description: r.Description}
	if r.Position != nil {
		pos := r.Position.pos()
		p.Position = &pos
	}
	return p
}

type createFlowRequest struct {
	Source string `json:"source" validate:"required,max=128"`
	Target string `json:"target" validate:"required,max=128"`
	Kind   string `json:"kind" validate:"omitempty,flowkind"`
}

type updateFlowRequest struct {
	Kind      *string `json:"kind" validate:"omitempty,flowkind"`
	Label     *string `json:"label" validate:"omitempty,max=200"`
	Direction *string `json:"direction" validate:"omitempty,direction"`
}

func (r updateFlowRequest) patch() graph.FlowPatch {
	var p graph.FlowPatch
	if r.Kind != nil {
		k := graph.FlowKind(*r.Kind)
		p.Kind = &k
	}
	if r.Direction != nil {
		d := graph.Direction(*r.Direction)
		p.Direction = &d
	}
	p.Label = r.Label
	return p
}

// linkGestureRequest replays a complete link drag: press on the source,
// optional pointer moves, release over the target.
type linkGestureRequest struct {
	Source  string  `json:"source" validate:"required"`
	Press   point   `json:"press"`
	Moves   []point `json:"moves"`
	Release point   `json:"release"`
}

type groupRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=100"`
	Color       *string  `json:"color" validate:"omitempty,groupcolor"`
	Radius      *float64 `json:"radius" validate:"omitempty,gt=0"`
	Description *string  `json:"description" validate:"omitempty,max=10000"`
}

type builderRequest struct {
	Enabled bool `json:"enabled"`
}

type titleRequest struct {
	Title    string `json:"title" validate:"max=200"`
	Subtitle string `json:"subtitle" validate:"max=200"`
}

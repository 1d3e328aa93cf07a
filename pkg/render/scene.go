package render

import (
	"math"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/layout"
)

// Options configures scene construction.
type Options struct {
	// Title is drawn in the top-left corner. Empty draws the graph label.
	Title string

	// Layout places entities that have no position.
	Layout layout.Options

	// NoLegend hides the group legend.
	NoLegend bool

	// Handdrawn switches SVG text to a handwriting font stack.
	Handdrawn bool
}

// Node is an entity as drawn.
type Node struct {
	ID     string
	Label  string
	Group  string
	Color  string
	X, Y   float64
	R      float64
	Nested bool
}

// Edge is a flow as drawn, clipped to the endpoint rims.
type Edge struct {
	ID        string
	Source    string
	Target    string
	Label     string
	Kind      graph.FlowKind
	Direction graph.Direction
	X1, Y1    float64
	X2, Y2    float64
}

// LegendItem is one group in the legend.
type LegendItem struct {
	Key    string
	Title  string
	Color  string
	Radius float64
}

// Scene is the drawable geometry of one graph level.
type Scene struct {
	GraphID string
	Title   string
	Width   float64
	Height  float64
	Nodes   []Node
	Edges   []Edge
	Legend  []LegendItem

	opts      Options
	guide     bool
	guideFrom graph.Position
	guideTo   graph.Position
}

// NewScene builds the scene for g.
func NewScene(g *graph.Graph, reg *groups.Registry, opts Options) *Scene {
	s := &Scene{opts: opts}
	s.Rebuild(g, reg)
	return s
}

// Rebuild recomputes the geometry from g. The link guide survives.
func (s *Scene) Rebuild(g *graph.Graph, reg *groups.Registry) {
	s.Nodes, s.Edges, s.Legend = nil, nil, nil
	if g == nil {
		return
	}
	s.GraphID = g.ID
	s.Title = s.opts.Title
	if s.Title == "" {
		s.Title = g.Label
	}

	l := layout.Compute(g, s.opts.Layout)
	s.Width, s.Height = l.Width, l.Height

	index := make(map[string]int, len(g.Nodes))
	for _, e := range g.Nodes {
		grp := reg.Resolve(e.Group)
		p := l.Positions[e.ID]
		r := e.Radius
		if r <= 0 {
			r = grp.Radius
		}
		index[e.ID] = len(s.Nodes)
		s.Nodes = append(s.Nodes, Node{
			ID:     e.ID,
			Label:  e.Label,
			Group:  reg.ResolveKey(e.Group),
			Color:  grp.Color,
			X:      p.X,
			Y:      p.Y,
			R:      r,
			Nested: e.HasSubGraph(),
		})
		s.Width = math.Max(s.Width, p.X+r+legendWidth)
		s.Height = math.Max(s.Height, p.Y+r+labelGap*2)
	}

	for _, f := range g.Links {
		si, okS := index[f.Source]
		ti, okT := index[f.Target]
		if !okS || !okT {
			continue
		}
		a, b := s.Nodes[si], s.Nodes[ti]
		x1, y1, x2, y2 := clip(a, b)
		s.Edges = append(s.Edges, Edge{
			ID:        f.ID,
			Source:    f.Source,
			Target:    f.Target,
			Label:     f.Label,
			Kind:      f.Kind,
			Direction: f.Direction,
			X1:        x1,
			Y1:        y1,
			X2:        x2,
			Y2:        y2,
		})
	}

	if !s.opts.NoLegend {
		for _, grp := range reg.All() {
			s.Legend = append(s.Legend, LegendItem{Key: grp.Key, Title: grp.Title, Color: grp.Color, Radius: grp.Radius})
		}
	}
}

// clip shortens the segment between two nodes so it starts and ends on
// their rims.
func clip(a, b Node) (x1, y1, x2, y2 float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d <= a.R+b.R {
		return a.X, a.Y, b.X, b.Y
	}
	ux, uy := dx/d, dy/d
	return a.X + ux*a.R, a.Y + uy*a.R, b.X - ux*b.R, b.Y - uy*b.R
}

// Node returns the drawn node for id.
func (s *Scene) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EntityAt returns the topmost entity whose circle contains p.
func (s *Scene) EntityAt(p graph.Position) (string, bool) {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		n := s.Nodes[i]
		if math.Hypot(p.X-n.X, p.Y-n.Y) <= n.R {
			return n.ID, true
		}
	}
	return "", false
}

// DrawGuide shows the link guide between two points.
func (s *Scene) DrawGuide(from, to graph.Position) {
	s.guide, s.guideFrom, s.guideTo = true, from, to
}

// ClearGuide hides the link guide.
func (s *Scene) ClearGuide() { s.guide = false }

// Guide returns the link guide's end points, if shown.
func (s *Scene) Guide() (from, to graph.Position, ok bool) {
	return s.guideFrom, s.guideTo, s.guide
}

const (
	legendWidth = 180.0
	labelGap    = 14.0
	arrowSize   = 9.0
)

// arrowHead returns the triangle for an arrow pointing from (x1,y1) to
// the tip (x2,y2).
func arrowHead(x1, y1, x2, y2 float64) [3][2]float64 {
	angle := math.Atan2(y2-y1, x2-x1)
	spread := math.Pi / 7
	return [3][2]float64{
		{x2, y2},
		{x2 - arrowSize*math.Cos(angle-spread), y2 - arrowSize*math.Sin(angle-spread)},
		{x2 - arrowSize*math.Cos(angle+spread), y2 - arrowSize*math.Sin(angle+spread)},
	}
}

// heads returns the arrow heads to draw for an edge.
func (e Edge) heads() [][3][2]float64 {
	var out [][3][2]float64
	if e.Direction != graph.Backward {
		out = append(out, arrowHead(e.X1, e.Y1, e.X2, e.Y2))
	}
	if e.Direction == graph.Backward || e.Direction == graph.Bidirectional {
		out = append(out, arrowHead(e.X2, e.Y2, e.X1, e.Y1))
	}
	return out
}

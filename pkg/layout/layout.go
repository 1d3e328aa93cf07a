// Package layout computes entity positions for one graph level with a
// Fruchterman-Reingold force simulation.
//
// Entities that already carry a position are pinned: they push and pull
// their neighbours but never move. The simulation is seeded, so the same
// graph always produces the same layout.
//
//	l := layout.Compute(g, layout.DefaultOptions())
//	l.Apply(g) // writes positions onto g's entities
package layout

import (
	"math"
	"math/rand"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// Options configures the force simulation.
type Options struct {
	Width        float64 // canvas width (default 960)
	Height       float64 // canvas height (default 640)
	Iterations   int     // simulation steps (default 300)
	Repel        float64 // node repulsion strength (default 8000)
	Attract      float64 // flow spring strength (default 0.015)
	Damping      float64 // velocity damping (default 0.85)
	LinkDistance float64 // spring rest length (default 120)
	Padding      float64 // margin kept free around the canvas edge (default 40)
	Seed         int64   // random seed for initial placement (default 42)
}

// DefaultOptions returns the default simulation settings.
func DefaultOptions() Options {
	return Options{
		Width:        960,
		Height:       640,
		Iterations:   300,
		Repel:        8000,
		Attract:      0.015,
		Damping:      0.85,
		LinkDistance: 120,
		Padding:      40,
		Seed:         42,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.Repel <= 0 {
		o.Repel = d.Repel
	}
	if o.Attract <= 0 {
		o.Attract = d.Attract
	}
	if o.Damping <= 0 || o.Damping > 1 {
		o.Damping = d.Damping
	}
	if o.LinkDistance <= 0 {
		o.LinkDistance = d.LinkDistance
	}
	if o.Padding < 0 {
		o.Padding = d.Padding
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

type body struct {
	id     string
	x, y   float64
	vx, vy float64
	r      float64
	pinned bool
}

// Compute lays out the entities of g (one level, nested graphs are not
// visited). When no entity is pinned the result is scaled to fit the
// canvas; otherwise free entities are only clamped into it.
func Compute(g *graph.Graph, opts Options) graph.Layout {
	opts = opts.withDefaults()
	out := graph.Layout{
		GraphID:   g.ID,
		Width:     opts.Width,
		Height:    opts.Height,
		Positions: make(map[string]graph.Position, len(g.Nodes)),
	}
	if len(g.Nodes) == 0 {
		return out
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bodies := make([]body, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))
	anyPinned := false
	for i, e := range g.Nodes {
		b := body{id: e.ID, r: e.Radius}
		if b.r <= 0 {
			b.r = groups.DefaultRadius
		}
		if e.Position != nil {
			b.x, b.y, b.pinned = e.Position.X, e.Position.Y, true
			anyPinned = true
		} else {
			b.x = opts.Width/2 + (rng.Float64()-0.5)*opts.Width*0.8
			b.y = opts.Height/2 + (rng.Float64()-0.5)*opts.Height*0.8
		}
		bodies[i] = b
		index[e.ID] = i
	}

	type spring struct{ a, b int }
	var springs []spring
	for _, f := range g.Links {
		a, okA := index[f.Source]
		b, okB := index[f.Target]
		if okA && okB && a != b {
			springs = append(springs, spring{a, b})
		}
	}

	temperature := math.Max(opts.Width, opts.Height) / 2
	for iter := 0; iter < opts.Iterations; iter++ {
		for i := range bodies {
			bodies[i].vx, bodies[i].vy = 0, 0
		}

		for i := range bodies {
			for j := range bodies {
				if i == j {
					continue
				}
				dx := bodies[i].x - bodies[j].x
				dy := bodies[i].y - bodies[j].y
				dist := math.Max(math.Hypot(dx, dy), 1)
				force := opts.Repel / (dist * dist)
				bodies[i].vx += dx / dist * force
				bodies[i].vy += dy / dist * force
			}
		}

		for _, s := range springs {
			a, b := &bodies[s.a], &bodies[s.b]
			dx := b.x - a.x
			dy := b.y - a.y
			dist := math.Max(math.Hypot(dx, dy), 1)
			force := (dist - opts.LinkDistance) * opts.Attract
			a.vx += dx / dist * force
			a.vy += dy / dist * force
			b.vx -= dx / dist * force
			b.vy -= dy / dist * force
		}

		for i := range bodies {
			b := &bodies[i]
			if b.pinned {
				continue
			}
			if disp := math.Hypot(b.vx, b.vy); disp > temperature {
				b.vx = b.vx / disp * temperature
				b.vy = b.vy / disp * temperature
			}
			b.x += b.vx * opts.Damping
			b.y += b.vy * opts.Damping
		}
		temperature *= 0.97
	}

	if anyPinned {
		clamp(bodies, opts)
	} else {
		fit(bodies, opts)
	}
	for _, b := range bodies {
		out.Positions[b.id] = graph.Position{X: round(b.x), Y: round(b.y)}
	}
	return out
}

// Apply computes a layout for g and writes it onto g's entities. Pinned
// entities keep their positions.
func Apply(g *graph.Graph, opts Options) graph.Layout {
	l := Compute(g, opts)
	l.Apply(g)
	return l
}

// fit scales and translates all bodies into the padded canvas.
func fit(bodies []body, opts Options) {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, b := range bodies {
		minX = math.Min(minX, b.x-b.r)
		minY = math.Min(minY, b.y-b.r)
		maxX = math.Max(maxX, b.x+b.r)
		maxY = math.Max(maxY, b.y+b.r)
	}
	availW := opts.Width - 2*opts.Padding
	availH := opts.Height - 2*opts.Padding
	w, h := maxX-minX, maxY-minY
	scale := 1.0
	if w > 0 && h > 0 {
		scale = math.Min(availW/w, availH/h)
	}
	offX := opts.Padding + (availW-w*scale)/2
	offY := opts.Padding + (availH-h*scale)/2
	for i := range bodies {
		bodies[i].x = offX + (bodies[i].x-minX)*scale
		bodies[i].y = offY + (bodies[i].y-minY)*scale
	}
}

// clamp keeps free bodies inside the canvas.
func clamp(bodies []body, opts Options) {
	for i := range bodies {
		b := &bodies[i]
		if b.pinned {
			continue
		}
		b.x = math.Min(math.Max(b.x, b.r), opts.Width-b.r)
		b.y = math.Min(math.Max(b.y, b.r), opts.Height-b.r)
	}
}

func round(v float64) float64 { return math.Round(v*100) / 100 }

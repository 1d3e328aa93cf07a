package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// treeCharset holds the connector glyphs of the tree view.
type treeCharset struct {
	branch, last, pipe, space string
}

var treeCharsets = map[string]treeCharset{
	"unicode": {branch: "├── ", last: "└── ", pipe: "│   ", space: "    "},
	"ascii":   {branch: "|-- ", last: "`-- ", pipe: "|   ", space: "    "},
}

type treeOptions struct {
	charset treeCharset
	depth   int // levels below the root to expand, 0 for all
	flows   bool
	width   int // maximum label width, 0 for no limit
	color   bool
}

// writeTree prints g and its nested graphs as an indented outline.
func writeTree(w io.Writer, g *graph.Graph, reg *groups.Registry, opts treeOptions) {
	tw := treeWriter{w: w, reg: reg, opts: opts, seen: map[string]bool{}}
	fmt.Fprintln(w, tw.title(g))
	tw.level(g, "", 1)
}

type treeWriter struct {
	w    io.Writer
	reg  *groups.Registry
	opts treeOptions
	seen map[string]bool
}

func (tw treeWriter) title(g *graph.Graph) string {
	s := fmt.Sprintf("%s (%d entities, %d flows)", tw.label(g.Label), len(g.Nodes), len(g.Links))
	if tw.opts.color {
		return StyleTitle.Render(s)
	}
	return s
}

func (tw treeWriter) label(s string) string {
	if tw.opts.width > 0 {
		return runewidth.Truncate(s, tw.opts.width, "…")
	}
	return s
}

func (tw treeWriter) level(g *graph.Graph, prefix string, depth int) {
	tw.seen[g.ID] = true
	defer delete(tw.seen, g.ID)

	cs := tw.opts.charset
	for i, e := range g.Nodes {
		last := i == len(g.Nodes)-1
		connector, indent := cs.branch, cs.pipe
		if last {
			connector, indent = cs.last, cs.space
		}
		fmt.Fprintln(tw.w, prefix+connector+tw.entityLine(e))

		child := prefix + indent
		if tw.opts.flows {
			for _, f := range g.Links {
				if f.Source != e.ID {
					continue
				}
				fmt.Fprintln(tw.w, child+tw.flowLine(g, f))
			}
		}
		if e.SubGraph == nil || tw.seen[e.SubGraph.ID] {
			continue
		}
		if tw.opts.depth > 0 && depth >= tw.opts.depth {
			continue
		}
		tw.level(e.SubGraph, child, depth+1)
	}
}

func (tw treeWriter) entityLine(e *graph.Entity) string {
	grp := tw.reg.Resolve(e.Group)
	var b strings.Builder
	if tw.opts.color {
		b.WriteString(swatch(grp.Color) + " ")
	}
	b.WriteString(tw.label(e.Label))
	b.WriteString(" [" + grp.Title + "]")
	if e.SubGraph != nil {
		b.WriteString(" " + iconNested)
	}
	return b.String()
}

func (tw treeWriter) flowLine(g *graph.Graph, f *graph.Flow) string {
	target := f.Target
	if e, ok := g.Entity(f.Target); ok {
		target = e.Label
	}
	arrow := iconArrow
	switch f.Direction {
	case graph.Backward:
		arrow = "←"
	case graph.Bidirectional:
		arrow = "↔"
	}
	s := fmt.Sprintf("%s %s (%s", arrow, tw.label(target), f.Kind)
	if f.Label != "" {
		s += ": " + f.Label
	}
	s += ")"
	if tw.opts.color {
		return StyleDim.Render(s)
	}
	return s
}

// countLevels returns the number of graphs in the document rooted at g.
func countLevels(g *graph.Graph) int {
	n := 0
	g.Walk(func(*graph.Graph, int) bool {
		n++
		return true
	})
	return n
}

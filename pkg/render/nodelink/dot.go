package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the group title and description to node labels.
	Detailed bool

	// Recursive draws nested graphs as clusters.
	Recursive bool
}

// ToDOT converts a graph level to Graphviz DOT format.
func ToDOT(g *graph.Graph, reg *groups.Registry, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  label=%s;\n  labelloc=t;\n", dotQuote(g.Label))
	buf.WriteString("  node [shape=circle, style=filled, fontsize=12, fixedsize=false];\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	w := dotWriter{buf: &buf, reg: reg, opts: opts, seen: make(map[*graph.Graph]bool)}
	w.level(g, "  ", "")

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf  *bytes.Buffer
	reg  *groups.Registry
	opts Options
	seen map[*graph.Graph]bool
}

// level writes the entities and flows of g. ns namespaces node ids so
// entities of different levels never collide.
func (w dotWriter) level(g *graph.Graph, indent, ns string) {
	w.seen[g] = true
	for _, e := range g.Nodes {
		fmt.Fprintf(w.buf, "%s%s [%s];\n", indent, dotQuote(ns+e.ID), strings.Join(w.nodeAttrs(e), ", "))
	}
	for _, f := range g.Links {
		if _, ok := g.Entity(f.Source); !ok {
			continue
		}
		if _, ok := g.Entity(f.Target); !ok {
			continue
		}
		fmt.Fprintf(w.buf, "%s%s -> %s [%s];\n", indent, dotQuote(ns+f.Source), dotQuote(ns+f.Target), strings.Join(flowAttrs(f), ", "))
	}
	if !w.opts.Recursive {
		return
	}
	for _, e := range g.Nodes {
		sub := e.SubGraph
		if sub == nil || w.seen[sub] {
			continue
		}
		fmt.Fprintf(w.buf, "\n%ssubgraph %s {\n", indent, dotQuote("cluster_"+ns+e.ID))
		fmt.Fprintf(w.buf, "%s  label=%s;\n%s  style=\"rounded,dashed\";\n", indent, dotQuote(sub.Label), indent)
		w.level(sub, indent+"  ", ns+e.ID+"/")
		fmt.Fprintf(w.buf, "%s}\n", indent)
	}
}

func (w dotWriter) nodeAttrs(e *graph.Entity) []string {
	grp := w.reg.Resolve(e.Group)
	attrs := []string{
		"label=" + dotQuote(w.label(e, grp)),
		"fillcolor=" + dotQuote(grp.Color),
		fmt.Sprintf("width=%s", strconv.FormatFloat(grp.Radius/36, 'f', 2, 64)),
	}
	if e.HasSubGraph() {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func (w dotWriter) label(e *graph.Entity, grp groups.Group) string {
	label := e.Label
	if label == "" {
		label = e.ID
	}
	if !w.opts.Detailed {
		return label
	}
	parts := []string{label, grp.Title}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "\n")
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// dotQuote renders s as a DOT quoted string. Only backslashes and quotes are
// escaped; newlines become DOT line breaks and other runes pass through.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func flowAttrs(f *graph.Flow) []string {
	var attrs []string
	if f.Label != "" {
		attrs = append(attrs, "label="+dotQuote(f.Label))
	}
	switch f.Kind {
	case graph.KindInternal:
		attrs = append(attrs, "style=dashed")
	case graph.KindAdmin:
		attrs = append(attrs, "style=dotted", "color=\"#f59e0b\"")
	}
	switch f.Direction {
	case graph.Backward:
		attrs = append(attrs, "dir=back")
	case graph.Bidirectional:
		attrs = append(attrs, "dir=both")
	}
	if len(attrs) == 0 {
		attrs = append(attrs, "dir=forward")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the picture scales with
// its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

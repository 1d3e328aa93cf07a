package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/drilldown/pkg/graph"
)

const (
	fontStack          = "system-ui,-apple-system,sans-serif"
	handdrawnFontStack = "'xkcd Script','Comic Sans MS','Bradley Hand','Segoe Script',cursive"
)

// RenderSVG returns the scene as an SVG document.
func RenderSVG(s *Scene) []byte {
	var buf bytes.Buffer
	drawSVG(&buf, s)
	return buf.Bytes()
}

// WriteSVG writes the scene as an SVG document to w.
func WriteSVG(w io.Writer, s *Scene) error {
	_, err := w.Write(RenderSVG(s))
	return err
}

func px(v float64) int { return int(math.Round(v)) }

func drawSVG(w io.Writer, s *Scene) {
	canvas := svg.New(w)
	canvas.Start(px(s.Width), px(s.Height))
	canvas.Title(s.Title)

	family := fontStack
	if s.opts.Handdrawn {
		family = handdrawnFontStack
	}
	text := func(size int, c string) string {
		return fmt.Sprintf("font-family:%s;font-size:%dpx;fill:%s", family, size, c)
	}

	canvas.Rect(0, 0, px(s.Width), px(s.Height), "fill:"+css(colorBackground))
	canvas.Text(16, 28, s.Title, text(18, css(colorText))+";font-weight:600")

	for _, e := range s.Edges {
		stroke, dash := edgeStyle(e.Kind)
		style := fmt.Sprintf("stroke:%s;stroke-width:2", css(stroke))
		if dash != "" {
			style += ";stroke-dasharray:" + dash
		}
		canvas.Line(px(e.X1), px(e.Y1), px(e.X2), px(e.Y2), style)
		for _, h := range e.heads() {
			canvas.Polygon(
				[]int{px(h[0][0]), px(h[1][0]), px(h[2][0])},
				[]int{px(h[0][1]), px(h[1][1]), px(h[2][1])},
				"fill:"+css(stroke))
		}
		if e.Label != "" {
			canvas.Text(px((e.X1+e.X2)/2), px((e.Y1+e.Y2)/2)-4, e.Label,
				text(11, css(colorMuted))+";text-anchor:middle")
		}
	}

	for _, n := range s.Nodes {
		fill := css(parseHex(n.Color))
		if n.Nested {
			canvas.Circle(px(n.X), px(n.Y), px(n.R+4), fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", fill))
		}
		canvas.Circle(px(n.X), px(n.Y), px(n.R), fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", fill, css(colorStroke)))
		canvas.Text(px(n.X), px(n.Y+n.R+labelGap), n.Label, text(12, css(colorText))+";text-anchor:middle")
	}

	if from, to, ok := s.Guide(); ok {
		canvas.Line(px(from.X), px(from.Y), px(to.X), px(to.Y),
			fmt.Sprintf("stroke:%s;stroke-width:2;stroke-dasharray:4,4", css(colorGuide)))
	}

	if len(s.Legend) > 0 {
		x := px(s.Width - legendWidth + 12)
		canvas.Text(x, 28, "Groups", text(13, css(colorText))+";font-weight:600")
		for i, item := range s.Legend {
			y := 50 + i*22
			canvas.Circle(x+7, y-4, 7, fmt.Sprintf("fill:%s;stroke:%s", css(parseHex(item.Color)), css(colorStroke)))
			canvas.Text(x+22, y, item.Title, text(12, css(colorText)))
		}
	}

	canvas.End()
}

// edgeStyle maps a flow kind to its stroke color and dash pattern.
func edgeStyle(k graph.FlowKind) (stroke color.RGBA, dash string) {
	switch k {
	case graph.KindInternal:
		return colorMuted, "6,4"
	case graph.KindAdmin:
		return colorAdmin, "2,4"
	default:
		return colorStroke, ""
	}
}

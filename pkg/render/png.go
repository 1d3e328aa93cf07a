package render

import (
	"image/png"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
)

// WritePNG rasterizes the scene at the given scale and writes it to w as
// PNG. A scale <= 0 means 1.
func WritePNG(w io.Writer, s *Scene, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	dc := gg.NewContext(int(math.Ceil(s.Width*scale)), int(math.Ceil(s.Height*scale)))
	drawPNG(dc, s, scale)
	return png.Encode(w, dc.Image())
}

func drawPNG(dc *gg.Context, s *Scene, k float64) {
	dc.SetColor(colorBackground)
	dc.Clear()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(s.Title, 16*k, 24*k, 0, 0.5)

	for _, e := range s.Edges {
		stroke, dash := edgeStyle(e.Kind)
		dc.SetColor(stroke)
		dc.SetLineWidth(2 * k)
		if dash == "" {
			dc.MoveTo(e.X1*k, e.Y1*k)
			dc.LineTo(e.X2*k, e.Y2*k)
			dc.Stroke()
		} else {
			dashed(dc, e.X1*k, e.Y1*k, e.X2*k, e.Y2*k, dashLen(dash)*k)
		}
		for _, h := range e.heads() {
			dc.MoveTo(h[0][0]*k, h[0][1]*k)
			dc.LineTo(h[1][0]*k, h[1][1]*k)
			dc.LineTo(h[2][0]*k, h[2][1]*k)
			dc.ClosePath()
			dc.Fill()
		}
		if e.Label != "" {
			dc.SetColor(colorMuted)
			dc.DrawStringAnchored(e.Label, (e.X1+e.X2)/2*k, ((e.Y1+e.Y2)/2-6)*k, 0.5, 0.5)
		}
	}

	for _, n := range s.Nodes {
		fill := parseHex(n.Color)
		if n.Nested {
			dc.SetColor(fill)
			dc.SetLineWidth(1.5 * k)
			dc.DrawCircle(n.X*k, n.Y*k, (n.R+4)*k)
			dc.Stroke()
		}
		dc.SetColor(fill)
		dc.DrawCircle(n.X*k, n.Y*k, n.R*k)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(2 * k)
		dc.DrawCircle(n.X*k, n.Y*k, n.R*k)
		dc.Stroke()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(n.Label, n.X*k, (n.Y+n.R+labelGap)*k, 0.5, 0.5)
	}

	if from, to, ok := s.Guide(); ok {
		dc.SetColor(colorGuide)
		dc.SetLineWidth(2 * k)
		dashed(dc, from.X*k, from.Y*k, to.X*k, to.Y*k, 4*k)
	}

	if len(s.Legend) > 0 {
		x := (s.Width - legendWidth + 12) * k
		dc.SetColor(colorText)
		dc.DrawStringAnchored("Groups", x, 24*k, 0, 0.5)
		for i, item := range s.Legend {
			y := float64(46+i*22) * k
			dc.SetColor(parseHex(item.Color))
			dc.DrawCircle(x+7*k, y, 7*k)
			dc.Fill()
			dc.SetColor(colorText)
			dc.DrawStringAnchored(item.Title, x+22*k, y, 0, 0.5)
		}
	}
}

// dashed strokes a line as alternating segments of length seg.
func dashed(dc *gg.Context, x1, y1, x2, y2, seg float64) {
	d := math.Hypot(x2-x1, y2-y1)
	if d == 0 || seg <= 0 {
		return
	}
	ux, uy := (x2-x1)/d, (y2-y1)/d
	for t := 0.0; t < d; t += 2 * seg {
		end := math.Min(t+seg, d)
		dc.MoveTo(x1+ux*t, y1+uy*t)
		dc.LineTo(x1+ux*end, y1+uy*end)
	}
	dc.Stroke()
}

// dashLen reads the first number of a dash pattern like "6,4".
func dashLen(pattern string) float64 {
	v := 0.0
	for _, c := range pattern {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + float64(c-'0')
	}
	return v
}

package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/matzehuels/drilldown/pkg/groups"
)

// parseHex parses #rgb or #rrggbb. Invalid input yields the default group
// color.
func parseHex(s string) color.RGBA {
	c, err := hexColor(s)
	if err != nil {
		c, _ = hexColor(groups.DefaultColor)
	}
	return c
}

func hexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette used by both writers.
var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorText       = color.RGBA{0x1e, 0x29, 0x3b, 0xff}
	colorMuted      = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	colorStroke     = color.RGBA{0x33, 0x41, 0x55, 0xff}
	colorGuide      = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	colorAdmin      = color.RGBA{0xf5, 0x9e, 0x0b, 0xff}
)

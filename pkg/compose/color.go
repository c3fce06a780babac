package compose

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RGB is a parsed background color triple.
type RGB struct {
	R, G, B int
}

// NRGBA converts the triple to a fully opaque color. Components above 255
// saturate rather than wrap.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: clamp8(c.R), G: clamp8(c.G), B: clamp8(c.B), A: 255}
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ParseHex parses a hex color string, with or without a leading '#', into an
// RGB triple. The string is split into three equal-length components, each
// parsed as an independent base-16 integer: "#1a2b3c" gives (26, 43, 60) and
// the short form "fff" gives (15, 15, 15). A length not divisible by 3 is an
// error, never a silent truncation.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 0 || len(hex)%3 != 0 {
		return RGB{}, fmt.Errorf("invalid hex color %q: length must be a positive multiple of 3", s)
	}

	n := len(hex) / 3
	var parts [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(hex[i*n:(i+1)*n], 16, 64)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		parts[i] = int(v)
	}
	return RGB{R: parts[0], G: parts[1], B: parts[2]}, nil
}

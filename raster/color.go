package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"memecanvas/core"
)

// ParseHexColor parses #rgb, #rrggbb and #rrggbbaa notation.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[i*2] = hex[i]
			expanded[i*2+1] = hex[i]
		}
		hex = string(expanded)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, core.ErrInvalidGeometry)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, core.ErrInvalidGeometry)
	}

	if len(hex) == 8 {
		return color.NRGBA{
			R: uint8(v >> 24),
			G: uint8(v >> 16),
			B: uint8(v >> 8),
			A: uint8(v),
		}, nil
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}

// parseColorOr returns the parsed color or the fallback when the value is
// empty or malformed. Background and style colors come from stored scenes,
// so a bad value degrades instead of failing an export.
func parseColorOr(s string, fallback color.NRGBA) color.NRGBA {
	if s == "" {
		return fallback
	}
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}

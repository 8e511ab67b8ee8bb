package geom

import (
	"fmt"
	"math"

	"memecanvas/core"
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FitMode selects how FitScale relates content to its target.
type FitMode int

const (
	// Contain scales content so it fits entirely inside the target.
	Contain FitMode = iota
	// Cover scales content so it fully covers the target.
	Cover
)

// Finite reports whether every value is a usable real number.
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BoundingBox returns the axis-aligned box of content with the given natural
// size after scaling and rotating about its center at (cx, cy). Rotation
// expands the box to its circumscribing rectangle.
func BoundingBox(cx, cy, width, height, scaleX, scaleY, rotationDegrees float64) (Rect, error) {
	if !Finite(cx, cy, width, height, scaleX, scaleY, rotationDegrees) {
		return Rect{}, fmt.Errorf("bounding box with non-finite input: %w", core.ErrInvalidGeometry)
	}
	if scaleX <= 0 || scaleY <= 0 {
		return Rect{}, fmt.Errorf("bounding box with scale (%g, %g): %w", scaleX, scaleY, core.ErrInvalidGeometry)
	}

	w := width * scaleX
	h := height * scaleY
	rad := rotationDegrees * math.Pi / 180
	cos := math.Abs(math.Cos(rad))
	sin := math.Abs(math.Sin(rad))
	bw := w*cos + h*sin
	bh := w*sin + h*cos

	return Rect{
		Left:   cx - bw/2,
		Top:    cy - bh/2,
		Width:  bw,
		Height: bh,
	}, nil
}

// FitScale returns the uniform scalar that fits content into target. Contain
// takes the smaller ratio, Cover the larger.
func FitScale(content, target Size, mode FitMode) (float64, error) {
	if !Finite(content.Width, content.Height, target.Width, target.Height) {
		return 0, fmt.Errorf("fit scale with non-finite size: %w", core.ErrInvalidGeometry)
	}
	if content.Width <= 0 || content.Height <= 0 || target.Width <= 0 || target.Height <= 0 {
		return 0, fmt.Errorf("fit scale with non-positive size: %w", core.ErrInvalidGeometry)
	}

	rx := target.Width / content.Width
	ry := target.Height / content.Height
	if mode == Cover {
		return math.Max(rx, ry), nil
	}
	return math.Min(rx, ry), nil
}

// Snap returns the nearest candidate if it lies within threshold of value,
// otherwise the value unchanged. Used for edge alignment during drags.
func Snap(value float64, candidates []float64, threshold float64) float64 {
	best := value
	bestDist := threshold
	for _, c := range candidates {
		d := math.Abs(value - c)
		if d <= bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

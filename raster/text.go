package raster

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"memecanvas/scene"
)

// renderTextLayer rasterizes a caption into its own layer at natural size.
// The stroke is painted before the fill so the fill sits on top and the
// stroke shows only as an outline.
func renderTextLayer(obj *scene.Object) (*image.RGBA, error) {
	style := obj.Style
	face, err := newFace(style.FontWeight, style.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	lines := strings.Split(obj.Text, "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	measure := font.Drawer{Face: face}
	widths := make([]int, len(lines))
	maxWidth := 1
	for i, line := range lines {
		widths[i] = measure.MeasureString(line).Ceil()
		if widths[i] > maxWidth {
			maxWidth = widths[i]
		}
	}

	strokeRadius := int(math.Ceil(style.StrokeWidth))
	pad := strokeRadius + 2
	layer := image.NewRGBA(image.Rect(0, 0, maxWidth+2*pad, len(lines)*lineHeight+2*pad))

	fill := parseColorOr(style.FillColor, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	stroke := parseColorOr(style.StrokeColor, color.NRGBA{A: 0xff})

	for i, line := range lines {
		if line == "" {
			continue
		}
		var x int
		switch style.Align {
		case "left":
			x = pad
		case "right":
			x = layer.Bounds().Dx() - pad - widths[i]
		default: // center
			x = (layer.Bounds().Dx() - widths[i]) / 2
		}
		y := pad + ascent + i*lineHeight

		drawer := font.Drawer{
			Dst:  layer,
			Face: face,
			Src:  image.NewUniform(stroke),
		}
		// Stroke pass: stamp the glyphs at every integer offset within the
		// stroke radius.
		if strokeRadius > 0 {
			for dy := -strokeRadius; dy <= strokeRadius; dy++ {
				for dx := -strokeRadius; dx <= strokeRadius; dx++ {
					if dx*dx+dy*dy > strokeRadius*strokeRadius {
						continue
					}
					drawer.Dot = fixed.P(x+dx, y+dy)
					drawer.DrawString(line)
				}
			}
		}
		// Fill pass on top.
		drawer.Src = image.NewUniform(fill)
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}

	return layer, nil
}

// measureText returns the natural pixel size a caption occupies, including
// its stroke padding. Matches the layer renderTextLayer allocates.
func measureText(obj *scene.Object) (int, int, error) {
	face, err := newFace(obj.Style.FontWeight, obj.Style.FontSize)
	if err != nil {
		return 0, 0, err
	}
	defer face.Close()

	lines := strings.Split(obj.Text, "\n")
	metrics := face.Metrics()
	measure := font.Drawer{Face: face}
	maxWidth := 1
	for _, line := range lines {
		if w := measure.MeasureString(line).Ceil(); w > maxWidth {
			maxWidth = w
		}
	}
	pad := int(math.Ceil(obj.Style.StrokeWidth)) + 2
	return maxWidth + 2*pad, len(lines)*metrics.Height.Ceil() + 2*pad, nil
}

package raster

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Embedded Go faces keep export deterministic across hosts: every render of
// the same scene shapes glyphs identically, with no system font lookup.
var (
	fontsOnce   sync.Once
	fontRegular *sfnt.Font
	fontBold    *sfnt.Font
	fontItalic  *sfnt.Font
	fontsErr    error
)

func loadFonts() {
	fontsOnce.Do(func() {
		parse := func(ttf []byte) *sfnt.Font {
			if fontsErr != nil {
				return nil
			}
			f, err := opentype.Parse(ttf)
			if err != nil {
				fontsErr = err
				return nil
			}
			return f
		}
		fontRegular = parse(goregular.TTF)
		fontBold = parse(gobold.TTF)
		fontItalic = parse(goitalic.TTF)
	})
}

// newFace returns a face for the given weight at the given pixel size. The
// family name is accepted loosely; anything unknown renders with the regular
// face rather than failing the export.
func newFace(weight string, sizePx float64) (font.Face, error) {
	loadFonts()
	if fontsErr != nil {
		return nil, fmt.Errorf("parse embedded fonts: %w", fontsErr)
	}

	f := fontRegular
	switch weight {
	case "bold", "700", "800", "900":
		f = fontBold
	case "italic":
		f = fontItalic
	}

	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

package scene

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"memecanvas/core"
	"memecanvas/geom"
)

// Kind discriminates the object variants.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// duplicateOffset keeps a clone from exactly occluding its original.
const duplicateOffset = 10

type (
	// Transform places an object on the canvas. X and Y refer to the center
	// of the object's bounding box, so position is independent of content
	// size. Rotation is in degrees, opacity in [0, 1].
	Transform struct {
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		ScaleX   float64 `json:"scaleX"`
		ScaleY   float64 `json:"scaleY"`
		Rotation float64 `json:"rotation"`
		Opacity  float64 `json:"opacity"`
	}

	// TransformPatch is a partial transform. Nil fields keep their current
	// value.
	TransformPatch struct {
		X        *float64 `json:"x,omitempty"`
		Y        *float64 `json:"y,omitempty"`
		ScaleX   *float64 `json:"scaleX,omitempty"`
		ScaleY   *float64 `json:"scaleY,omitempty"`
		Rotation *float64 `json:"rotation,omitempty"`
		Opacity  *float64 `json:"opacity,omitempty"`
	}

	// TextStyle holds the caption look. Colors are #rrggbb or #rrggbbaa hex.
	TextStyle struct {
		FontSize    float64 `json:"fontSize"`
		FontFamily  string  `json:"fontFamily"`
		FontWeight  string  `json:"fontWeight"`
		FillColor   string  `json:"fillColor"`
		StrokeColor string  `json:"strokeColor"`
		StrokeWidth float64 `json:"strokeWidth"`
		Align       string  `json:"align"`
	}

	// StylePatch is a partial text style. Nil fields keep their current
	// value.
	StylePatch struct {
		FontSize    *float64 `json:"fontSize,omitempty"`
		FontFamily  *string  `json:"fontFamily,omitempty"`
		FontWeight  *string  `json:"fontWeight,omitempty"`
		FillColor   *string  `json:"fillColor,omitempty"`
		StrokeColor *string  `json:"strokeColor,omitempty"`
		StrokeWidth *float64 `json:"strokeWidth,omitempty"`
		Align       *string  `json:"align,omitempty"`
	}

	// ImageSource references the bitmap behind an image object. Width and
	// Height are the intrinsic pixel size, zero until the source has been
	// decoded; an undecoded source is present in the graph but paints
	// nothing. Decoded pixels are never held here; the rasterizer resolves
	// the URL at export time.
	ImageSource struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}

	// Object is one visual layer: a text caption or an image. Exactly the
	// fields of the active Kind are set; consumers switch on Kind rather
	// than probing.
	Object struct {
		ID        string       `json:"id"`
		Kind      Kind         `json:"kind"`
		Transform Transform    `json:"transform"`
		Locked    bool         `json:"locked"`
		Visible   bool         `json:"visible"`
		Text      string       `json:"text,omitempty"`
		Style     *TextStyle   `json:"style,omitempty"`
		Image     *ImageSource `json:"image,omitempty"`
	}
)

// DefaultTransform is the placement a new object starts with.
func DefaultTransform(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1, Rotation: 0, Opacity: 1}
}

// DefaultTextStyle is the classic outlined meme caption.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:    48,
		FontFamily:  "sans",
		FontWeight:  "bold",
		FillColor:   "#ffffff",
		StrokeColor: "#000000",
		StrokeWidth: 3,
		Align:       "center",
	}
}

// validateObject checks a decoded object carries the variant fields its kind
// requires and a usable transform. Serialize never emits anything else, but
// blobs also arrive from HTTP clients and stored records, so the constructors
// alone cannot guarantee the invariants.
func validateObject(o *Object) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("object without id: %w", core.ErrInvalidOperation)
	}
	switch o.Kind {
	case KindText:
		if o.Style == nil {
			return fmt.Errorf("text object %s without style: %w", o.ID, core.ErrInvalidOperation)
		}
		if o.Style.FontSize <= 0 || o.Style.StrokeWidth < 0 {
			return fmt.Errorf("text object %s with non-positive font size or negative stroke: %w", o.ID, core.ErrInvalidGeometry)
		}
	case KindImage:
		if o.Image == nil {
			return fmt.Errorf("image object %s without source: %w", o.ID, core.ErrInvalidOperation)
		}
	default:
		return fmt.Errorf("object %s kind %q: %w", o.ID, o.Kind, core.ErrInvalidOperation)
	}
	return validateTransform(o.Transform)
}

func validateTransform(t Transform) error {
	if !geom.Finite(t.X, t.Y, t.ScaleX, t.ScaleY, t.Rotation, t.Opacity) {
		return fmt.Errorf("transform with non-finite value: %w", core.ErrInvalidGeometry)
	}
	if t.ScaleX <= 0 || t.ScaleY <= 0 {
		return fmt.Errorf("scale (%g, %g) must be positive: %w", t.ScaleX, t.ScaleY, core.ErrInvalidGeometry)
	}
	if t.Opacity < 0 || t.Opacity > 1 {
		return fmt.Errorf("opacity %g outside [0, 1]: %w", t.Opacity, core.ErrInvalidGeometry)
	}
	return nil
}

// NewText creates a text object with a fresh ID.
func NewText(content string, style TextStyle, transform Transform) (*Object, error) {
	if err := validateTransform(transform); err != nil {
		return nil, err
	}
	s := style
	return &Object{
		ID:        ulid.Make().String(),
		Kind:      KindText,
		Transform: transform,
		Visible:   true,
		Text:      content,
		Style:     &s,
	}, nil
}

// NewImage creates an image object with a fresh ID. Width and height may be
// zero while the source is still pending decode.
func NewImage(url string, width, height int, transform Transform) (*Object, error) {
	if err := validateTransform(transform); err != nil {
		return nil, err
	}
	return &Object{
		ID:        ulid.Make().String(),
		Kind:      KindImage,
		Transform: transform,
		Visible:   true,
		Image:     &ImageSource{URL: url, Width: width, Height: height},
	}, nil
}

// ApplyTransform merges the provided fields into the object's transform,
// validating the combined result before anything changes.
func (o *Object) ApplyTransform(patch TransformPatch) error {
	if o.Locked {
		return fmt.Errorf("transform object %s: %w", o.ID, core.ErrObjectLocked)
	}

	merged := o.Transform
	if patch.X != nil {
		merged.X = *patch.X
	}
	if patch.Y != nil {
		merged.Y = *patch.Y
	}
	if patch.ScaleX != nil {
		merged.ScaleX = *patch.ScaleX
	}
	if patch.ScaleY != nil {
		merged.ScaleY = *patch.ScaleY
	}
	if patch.Rotation != nil {
		merged.Rotation = *patch.Rotation
	}
	if patch.Opacity != nil {
		merged.Opacity = *patch.Opacity
	}

	if err := validateTransform(merged); err != nil {
		return err
	}
	o.Transform = merged
	return nil
}

// ApplyStyle merges the provided fields into a text object's style.
func (o *Object) ApplyStyle(patch StylePatch) error {
	if o.Kind != KindText {
		return fmt.Errorf("style edit on %s object %s: %w", o.Kind, o.ID, core.ErrInvalidOperation)
	}
	if o.Locked {
		return fmt.Errorf("style object %s: %w", o.ID, core.ErrObjectLocked)
	}

	merged := *o.Style
	if patch.FontSize != nil {
		merged.FontSize = *patch.FontSize
	}
	if patch.FontFamily != nil {
		merged.FontFamily = *patch.FontFamily
	}
	if patch.FontWeight != nil {
		merged.FontWeight = *patch.FontWeight
	}
	if patch.FillColor != nil {
		merged.FillColor = *patch.FillColor
	}
	if patch.StrokeColor != nil {
		merged.StrokeColor = *patch.StrokeColor
	}
	if patch.StrokeWidth != nil {
		merged.StrokeWidth = *patch.StrokeWidth
	}
	if patch.Align != nil {
		merged.Align = *patch.Align
	}

	if merged.FontSize <= 0 || merged.StrokeWidth < 0 {
		return fmt.Errorf("style with non-positive font size or negative stroke: %w", core.ErrInvalidGeometry)
	}
	*o.Style = merged
	return nil
}

// SetLocked toggles the lock flag. Locking itself is always permitted.
func (o *Object) SetLocked(locked bool) {
	o.Locked = locked
}

// SetVisible toggles visibility. Works on locked objects too, since hiding a
// layer is not a geometry edit.
func (o *Object) SetVisible(visible bool) {
	o.Visible = visible
}

// Clone deep-copies the object under a fresh ID, offset by a small fixed
// delta so the duplicate is visibly distinct.
func (o *Object) Clone() *Object {
	dup := *o
	dup.ID = ulid.Make().String()
	dup.Transform.X += duplicateOffset
	dup.Transform.Y += duplicateOffset
	if o.Style != nil {
		s := *o.Style
		dup.Style = &s
	}
	if o.Image != nil {
		img := *o.Image
		dup.Image = &img
	}
	return &dup
}

// BoundingBox returns the object's axis-aligned box after its transform. The
// content size is the intrinsic image size, or an estimate from the text
// metrics for captions.
func (o *Object) BoundingBox() (geom.Rect, error) {
	w, h := o.ContentSize()
	return geom.BoundingBox(
		o.Transform.X, o.Transform.Y,
		w, h,
		o.Transform.ScaleX, o.Transform.ScaleY,
		o.Transform.Rotation,
	)
}

// ContentSize returns the natural (unscaled) size of the object's content.
// Text size is estimated from the font metrics; the rasterizer measures
// precisely at paint time.
func (o *Object) ContentSize() (float64, float64) {
	switch o.Kind {
	case KindImage:
		return float64(o.Image.Width), float64(o.Image.Height)
	case KindText:
		// Rough advance estimate, ~0.6em per glyph, 1.2em line height.
		longest := 0
		lines := 1
		run := 0
		for _, r := range o.Text {
			if r == '\n' {
				lines++
				run = 0
				continue
			}
			run++
			if run > longest {
				longest = run
			}
		}
		return float64(longest) * o.Style.FontSize * 0.6, float64(lines) * o.Style.FontSize * 1.2
	}
	return 0, 0
}

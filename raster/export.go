// Package raster turns a scene graph into encoded image bytes. The pipeline
// is deterministic: the same scene and request always produce the same
// pixels.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"memecanvas/core"
	"memecanvas/geom"
	"memecanvas/scene"
)

// Format is the target encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	// FormatGIF is accepted but shares the lossless single-frame path with
	// PNG. This system never produces multi-frame animation, so the two
	// formats are deliberately not distinguished.
	FormatGIF Format = "gif"
)

// Quality maps to a numeric encoder parameter: low=60, medium=80, high=95.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// OptimizeFor selects the output sizing policy.
type OptimizeFor string

const (
	// OptimizeSocial clamps and centers the output into the nearest known
	// social-platform aspect preset when target dimensions are supplied.
	OptimizeSocial OptimizeFor = "social"
	// OptimizePrint leaves dimensions exactly as requested.
	OptimizePrint OptimizeFor = "print"
)

// Request configures one export. Pure configuration, no identity.
type Request struct {
	Format       Format      `json:"format"`
	Quality      Quality     `json:"quality"`
	OptimizeFor  OptimizeFor `json:"optimizeFor"`
	TargetWidth  int         `json:"targetWidth,omitempty"`
	TargetHeight int         `json:"targetHeight,omitempty"`
}

// Result is the encoded output plus its metadata. Never partial: a failed
// export returns no result at all.
type Result struct {
	Data        []byte
	ContentType string
	Meta        core.ExportMeta
}

// State tracks pipeline progress for logging.
type State int

const (
	StateIdle State = iota
	StateAwaitingAssets
	StateCompositing
	StateEncoding
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAssets:
		return "awaiting-assets"
	case StateCompositing:
		return "compositing"
	case StateEncoding:
		return "encoding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// socialPresets are the known platform output shapes. The clamp picks the
// preset with the closest aspect ratio to the requested size.
var socialPresets = []struct {
	name   string
	w, h   int
	aspect float64
}{
	{"square", 1080, 1080, 1},
	{"portrait", 1080, 1350, 1080.0 / 1350},
	{"story", 1080, 1920, 1080.0 / 1920},
	{"landscape", 1200, 630, 1200.0 / 630},
}

// Exporter runs the export pipeline against one asset resolver.
type Exporter struct {
	resolver Resolver
	timeout  time.Duration
}

// NewExporter creates an exporter. A non-positive timeout falls back to
// DefaultAssetTimeout.
func NewExporter(resolver Resolver, assetTimeout time.Duration) *Exporter {
	if assetTimeout <= 0 {
		assetTimeout = DefaultAssetTimeout
	}
	return &Exporter{resolver: resolver, timeout: assetTimeout}
}

func (q Quality) value() int {
	switch q {
	case QualityLow:
		return 60
	case QualityHigh:
		return 95
	default:
		return 80
	}
}

func (f Format) valid() bool {
	return f == FormatPNG || f == FormatJPG || f == FormatGIF
}

// Export resolves assets, composites the scene and encodes the result.
// Cancellation is honored until compositing begins; after that the pipeline
// runs to completion or failure so no torn buffer can surface.
func (e *Exporter) Export(ctx context.Context, g *scene.Graph, req Request) (*Result, error) {
	if !req.valid() {
		return nil, fmt.Errorf("export format %q: %w", req.Format, core.ErrEncodingError)
	}

	log := logrus.WithFields(logrus.Fields{
		"format":   req.Format,
		"quality":  req.Quality,
		"optimize": req.OptimizeFor,
	})

	log.WithField("state", StateAwaitingAssets).Debug("Export state change")
	assets, err := e.resolveAssets(ctx, g)
	if err != nil {
		log.WithFields(logrus.Fields{"state": StateFailed, "error": err}).Warn("Export failed awaiting assets")
		return nil, err
	}

	// Last cancellation point. Once compositing starts the export runs to
	// completion.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export cancelled: %w", err)
	}

	log.WithField("state", StateCompositing).Debug("Export state change")
	outW, outH := outputSize(g, req)
	surface, err := e.composite(g, assets, outW, outH, req.OptimizeFor)
	if err != nil {
		log.WithFields(logrus.Fields{"state": StateFailed, "error": err}).Error("Export failed compositing")
		return nil, err
	}

	log.WithField("state", StateEncoding).Debug("Export state change")
	result, err := encode(surface, req)
	if err != nil {
		log.WithFields(logrus.Fields{"state": StateFailed, "error": err}).Error("Export failed encoding")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"state":     StateDone,
		"width":     result.Meta.Width,
		"height":    result.Meta.Height,
		"byte_size": result.Meta.ByteSize,
	}).Info("Export finished")
	return result, nil
}

func (r Request) valid() bool {
	return r.Format.valid()
}

// resolveAssets fetches and decodes every image object's source under the
// asset deadline. A source that cannot be decoded fails the export; silently
// omitting a layer would produce a misleading output.
func (e *Exporter) resolveAssets(ctx context.Context, g *scene.Graph) (map[string]image.Image, error) {
	assets := make(map[string]image.Image)

	images := g.Query(func(o *scene.Object) bool { return o.Kind == scene.KindImage })
	if len(images) == 0 {
		return assets, nil
	}
	if e.resolver == nil {
		return nil, fmt.Errorf("no asset resolver configured: %w", core.ErrAssetLoadError)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for _, obj := range images {
		if _, ok := assets[obj.Image.URL]; ok {
			continue
		}
		img, err := e.resolver.Resolve(ctx, obj.Image.URL)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("object %s: %w", obj.ID, core.ErrAssetLoadTimeout)
			}
			return nil, err
		}
		assets[obj.Image.URL] = img
	}
	return assets, nil
}

// outputSize applies the optimizeFor policy. Without explicit target
// dimensions the output matches the canvas.
func outputSize(g *scene.Graph, req Request) (int, int) {
	if req.TargetWidth <= 0 || req.TargetHeight <= 0 {
		return g.Width(), g.Height()
	}
	if req.OptimizeFor != OptimizeSocial {
		return req.TargetWidth, req.TargetHeight
	}

	want := float64(req.TargetWidth) / float64(req.TargetHeight)
	best := socialPresets[0]
	bestDiff := math.Abs(want - best.aspect)
	for _, p := range socialPresets[1:] {
		if d := math.Abs(want - p.aspect); d < bestDiff {
			best = p
			bestDiff = d
		}
	}
	return best.w, best.h
}

// composite paints the scene at canvas size, back to front, then fits the
// result onto the requested output surface.
func (e *Exporter) composite(g *scene.Graph, assets map[string]image.Image, outW, outH int, policy OptimizeFor) (*image.RGBA, error) {
	if outW <= 0 || outH <= 0 || outW > 16384 || outH > 16384 {
		return nil, fmt.Errorf("output size %dx%d: %w", outW, outH, core.ErrEncodingError)
	}

	background := parseColorOr(g.Background(), color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	canvas := image.NewRGBA(image.Rect(0, 0, g.Width(), g.Height()))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)

	for _, obj := range g.Objects() {
		if !obj.Visible {
			continue
		}
		if err := paintObject(canvas, obj, assets); err != nil {
			return nil, err
		}
	}

	if outW == g.Width() && outH == g.Height() {
		return canvas, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)

	// Social presets contain and center the scene; print stretches to the
	// exact requested size.
	dst := out.Bounds()
	if policy != OptimizePrint {
		scale, err := geom.FitScale(
			geom.Size{Width: float64(g.Width()), Height: float64(g.Height())},
			geom.Size{Width: float64(outW), Height: float64(outH)},
			geom.Contain,
		)
		if err != nil {
			return nil, fmt.Errorf("fit scene onto %dx%d: %v: %w", outW, outH, err, core.ErrEncodingError)
		}
		w := int(float64(g.Width()) * scale)
		h := int(float64(g.Height()) * scale)
		x := (outW - w) / 2
		y := (outH - h) / 2
		dst = image.Rect(x, y, x+w, y+h)
	}
	xdraw.ApproxBiLinear.Scale(out, dst, canvas, canvas.Bounds(), xdraw.Over, nil)
	return out, nil
}

// paintObject renders one layer at natural size and maps it onto the canvas
// with translate, rotate, scale about the object's center, in that order.
func paintObject(dst *image.RGBA, obj *scene.Object, assets map[string]image.Image) error {
	var layer image.Image
	switch obj.Kind {
	case scene.KindText:
		l, err := renderTextLayer(obj)
		if err != nil {
			return fmt.Errorf("render text %s: %v: %w", obj.ID, err, core.ErrEncodingError)
		}
		layer = l
	case scene.KindImage:
		img, ok := assets[obj.Image.URL]
		if !ok {
			return fmt.Errorf("object %s source unresolved: %w", obj.ID, core.ErrAssetLoadError)
		}
		layer = img
	default:
		return fmt.Errorf("object %s kind %q: %w", obj.ID, obj.Kind, core.ErrInvalidOperation)
	}

	b := layer.Bounds()
	t := obj.Transform
	m := geom.Translate(t.X, t.Y).
		Multiply(geom.RotateDegrees(t.Rotation)).
		Multiply(geom.Scale(t.ScaleX, t.ScaleY)).
		Multiply(geom.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2))
	aff := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}

	opts := &xdraw.Options{}
	if t.Opacity < 1 {
		opts.SrcMask = image.NewUniform(color.Alpha{A: uint8(t.Opacity*255 + 0.5)})
	}
	xdraw.ApproxBiLinear.Transform(dst, aff, layer, b, xdraw.Over, opts)
	return nil
}

// encode turns the composited surface into bytes. PNG is lossless, so its
// quality knob is reinterpreted as compression effort: low quality means
// optimize for size. GIF requests go through the same lossless path and are
// served as image/png.
func encode(surface *image.RGBA, req Request) (*Result, error) {
	var buf bytes.Buffer
	var contentType string
	format := req.Format

	switch format {
	case FormatJPG:
		contentType = "image/jpeg"
		if err := jpeg.Encode(&buf, surface, &jpeg.Options{Quality: req.Quality.value()}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %v: %w", err, core.ErrEncodingError)
		}
	case FormatPNG, FormatGIF:
		contentType = "image/png"
		level := png.DefaultCompression
		switch req.Quality {
		case QualityLow:
			level = png.BestCompression
		case QualityHigh:
			level = png.BestSpeed
		}
		enc := png.Encoder{CompressionLevel: level}
		if err := enc.Encode(&buf, surface); err != nil {
			return nil, fmt.Errorf("png encode: %v: %w", err, core.ErrEncodingError)
		}
	default:
		return nil, fmt.Errorf("format %q: %w", format, core.ErrEncodingError)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Meta: core.ExportMeta{
			Width:    surface.Bounds().Dx(),
			Height:   surface.Bounds().Dy(),
			Format:   string(format),
			ByteSize: buf.Len(),
		},
	}, nil
}

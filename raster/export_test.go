package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"memecanvas/core"
	"memecanvas/scene"
)

// stubResolver serves fixed in-memory images; with block set it hangs until
// the context expires.
type stubResolver struct {
	imgs  map[string]image.Image
	block bool
}

func (r *stubResolver) Resolve(ctx context.Context, url string) (image.Image, error) {
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	img, ok := r.imgs[url]
	if !ok {
		return nil, errors.New("unknown url: " + url)
	}
	return img, nil
}

func solid(c color.NRGBA, w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
)

func newExportGraph(t *testing.T, background string) *scene.Graph {
	t.Helper()
	g, err := scene.NewGraph(500, 500, background)
	if err != nil {
		t.Fatalf("NewGraph() failed: %v", err)
	}
	return g
}

func addImageLayer(t *testing.T, g *scene.Graph, url string) *scene.Object {
	t.Helper()
	obj, err := scene.NewImage(url, 100, 100, scene.DefaultTransform(250, 250))
	if err != nil {
		t.Fatalf("NewImage() failed: %v", err)
	}
	g.Append(obj)
	return obj
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding export output: %v", err)
	}
	return img
}

func near(got uint32, want uint8, slack int) bool {
	d := int(got>>8) - int(want)
	if d < 0 {
		d = -d
	}
	return d <= slack
}

func TestExport_PaintOrder(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	addImageLayer(t, g, "a")
	addImageLayer(t, g, "b") // appended last, paints on top

	resolver := &stubResolver{imgs: map[string]image.Image{
		"a": solid(red, 100, 100),
		"b": solid(blue, 100, 100),
	}}
	exp := NewExporter(resolver, 0)

	res, err := exp.Export(context.Background(), g, Request{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := decodePNG(t, res.Data)

	r, gr, b, _ := out.At(250, 250).RGBA()
	if !near(r, 0, 8) || !near(gr, 0, 8) || !near(b, 0xff, 8) {
		t.Errorf("center pixel = (%d,%d,%d), want the top layer's blue", r>>8, gr>>8, b>>8)
	}
	r, gr, b, _ = out.At(10, 10).RGBA()
	if !near(r, 0xff, 8) || !near(gr, 0xff, 8) || !near(b, 0xff, 8) {
		t.Errorf("corner pixel = (%d,%d,%d), want white background", r>>8, gr>>8, b>>8)
	}
}

func TestExport_HiddenLayerSkipped(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	obj := addImageLayer(t, g, "a")
	obj.SetVisible(false)

	resolver := &stubResolver{imgs: map[string]image.Image{"a": solid(red, 100, 100)}}
	exp := NewExporter(resolver, 0)

	res, err := exp.Export(context.Background(), g, Request{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := decodePNG(t, res.Data)

	r, gr, b, _ := out.At(250, 250).RGBA()
	if !near(r, 0xff, 8) || !near(gr, 0xff, 8) || !near(b, 0xff, 8) {
		t.Errorf("hidden layer painted: center = (%d,%d,%d)", r>>8, gr>>8, b>>8)
	}
}

func TestExport_OpacityBlends(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	obj := addImageLayer(t, g, "a")
	obj.Transform.Opacity = 0.5

	resolver := &stubResolver{imgs: map[string]image.Image{"a": solid(red, 100, 100)}}
	exp := NewExporter(resolver, 0)

	res, err := exp.Export(context.Background(), g, Request{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := decodePNG(t, res.Data)

	// Half red over white lands near (255,128,128).
	r, gr, b, _ := out.At(250, 250).RGBA()
	if !near(r, 0xff, 8) || !near(gr, 0x80, 24) || !near(b, 0x80, 24) {
		t.Errorf("center pixel = (%d,%d,%d), want half-transparent red over white", r>>8, gr>>8, b>>8)
	}
}

func TestExport_CaptionPixels(t *testing.T) {
	g := newExportGraph(t, "#336699")
	style := scene.DefaultTextStyle()
	obj, err := scene.NewText("TOP TEXT", style, scene.DefaultTransform(250, 60))
	if err != nil {
		t.Fatalf("NewText() failed: %v", err)
	}
	g.Append(obj)

	exp := NewExporter(nil, 0)
	res, err := exp.Export(context.Background(), g, Request{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := decodePNG(t, res.Data)

	// The caption paints a white fill over a black stroke near the top; the
	// background carries neither color, so finding both proves the glyphs
	// and their outline landed.
	foundFill, foundStroke := false, false
	for y := 0; y < 150 && !(foundFill && foundStroke); y++ {
		for x := 0; x < 500; x++ {
			r, gr, b, _ := out.At(x, y).RGBA()
			if near(r, 0xff, 16) && near(gr, 0xff, 16) && near(b, 0xff, 16) {
				foundFill = true
			}
			if near(r, 0, 16) && near(gr, 0, 16) && near(b, 0, 16) {
				foundStroke = true
			}
		}
	}
	if !foundFill {
		t.Error("no white fill pixels found in the caption band")
	}
	if !foundStroke {
		t.Error("no black stroke pixels found in the caption band")
	}
}

func TestExport_SocialClampsToPreset(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	exp := NewExporter(nil, 0)

	res, err := exp.Export(context.Background(), g, Request{
		Format:       FormatJPG,
		Quality:      QualityHigh,
		OptimizeFor:  OptimizeSocial,
		TargetWidth:  1000,
		TargetHeight: 1000,
	})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if res.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", res.ContentType)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decoding jpeg output: %v", err)
	}
	if cfg.Width != 1080 || cfg.Height != 1080 {
		t.Errorf("output = %dx%d, want square preset 1080x1080", cfg.Width, cfg.Height)
	}
}

func TestExport_PrintKeepsExactDimensions(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	exp := NewExporter(nil, 0)

	res, err := exp.Export(context.Background(), g, Request{
		Format:       FormatPNG,
		OptimizeFor:  OptimizePrint,
		TargetWidth:  300,
		TargetHeight: 200,
	})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if res.Meta.Width != 300 || res.Meta.Height != 200 {
		t.Errorf("meta = %dx%d, want requested 300x200", res.Meta.Width, res.Meta.Height)
	}
}

func TestExport_PrintStretchesToTarget(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	obj, err := scene.NewImage("a", 100, 100, scene.DefaultTransform(50, 250))
	if err != nil {
		t.Fatalf("NewImage() failed: %v", err)
	}
	g.Append(obj)

	resolver := &stubResolver{imgs: map[string]image.Image{"a": solid(red, 100, 100)}}
	exp := NewExporter(resolver, 0)

	res, err := exp.Export(context.Background(), g, Request{
		Format:       FormatPNG,
		OptimizeFor:  OptimizePrint,
		TargetWidth:  1000,
		TargetHeight: 500,
	})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := decodePNG(t, res.Data)

	// Stretching doubles the horizontal scale, so the layer at canvas x 0..100
	// covers output x 0..200. A contain fit would center the scene and leave
	// this pixel on the white background.
	r, _, _, _ := out.At(150, 250).RGBA()
	if !near(r, 0xff, 8) {
		t.Errorf("pixel (150,250) red channel = %#x, want stretched layer red", r>>8)
	}
	_, g2, b, _ := out.At(150, 250).RGBA()
	if near(g2, 0xff, 8) && near(b, 0xff, 8) {
		t.Error("pixel (150,250) is background white, scene was letterboxed instead of stretched")
	}
}

func TestExport_GifServedAsPNG(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	exp := NewExporter(nil, 0)

	res, err := exp.Export(context.Background(), g, Request{Format: FormatGIF})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if res.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", res.ContentType)
	}
	if _, err := png.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Errorf("gif request did not produce decodable png: %v", err)
	}
}

func TestExport_InvalidFormat(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	exp := NewExporter(nil, 0)

	if _, err := exp.Export(context.Background(), g, Request{Format: "bmp"}); !errors.Is(err, core.ErrEncodingError) {
		t.Errorf("Export() error = %v, want ErrEncodingError", err)
	}
}

func TestExport_AssetTimeoutThenRecovery(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	addImageLayer(t, g, "a")

	resolver := &stubResolver{
		imgs:  map[string]image.Image{"a": solid(red, 100, 100)},
		block: true,
	}
	exp := NewExporter(resolver, 50*time.Millisecond)

	if _, err := exp.Export(context.Background(), g, Request{Format: FormatPNG}); !errors.Is(err, core.ErrAssetLoadTimeout) {
		t.Fatalf("Export() error = %v, want ErrAssetLoadTimeout", err)
	}

	// The scene stays exportable once the source becomes reachable.
	resolver.block = false
	if _, err := exp.Export(context.Background(), g, Request{Format: FormatPNG}); err != nil {
		t.Fatalf("Export() after recovery failed: %v", err)
	}
}

func TestExport_UnresolvedSourceFails(t *testing.T) {
	g := newExportGraph(t, "#ffffff")
	addImageLayer(t, g, "missing")

	resolver := &stubResolver{imgs: map[string]image.Image{}}
	exp := NewExporter(resolver, 0)

	if _, err := exp.Export(context.Background(), g, Request{Format: FormatPNG}); err == nil {
		t.Fatal("Export() with unresolvable source succeeded")
	}
}

// Package editor orchestrates the scene graph, undo history and export
// pipeline behind the operation surface the UI drives.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/geom"
	"memecanvas/history"
	"memecanvas/raster"
	"memecanvas/scene"
)

// Placement names the z-order moves the layer panel offers.
type Placement int

const (
	ToFront Placement = iota
	ToBack
	Forward
	Backward
)

// Config sets up a session. Zero values fall back to a 800x600 white canvas
// with default history depth.
type Config struct {
	Width        int
	Height       int
	Background   string
	HistoryLimit int
	Resolver     raster.Resolver
	AssetTimeout time.Duration
}

// Session owns one scene graph and one history. Every mutating operation
// commits history exactly once on success and leaves all state unchanged on
// failure. A session is single-caller; graphs are never shared between
// sessions.
type Session struct {
	graph    *scene.Graph
	hist     *history.History
	exporter *raster.Exporter
	resolver raster.Resolver
}

// NewSession creates a session with an empty canvas and the initial state
// committed as the undo baseline.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Background == "" {
		cfg.Background = "#ffffff"
	}

	g, err := scene.NewGraph(cfg.Width, cfg.Height, cfg.Background)
	if err != nil {
		return nil, err
	}

	s := &Session{
		graph:    g,
		hist:     history.New(cfg.HistoryLimit),
		exporter: raster.NewExporter(cfg.Resolver, cfg.AssetTimeout),
		resolver: cfg.Resolver,
	}
	if err := s.commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds a session from a SerializeForPersistence blob. The
// restored state becomes the new undo baseline; history does not survive
// persistence.
func Restore(blob []byte, cfg Config) (*Session, error) {
	g, err := scene.Deserialize(blob)
	if err != nil {
		return nil, err
	}

	s := &Session{
		graph:    g,
		hist:     history.New(cfg.HistoryLimit),
		exporter: raster.NewExporter(cfg.Resolver, cfg.AssetTimeout),
		resolver: cfg.Resolver,
	}
	if err := s.commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// Graph exposes the scene for read-only inspection.
func (s *Session) Graph() *scene.Graph { return s.graph }

func (s *Session) commit() error {
	snap, err := s.graph.Serialize()
	if err != nil {
		return err
	}
	s.hist.Commit(snap)
	return nil
}

// AddText appends a caption as the front-most layer and selects it.
func (s *Session) AddText(content string, style scene.TextStyle, at scene.Transform) (*scene.Object, error) {
	obj, err := scene.NewText(content, style, at)
	if err != nil {
		return nil, err
	}
	s.graph.Append(obj)
	_ = s.graph.SetActive(obj.ID)
	if err := s.commit(); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"object_id": obj.ID, "kind": obj.Kind}).Debug("Object added")
	return obj, nil
}

// AddImage appends an image layer and selects it. The intrinsic size is
// established by decoding the source; if the source cannot be resolved the
// object is still added in a pending state; editing continues and only
// export forces resolution.
func (s *Session) AddImage(ctx context.Context, url string, at scene.Transform) (*scene.Object, error) {
	width, height := 0, 0
	if s.resolver != nil {
		img, err := s.resolver.Resolve(ctx, url)
		if err != nil {
			logrus.WithFields(logrus.Fields{"url": url, "error": err}).Warn("Image source pending, added without intrinsic size")
		} else {
			b := img.Bounds()
			width, height = b.Dx(), b.Dy()
		}
	}
	return s.AddImageSized(url, width, height, at)
}

// AddImageSized appends an image layer whose intrinsic size is already
// known, as after an upload.
func (s *Session) AddImageSized(url string, width, height int, at scene.Transform) (*scene.Object, error) {
	obj, err := scene.NewImage(url, width, height, at)
	if err != nil {
		return nil, err
	}
	s.graph.Append(obj)
	_ = s.graph.SetActive(obj.ID)
	if err := s.commit(); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"object_id": obj.ID, "kind": obj.Kind, "url": url}).Debug("Object added")
	return obj, nil
}

// SelectObject marks an object as the active selection. Selection is not a
// scene mutation; it does not commit history.
func (s *Session) SelectObject(id string) error {
	return s.graph.SetActive(id)
}

// ClearSelection drops the active selection.
func (s *Session) ClearSelection() {
	_ = s.graph.SetActive("")
}

func (s *Session) active() (*scene.Object, error) {
	obj := s.graph.Active()
	if obj == nil {
		return nil, fmt.Errorf("no active object: %w", core.ErrNotFound)
	}
	return obj, nil
}

// TransformActive merges a partial transform into the selected object and
// commits one history step.
func (s *Session) TransformActive(patch scene.TransformPatch) error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	if err := obj.ApplyTransform(patch); err != nil {
		return err
	}
	return s.commit()
}

// PreviewTransformActive applies a transform without committing history.
// Interactive drags preview per frame and commit once on release through
// EndInteraction, so one undo step stays one user-perceived action.
func (s *Session) PreviewTransformActive(patch scene.TransformPatch) error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	return obj.ApplyTransform(patch)
}

// EndInteraction commits the state reached through previews as a single
// history step.
func (s *Session) EndInteraction() error {
	return s.commit()
}

// SnapActive aligns the active object's center to nearby canvas guides (the
// edges and center lines) within threshold pixels. Preview-stage like
// PreviewTransformActive; the enclosing drag commits through EndInteraction.
func (s *Session) SnapActive(threshold float64) error {
	obj, err := s.active()
	if err != nil {
		return err
	}

	w := float64(s.graph.Width())
	h := float64(s.graph.Height())
	x := geom.Snap(obj.Transform.X, []float64{0, w / 2, w}, threshold)
	y := geom.Snap(obj.Transform.Y, []float64{0, h / 2, h}, threshold)
	if x == obj.Transform.X && y == obj.Transform.Y {
		return nil
	}
	return obj.ApplyTransform(scene.TransformPatch{X: &x, Y: &y})
}

// SetStyleActive merges a partial text style into the selected object.
func (s *Session) SetStyleActive(patch scene.StylePatch) error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	if err := obj.ApplyStyle(patch); err != nil {
		return err
	}
	return s.commit()
}

// DeleteActive removes the selected object.
func (s *Session) DeleteActive() error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	if err := s.graph.Remove(obj.ID); err != nil {
		return err
	}
	return s.commit()
}

// DuplicateActive clones the selected object, appends the clone front-most
// and selects it.
func (s *Session) DuplicateActive() (*scene.Object, error) {
	obj, err := s.active()
	if err != nil {
		return nil, err
	}
	dup := obj.Clone()
	s.graph.Append(dup)
	_ = s.graph.SetActive(dup.ID)
	if err := s.commit(); err != nil {
		return nil, err
	}
	return dup, nil
}

// ReorderActive moves the selected object in the paint order.
func (s *Session) ReorderActive(where Placement) error {
	obj, err := s.active()
	if err != nil {
		return err
	}

	switch where {
	case ToFront:
		err = s.graph.BringToFront(obj.ID)
	case ToBack:
		err = s.graph.SendToBack(obj.ID)
	case Forward:
		err = s.graph.BringForward(obj.ID)
	case Backward:
		err = s.graph.SendBackward(obj.ID)
	default:
		return fmt.Errorf("placement %d: %w", where, core.ErrInvalidOperation)
	}
	if err != nil {
		return err
	}
	return s.commit()
}

// SetLockedActive toggles the lock on the selected object.
func (s *Session) SetLockedActive(locked bool) error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	obj.SetLocked(locked)
	return s.commit()
}

// SetVisibleActive toggles visibility on the selected object. Works on
// locked objects.
func (s *Session) SetVisibleActive(visible bool) error {
	obj, err := s.active()
	if err != nil {
		return err
	}
	obj.SetVisible(visible)
	return s.commit()
}

// SetCanvasSize changes the output dimensions without rescaling object
// coordinates.
func (s *Session) SetCanvasSize(width, height int) error {
	if err := s.graph.SetCanvasDimensions(width, height); err != nil {
		return err
	}
	return s.commit()
}

// SetBackground changes the canvas background color.
func (s *Session) SetBackground(color string) error {
	s.graph.SetBackground(color)
	return s.commit()
}

// Clear removes every object and resets the background.
func (s *Session) Clear() error {
	s.graph.Clear()
	return s.commit()
}

// Undo steps back one committed mutation. Returns core.ErrUnavailable when
// already at the oldest retained state.
func (s *Session) Undo() error {
	snap, err := s.hist.Undo()
	if err != nil {
		return err
	}
	g, err := scene.Deserialize(snap)
	if err != nil {
		return err
	}
	s.graph = g
	return nil
}

// Redo steps forward one undone mutation.
func (s *Session) Redo() error {
	snap, err := s.hist.Redo()
	if err != nil {
		return err
	}
	g, err := scene.Deserialize(snap)
	if err != nil {
		return err
	}
	s.graph = g
	return nil
}

// CanUndo reports whether Undo would succeed.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Export renders the scene to encoded bytes. The graph is left untouched
// whether the export succeeds or fails.
func (s *Session) Export(ctx context.Context, req raster.Request) (*raster.Result, error) {
	return s.exporter.Export(ctx, s.graph, req)
}

// SerializeForPersistence returns the opaque scene blob the meme store keeps.
func (s *Session) SerializeForPersistence() ([]byte, error) {
	return s.graph.Serialize()
}

package scene

import (
	"errors"
	"testing"

	"memecanvas/core"
)

func f(v float64) *float64 { return &v }

func newTestText(t *testing.T) *Object {
	t.Helper()
	obj, err := NewText("HELLO", DefaultTextStyle(), DefaultTransform(100, 100))
	if err != nil {
		t.Fatalf("NewText() failed: %v", err)
	}
	return obj
}

func TestNewText_AssignsID(t *testing.T) {
	a := newTestText(t)
	b := newTestText(t)
	if a.ID == "" || b.ID == "" {
		t.Fatal("NewText() returned empty ID")
	}
	if a.ID == b.ID {
		t.Error("NewText() reused an ID")
	}
	if !a.Visible {
		t.Error("new object should be visible")
	}
}

func TestNewText_RejectsBadTransform(t *testing.T) {
	tr := DefaultTransform(0, 0)
	tr.Opacity = 1.5
	if _, err := NewText("x", DefaultTextStyle(), tr); !errors.Is(err, core.ErrInvalidGeometry) {
		t.Errorf("NewText() error = %v, want ErrInvalidGeometry", err)
	}
}

func TestApplyTransform_MergesPartial(t *testing.T) {
	obj := newTestText(t)
	if err := obj.ApplyTransform(TransformPatch{X: f(50), Rotation: f(30)}); err != nil {
		t.Fatalf("ApplyTransform() failed: %v", err)
	}
	if obj.Transform.X != 50 || obj.Transform.Y != 100 || obj.Transform.Rotation != 30 {
		t.Errorf("ApplyTransform() = %+v, want merged fields only", obj.Transform)
	}
}

func TestApplyTransform_DegenerateRejected(t *testing.T) {
	cases := []struct {
		name  string
		patch TransformPatch
	}{
		{"zero scale", TransformPatch{ScaleX: f(0)}},
		{"negative scale", TransformPatch{ScaleX: f(-1)}},
		{"opacity above one", TransformPatch{Opacity: f(1.5)}},
	}
	for _, tc := range cases {
		obj := newTestText(t)
		before := obj.Transform
		if err := obj.ApplyTransform(tc.patch); !errors.Is(err, core.ErrInvalidGeometry) {
			t.Errorf("%s: ApplyTransform() error = %v, want ErrInvalidGeometry", tc.name, err)
		}
		if obj.Transform != before {
			t.Errorf("%s: object changed on rejected transform", tc.name)
		}
	}
}

func TestApplyTransform_Locked(t *testing.T) {
	obj := newTestText(t)
	obj.SetLocked(true)
	if err := obj.ApplyTransform(TransformPatch{X: f(1)}); !errors.Is(err, core.ErrObjectLocked) {
		t.Errorf("ApplyTransform() error = %v, want ErrObjectLocked", err)
	}
	if obj.Transform.X != 100 {
		t.Error("locked object was mutated")
	}
}

func TestApplyStyle_TextOnly(t *testing.T) {
	img, err := NewImage("/api/v1/assets/x", 10, 10, DefaultTransform(0, 0))
	if err != nil {
		t.Fatalf("NewImage() failed: %v", err)
	}
	fill := "#ff0000"
	if err := img.ApplyStyle(StylePatch{FillColor: &fill}); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("ApplyStyle() on image error = %v, want ErrInvalidOperation", err)
	}
}

func TestApplyStyle_Locked(t *testing.T) {
	obj := newTestText(t)
	obj.SetLocked(true)
	fill := "#ff0000"
	if err := obj.ApplyStyle(StylePatch{FillColor: &fill}); !errors.Is(err, core.ErrObjectLocked) {
		t.Errorf("ApplyStyle() error = %v, want ErrObjectLocked", err)
	}
}

func TestSetVisible_WorksWhenLocked(t *testing.T) {
	obj := newTestText(t)
	obj.SetLocked(true)
	obj.SetVisible(false)
	if obj.Visible {
		t.Error("SetVisible() should succeed on a locked object")
	}
}

func TestClone_FreshIDAndOffset(t *testing.T) {
	obj := newTestText(t)
	dup := obj.Clone()

	if dup.ID == obj.ID {
		t.Error("Clone() kept the original ID")
	}
	if dup.Transform.X != obj.Transform.X+10 || dup.Transform.Y != obj.Transform.Y+10 {
		t.Errorf("Clone() offset = (%g, %g), want +10 each", dup.Transform.X-obj.Transform.X, dup.Transform.Y-obj.Transform.Y)
	}
	if dup.Text != obj.Text {
		t.Error("Clone() lost content")
	}

	// The style must be a deep copy, not shared.
	dup.Style.FillColor = "#123456"
	if obj.Style.FillColor == "#123456" {
		t.Error("Clone() shares style with the original")
	}
}

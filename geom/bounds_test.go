package geom

import (
	"errors"
	"math"
	"testing"

	"memecanvas/core"
)

func TestBoundingBox_NoRotation(t *testing.T) {
	r, err := BoundingBox(100, 100, 80, 40, 1, 1, 0)
	if err != nil {
		t.Fatalf("BoundingBox() failed: %v", err)
	}
	if r.Left != 60 || r.Top != 80 || r.Width != 80 || r.Height != 40 {
		t.Errorf("BoundingBox() = %+v, want {60 80 80 40}", r)
	}
}

func TestBoundingBox_Scaled(t *testing.T) {
	r, err := BoundingBox(0, 0, 100, 100, 2, 0.5, 0)
	if err != nil {
		t.Fatalf("BoundingBox() failed: %v", err)
	}
	if r.Width != 200 || r.Height != 50 {
		t.Errorf("BoundingBox() size = %gx%g, want 200x50", r.Width, r.Height)
	}
}

func TestBoundingBox_Rotation90(t *testing.T) {
	r, err := BoundingBox(0, 0, 80, 40, 1, 1, 90)
	if err != nil {
		t.Fatalf("BoundingBox() failed: %v", err)
	}
	// Width and height swap at 90 degrees.
	if math.Abs(r.Width-40) > 1e-9 || math.Abs(r.Height-80) > 1e-9 {
		t.Errorf("BoundingBox() size = %gx%g, want 40x80", r.Width, r.Height)
	}
}

func TestBoundingBox_Rotation45Expands(t *testing.T) {
	r, err := BoundingBox(0, 0, 100, 100, 1, 1, 45)
	if err != nil {
		t.Fatalf("BoundingBox() failed: %v", err)
	}
	want := 100 * math.Sqrt2
	if math.Abs(r.Width-want) > 1e-9 || math.Abs(r.Height-want) > 1e-9 {
		t.Errorf("BoundingBox() size = %gx%g, want %gx%g", r.Width, r.Height, want, want)
	}
}

func TestBoundingBox_InvalidInput(t *testing.T) {
	cases := []struct {
		name                   string
		scaleX, scaleY, degree float64
	}{
		{"zero scale", 0, 1, 0},
		{"negative scale", -1, 1, 0},
		{"nan rotation", 1, 1, math.NaN()},
	}
	for _, tc := range cases {
		if _, err := BoundingBox(0, 0, 10, 10, tc.scaleX, tc.scaleY, tc.degree); !errors.Is(err, core.ErrInvalidGeometry) {
			t.Errorf("%s: BoundingBox() error = %v, want ErrInvalidGeometry", tc.name, err)
		}
	}
}

func TestFitScale_Contain(t *testing.T) {
	s, err := FitScale(Size{Width: 200, Height: 100}, Size{Width: 100, Height: 100}, Contain)
	if err != nil {
		t.Fatalf("FitScale() failed: %v", err)
	}
	if s != 0.5 {
		t.Errorf("FitScale(contain) = %g, want 0.5", s)
	}
}

func TestFitScale_Cover(t *testing.T) {
	s, err := FitScale(Size{Width: 200, Height: 100}, Size{Width: 100, Height: 100}, Cover)
	if err != nil {
		t.Fatalf("FitScale() failed: %v", err)
	}
	if s != 1 {
		t.Errorf("FitScale(cover) = %g, want 1", s)
	}
}

func TestFitScale_InvalidSize(t *testing.T) {
	if _, err := FitScale(Size{Width: 0, Height: 100}, Size{Width: 100, Height: 100}, Contain); !errors.Is(err, core.ErrInvalidGeometry) {
		t.Errorf("FitScale() error = %v, want ErrInvalidGeometry", err)
	}
}

func TestSnap_WithinThreshold(t *testing.T) {
	got := Snap(98, []float64{0, 100, 200}, 5)
	if got != 100 {
		t.Errorf("Snap(98) = %g, want 100", got)
	}
}

func TestSnap_OutsideThreshold(t *testing.T) {
	got := Snap(90, []float64{0, 100, 200}, 5)
	if got != 90 {
		t.Errorf("Snap(90) = %g, want 90 unchanged", got)
	}
}

func TestSnap_PicksNearest(t *testing.T) {
	got := Snap(103, []float64{100, 105}, 10)
	if got != 105 {
		t.Errorf("Snap(103) = %g, want nearest candidate 105", got)
	}
}

func TestMatrix_TranslateRotateScale(t *testing.T) {
	m := Translate(10, 20).Multiply(RotateDegrees(90)).Multiply(Scale(2, 2))
	p := m.TransformPoint(Point{X: 1, Y: 0})
	// Scale doubles to (2,0), 90-degree rotation sends it to (0,2), then the
	// translation lands at (10,22).
	if math.Abs(p.X-10) > 1e-9 || math.Abs(p.Y-22) > 1e-9 {
		t.Errorf("TransformPoint() = (%g, %g), want (10, 22)", p.X, p.Y)
	}
}

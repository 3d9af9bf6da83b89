package diffobj

import (
	"math"
	"testing"
)

func nearVec(a, b Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestLinearCurveLength(t *testing.T) {
	tests := []struct {
		pixelLength float64
		length      float64
		end         Vec
	}{
		{50, 50, Vec{50, 0}},
		{150, 150, Vec{150, 0}}, // extended past the last control point
		{0, 100, Vec{100, 0}},
		{-20, 100, Vec{100, 0}},
	}
	for _, tt := range tests {
		c := NewCurve('L', []Vec{{0, 0}, {100, 0}}, tt.pixelLength)
		if math.Abs(c.Length()-tt.length) > 1e-9 {
			t.Errorf("pixel length %v: length = %v", tt.pixelLength, c.Length())
		}
		if got := c.PointAt(1); !nearVec(got, tt.end, 1e-9) {
			t.Errorf("pixel length %v: end = %v", tt.pixelLength, got)
		}
	}
}

func TestPerfectCurve(t *testing.T) {
	c := NewCurve('P', []Vec{{0, 0}, {50, 50}, {100, 0}}, 0)
	if math.Abs(c.Length()-50*math.Pi) > 0.5 {
		t.Errorf("length = %v", c.Length())
	}
	if got := c.PointAt(0.5); !nearVec(got, Vec{50, 50}, 0.5) {
		t.Errorf("middle = %v", got)
	}
	if got := c.PointAt(1); !nearVec(got, Vec{100, 0}, 1e-6) {
		t.Errorf("end = %v", got)
	}
}

func TestPerfectCurveFallsBackToBezier(t *testing.T) {
	collinear := NewCurve('P', []Vec{{0, 0}, {50, 0}, {100, 0}}, 0)
	if math.Abs(collinear.Length()-100) > 1e-9 {
		t.Errorf("collinear length = %v", collinear.Length())
	}
	four := NewCurve('P', []Vec{{0, 0}, {0, 100}, {100, 100}, {100, 0}}, 0)
	if got := four.PointAt(1); !nearVec(got, Vec{100, 0}, 1e-6) {
		t.Errorf("four point end = %v", got)
	}
}

func TestBezierRedAnchor(t *testing.T) {
	c := NewCurve('B', []Vec{{0, 0}, {100, 0}, {100, 0}, {100, 100}}, 200)
	if got := c.PointAt(0.5); !nearVec(got, Vec{100, 0}, 1e-6) {
		t.Errorf("corner = %v", got)
	}
	if got := c.PointAt(0.75); !nearVec(got, Vec{100, 50}, 1e-6) {
		t.Errorf("three quarters = %v", got)
	}
}

func TestCatmullCurve(t *testing.T) {
	c := NewCurve('C', []Vec{{0, 0}, {100, 0}, {200, 0}}, 0)
	if math.Abs(c.Length()-200) > 1e-6 {
		t.Errorf("length = %v", c.Length())
	}
	if got := c.PointAt(1); !nearVec(got, Vec{200, 0}, 1e-6) {
		t.Errorf("end = %v", got)
	}
}

func TestCurveTranslate(t *testing.T) {
	c := NewCurve('L', []Vec{{10, 10}, {110, 10}}, 100)
	c.Translate(6.4)
	if got := c.PointAt(0); !nearVec(got, Vec{3.6, 3.6}, 1e-9) {
		t.Errorf("stacked head = %v", got)
	}
	if got := c.OriginalPointAt(0); got != (Vec{10, 10}) {
		t.Errorf("original head = %v", got)
	}

	// translating again replaces the earlier offset
	c.Translate(0)
	if got := c.PointAt(1); !nearVec(got, Vec{110, 10}, 1e-9) {
		t.Errorf("reset tail = %v", got)
	}
}

func TestDegenerateCurve(t *testing.T) {
	c := NewCurve('B', []Vec{{5, 5}, {5, 5}}, 100)
	if c.Length() != 0 {
		t.Errorf("length = %v", c.Length())
	}
	if got := c.PointAt(1); got != (Vec{5, 5}) {
		t.Errorf("end = %v", got)
	}
}

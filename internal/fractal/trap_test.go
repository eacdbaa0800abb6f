package fractal

import (
	"math"
	"testing"

	"github.com/frxplorer/api/internal/model"
)

const trapTol = 1e-12

func TestTrap_None(t *testing.T) {
	trap := NewTrap(&model.FractalParams{TrapType: model.TrapNone})
	if trap.Enabled() {
		t.Error("none trap should be disabled")
	}
	trap = NewTrap(&model.FractalParams{})
	if trap.Enabled() {
		t.Error("empty trap type should be disabled")
	}
}

func TestTrap_Point(t *testing.T) {
	trap := NewTrap(&model.FractalParams{TrapType: model.TrapPoint, TrapX1: 2, TrapY1: 0})
	if !trap.Enabled() {
		t.Fatal("point trap should be enabled")
	}
	cases := []struct {
		x, y, want float64
	}{
		{2, 0, 0},
		{2, 1, 1},
		{0, 0, 2},
		{3, 1, math.Sqrt2},
	}
	for _, tc := range cases {
		if got := trap.Distance(tc.x, tc.y); math.Abs(got-tc.want) > trapTol {
			t.Errorf("distance(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestTrap_Segment(t *testing.T) {
	trap := NewTrap(&model.FractalParams{
		TrapType: model.TrapSegment,
		TrapX1:   0, TrapY1: 0,
		TrapX2: 2, TrapY2: 0,
	})
	cases := []struct {
		x, y, want float64
	}{
		{1, 0, 0},   // on the segment
		{1, 1, 1},   // perpendicular projection
		{3, 0, 1},   // clamped to far endpoint
		{-1, 0, 1},  // clamped to near endpoint
		{-3, -4, 5}, // clamped, diagonal
	}
	for _, tc := range cases {
		if got := trap.Distance(tc.x, tc.y); math.Abs(got-tc.want) > trapTol {
			t.Errorf("distance(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestTrap_Circle(t *testing.T) {
	trap := NewTrap(&model.FractalParams{
		TrapType: model.TrapCircle,
		TrapX1:   0, TrapY1: 0,
		TrapX2: 1, // radius
	})
	cases := []struct {
		x, y, want float64
	}{
		{1, 0, 0},     // on the ring
		{2, 0, 1},     // outside
		{0, 0, 1},     // center is a full radius away
		{0.5, 0, 0.5}, // inside
	}
	for _, tc := range cases {
		if got := trap.Distance(tc.x, tc.y); math.Abs(got-tc.want) > trapTol {
			t.Errorf("distance(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestTrap_Triangle(t *testing.T) {
	trap := NewTrap(&model.FractalParams{
		TrapType: model.TrapTriangle,
		TrapX1:   0, TrapY1: 0,
		TrapX2: 2, TrapY2: 0,
		TrapX3: 0, TrapY3: 2,
	})
	cases := []struct {
		x, y, want float64
	}{
		{0, 0, 0},       // vertex
		{1, 0, 0},       // on an edge
		{1, -1, 1},      // below the bottom edge
		{0.5, 0.5, 0.5}, // interior, nearest edge wins
		{-1, -1, math.Sqrt2},
	}
	for _, tc := range cases {
		if got := trap.Distance(tc.x, tc.y); math.Abs(got-tc.want) > trapTol {
			t.Errorf("distance(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestSegmentDistance_Degenerate(t *testing.T) {
	// A zero-length segment collapses to its endpoint.
	if got := segmentDistance(3, 4, 0, 0, 0, 0); math.Abs(got-5) > trapTol {
		t.Errorf("degenerate segment distance = %v, want 5", got)
	}
}

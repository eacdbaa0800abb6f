package fractal

import (
	"math"

	"github.com/frxplorer/api/internal/model"
)

type trapKind int

const (
	trapNone trapKind = iota
	trapPoint
	trapSegment
	trapCircle
	trapTriangle
)

// Trap is a closed variant over the orbit-trap primitives. Each variant
// carries exactly the geometry it needs; invalid combinations are rejected
// by FractalParams.Validate before a Trap is ever built.
type Trap struct {
	kind   trapKind
	x1, y1 float64
	x2, y2 float64
	x3, y3 float64
	radius float64
}

// NewTrap builds the trap variant selected by the parameter record.
func NewTrap(p *model.FractalParams) Trap {
	switch p.TrapType {
	case model.TrapPoint:
		return Trap{kind: trapPoint, x1: p.TrapX1, y1: p.TrapY1}
	case model.TrapSegment:
		return Trap{kind: trapSegment, x1: p.TrapX1, y1: p.TrapY1, x2: p.TrapX2, y2: p.TrapY2}
	case model.TrapCircle:
		return Trap{kind: trapCircle, x1: p.TrapX1, y1: p.TrapY1, radius: p.TrapX2}
	case model.TrapTriangle:
		return Trap{
			kind: trapTriangle,
			x1:   p.TrapX1, y1: p.TrapY1,
			x2: p.TrapX2, y2: p.TrapY2,
			x3: p.TrapX3, y3: p.TrapY3,
		}
	default:
		return Trap{kind: trapNone}
	}
}

// Enabled reports whether orbit points should be tested at all.
func (t Trap) Enabled() bool { return t.kind != trapNone }

// Distance returns the distance from (x, y) to the trap geometry.
func (t Trap) Distance(x, y float64) float64 {
	switch t.kind {
	case trapPoint:
		return math.Hypot(x-t.x1, y-t.y1)
	case trapSegment:
		return segmentDistance(x, y, t.x1, t.y1, t.x2, t.y2)
	case trapCircle:
		return math.Abs(math.Hypot(x-t.x1, y-t.y1) - t.radius)
	case trapTriangle:
		d1 := segmentDistance(x, y, t.x1, t.y1, t.x2, t.y2)
		d2 := segmentDistance(x, y, t.x2, t.y2, t.x3, t.y3)
		d3 := segmentDistance(x, y, t.x3, t.y3, t.x1, t.y1)
		return math.Min(d1, math.Min(d2, d3))
	default:
		return 0
	}
}

// segmentDistance is the distance from (x, y) to the segment
// (x1,y1)-(x2,y2). A degenerate segment collapses to its endpoint.
func segmentDistance(x, y, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return math.Hypot(x-x1, y-y1)
	}

	t := ((x-x1)*dx + (y-y1)*dy) / segLenSq
	var cx, cy float64
	switch {
	case t < 0:
		cx, cy = x1, y1
	case t > 1:
		cx, cy = x2, y2
	default:
		cx, cy = x1+t*dx, y1+t*dy
	}
	return math.Hypot(x-cx, y-cy)
}

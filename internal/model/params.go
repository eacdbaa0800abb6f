package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Fractal families
const (
	FamilyMandelbrot = "mandelbrot"
	FamilyJulia      = "julia"
)

// Trap types
const (
	TrapNone     = "none"
	TrapPoint    = "point"
	TrapSegment  = "segment"
	TrapCircle   = "circle"
	TrapTriangle = "triangle"
)

// FractalParams fully determines a computation: identical params always
// produce identical maps. It is treated as an immutable value everywhere.
//
// Trap geometry reuses the three point slots depending on TrapType:
//
//	point:    (X1,Y1)
//	segment:  (X1,Y1)-(X2,Y2)
//	circle:   center (X1,Y1), radius X2
//	triangle: (X1,Y1), (X2,Y2), (X3,Y3)
type FractalParams struct {
	Family         string  `json:"family" query:"family" validate:"required,oneof=mandelbrot julia"`
	Power          int     `json:"power" query:"power" validate:"min=2"`
	XCenter        float64 `json:"xCenter" query:"x_center"`
	YCenter        float64 `json:"yCenter" query:"y_center"`
	XSpan          float64 `json:"xSpan" query:"x_span" validate:"gt=0"`
	YSpan          float64 `json:"ySpan" query:"y_span" validate:"gt=0"`
	Resolution     int     `json:"resolution" query:"resolution" validate:"min=2,max=4096"`
	MaxIterations  int     `json:"maxIterations" query:"iterations" validate:"min=1"`
	Bailout        float64 `json:"bailout" query:"bailout" validate:"gt=0"`
	FixedIteration int     `json:"fixedIteration" query:"fixed_iteration" validate:"min=0"`
	CReal          float64 `json:"cReal" query:"c_real"`
	CImag          float64 `json:"cImag" query:"c_imag"`
	TrapType       string  `json:"trapType" query:"trap_type" validate:"omitempty,oneof=none point segment circle triangle"`
	TrapX1         float64 `json:"trapX1" query:"trap_x1"`
	TrapY1         float64 `json:"trapY1" query:"trap_y1"`
	TrapX2         float64 `json:"trapX2" query:"trap_x2"`
	TrapY2         float64 `json:"trapY2" query:"trap_y2"`
	TrapX3         float64 `json:"trapX3" query:"trap_x3"`
	TrapY3         float64 `json:"trapY3" query:"trap_y3"`
}

// Validate applies the cross-field rules the struct tags cannot express.
// Violations are InvalidParams: rejected before any computation.
func (p *FractalParams) Validate() error {
	if p.TrapType == "" {
		p.TrapType = TrapNone
	}
	switch p.Family {
	case FamilyMandelbrot, FamilyJulia:
	default:
		return &ParamsError{Field: "family", Reason: fmt.Sprintf("unknown fractal family %q", p.Family)}
	}
	if p.Power < 2 {
		return &ParamsError{Field: "power", Reason: "power must be an integer >= 2"}
	}
	if p.XSpan <= 0 || p.YSpan <= 0 {
		return &ParamsError{Field: "span", Reason: "spans must be > 0"}
	}
	if p.Resolution < 2 {
		return &ParamsError{Field: "resolution", Reason: "resolution must be >= 2"}
	}
	if p.MaxIterations < 1 {
		return &ParamsError{Field: "maxIterations", Reason: "max iterations must be >= 1"}
	}
	if p.Bailout <= 0 {
		return &ParamsError{Field: "bailout", Reason: "bailout must be > 0"}
	}
	if p.FixedIteration < 0 || p.FixedIteration > p.MaxIterations {
		return &ParamsError{Field: "fixedIteration", Reason: "fixed iteration must be in [0, maxIterations]"}
	}
	switch p.TrapType {
	case TrapNone, TrapPoint, TrapTriangle:
	case TrapSegment:
		if p.TrapX1 == p.TrapX2 && p.TrapY1 == p.TrapY2 {
			return &ParamsError{Field: "trap", Reason: "segment trap requires two distinct points"}
		}
	case TrapCircle:
		if p.TrapX2 <= 0 {
			return &ParamsError{Field: "trap", Reason: "circle trap requires a positive radius"}
		}
	default:
		return &ParamsError{Field: "trapType", Reason: fmt.Sprintf("unknown trap type %q", p.TrapType)}
	}
	return nil
}

// Fingerprint returns the stable cache key for this parameter set: a sha256
// of the canonical field serialization. Floats use the shortest exact
// representation so formatting drift cannot split the cache.
func (p *FractalParams) Fingerprint() string {
	var b strings.Builder
	b.WriteString(p.Family)
	for _, f := range []float64{
		p.XCenter, p.YCenter, p.XSpan, p.YSpan,
		p.CReal, p.CImag, p.Bailout,
		p.TrapX1, p.TrapY1, p.TrapX2, p.TrapY2, p.TrapX3, p.TrapY3,
	} {
		b.WriteByte('_')
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	for _, n := range []int{p.Power, p.Resolution, p.MaxIterations, p.FixedIteration} {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte('_')
	trap := p.TrapType
	if trap == "" {
		trap = TrapNone
	}
	b.WriteString(trap)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SeedReal returns the real part of z0 for a pixel sampled at (x, y).
// Mandelbrot orbits always start at the origin.
func (p *FractalParams) SeedReal(x float64) float64 {
	if p.Family == FamilyJulia {
		return x
	}
	return 0
}

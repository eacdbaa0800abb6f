package fractal

import (
	"math"

	"github.com/frxplorer/api/internal/model"
)

// NormalizeForDisplay maps a raw grid into [0,1] for presentational
// rendering. The mode depends on the map: iteration counts divide by the
// maximum, distance-like maps use a log scale to recover detail near zero,
// signed value maps rescale linearly. The cache's PNG encoding does NOT go
// through this; it keeps the invertible linear quantization.
func NormalizeForDisplay(values []float32, mapName string, maxIterations int) []float32 {
	out := make([]float32, len(values))
	switch mapName {
	case model.MapIterations, model.MapNormalizedIterations:
		if maxIterations <= 0 {
			return out
		}
		m := float32(maxIterations)
		for i, v := range values {
			out[i] = v / m
		}
		return out
	case model.MapDistance, model.MapMinTrapDistance, model.MapFinalDerivativeMag:
		return normalizeLog(values, out)
	default:
		return normalizeLinear(values, out)
	}
}

func normalizeLog(values, out []float32) []float32 {
	logs := make([]float64, len(values))
	min := math.Inf(1)
	max := math.Inf(-1)
	for i, v := range values {
		f := float64(v)
		if f < 0 {
			f = 0
		}
		l := math.Log1p(f)
		logs[i] = l
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	if len(values) == 0 || max-min == 0 {
		return out
	}
	span := max - min
	for i, l := range logs {
		out[i] = float32((l - min) / span)
	}
	return out
}

func normalizeLinear(values, out []float32) []float32 {
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, v := range values {
		f := float64(v)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	if len(values) == 0 || max-min == 0 {
		return out
	}
	span := max - min
	for i, v := range values {
		out[i] = float32((float64(v) - min) / span)
	}
	return out
}

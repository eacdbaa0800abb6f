package model

// Map encodings
const (
	EncodingRaw = "raw" // gzip-compressed float32 row-major buffer
	EncodingPNG = "png" // 8-bit grayscale, fixed linear quantization
)

// Map names produced by one field evaluation. All maps for a fingerprint
// are written together; a cache either holds every one of them or none.
const (
	MapIterations           = "iterations_map"
	MapNormalizedIterations = "normalized_iterations_map"
	MapMagnitudes           = "magnitudes_map"
	MapDistance             = "distance_map"
	MapFinalDerivativeMag   = "final_derivative_magnitude_map"
	MapMinTrapDistance      = "min_distance_to_trap_map"
	MapMinTrapIteration     = "min_distance_iteration_map"
	MapFinalZReal           = "final_z_real_map"
	MapFinalZImag           = "final_z_imag_map"
	MapFinalZRealAtFixed    = "final_z_real_at_fixed_iteration_map"
)

// MapNames lists every map in storage order.
var MapNames = []string{
	MapIterations,
	MapNormalizedIterations,
	MapMagnitudes,
	MapDistance,
	MapFinalDerivativeMag,
	MapMinTrapDistance,
	MapMinTrapIteration,
	MapFinalZReal,
	MapFinalZImag,
	MapFinalZRealAtFixed,
}

// ValidMapName reports whether name is one of the produced maps.
func ValidMapName(name string) bool {
	for _, n := range MapNames {
		if n == name {
			return true
		}
	}
	return false
}

// ValidEncoding reports whether enc is a supported map encoding.
func ValidEncoding(enc string) bool {
	return enc == EncodingRaw || enc == EncodingPNG
}

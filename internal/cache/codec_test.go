package cache

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRawRoundTrip_Exact(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 1e-38, 3.4e38, -2.75, 600}
	blob, err := EncodeRaw(values)
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	got, err := DecodeRaw(blob)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("got %d values, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("values[%d] = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestRawRoundTrip_Empty(t *testing.T) {
	blob, err := EncodeRaw(nil)
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	got, err := DecodeRaw(blob)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty grid, got %d values", len(got))
	}
}

func TestDecodeRaw_RejectsGarbage(t *testing.T) {
	if _, err := DecodeRaw([]byte("not gzip at all")); err == nil {
		t.Error("expected an error for a non-gzip blob")
	}
}

func TestRawRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("raw encoding is lossless", prop.ForAll(
		func(values []float32) bool {
			blob, err := EncodeRaw(values)
			if err != nil {
				return false
			}
			got, err := DecodeRaw(blob)
			if err != nil || len(got) != len(values) {
				return false
			}
			for i := range values {
				if got[i] != values[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float32Range(-1e6, 1e6)),
	))

	properties.TestingRun(t)
}

func TestQuantizeBounds(t *testing.T) {
	min, max := QuantizeBounds([]float32{3, -1, 7, 0})
	if min != -1 || max != 7 {
		t.Errorf("bounds = (%v, %v), want (-1, 7)", min, max)
	}
	min, max = QuantizeBounds(nil)
	if min != 0 || max != 0 {
		t.Errorf("empty bounds = (%v, %v), want (0, 0)", min, max)
	}
}

func TestPNGQuantization_KnownLevels(t *testing.T) {
	values := []float32{0, 1, 2, 3}
	blob, err := EncodePNG(values, 2)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	levels, res, err := DecodePNG(blob)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if res != 2 {
		t.Fatalf("resolution = %d, want 2", res)
	}
	want := []uint8{0, 85, 170, 255}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("levels[%d] = %d, want %d", i, levels[i], want[i])
		}
	}
}

func TestPNGQuantization_InvertsWithinHalfStep(t *testing.T) {
	values := []float32{-2.5, 0.1, 1.7, 3.9, 0.25, -1.1, 2.2, 0.9, 3.3}
	blob, err := EncodePNG(values, 3)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	levels, res, err := DecodePNG(blob)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if res != 3 {
		t.Fatalf("resolution = %d, want 3", res)
	}

	min, max := QuantizeBounds(values)
	span := float64(max - min)
	halfStep := span / 255 / 2

	for i, level := range levels {
		reconstructed := float64(min) + float64(level)/255*span
		if diff := math.Abs(reconstructed - float64(values[i])); diff > halfStep+1e-6 {
			t.Errorf("cell %d: reconstructed %v from %v, off by %v (> half step %v)",
				i, reconstructed, values[i], diff, halfStep)
		}
	}
}

func TestEncodePNG_ConstantGrid(t *testing.T) {
	values := []float32{5, 5, 5, 5}
	blob, err := EncodePNG(values, 2)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	levels, _, err := DecodePNG(blob)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	for i, l := range levels {
		if l != 0 {
			t.Errorf("constant grid should quantize to zero levels, got %d at %d", l, i)
		}
	}
}

func TestEncodePNG_RejectsWrongLength(t *testing.T) {
	if _, err := EncodePNG([]float32{1, 2, 3}, 2); err == nil {
		t.Error("expected an error for a grid that is not resolution squared")
	}
}

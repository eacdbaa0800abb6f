package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
)

// Raw encoding: the float32 grid, row-major, little-endian, gzip-compressed.
// Decoding reproduces the original values bit for bit.

// EncodeRaw compresses a float32 grid into the raw wire format.
func EncodeRaw(values []float32) ([]byte, error) {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(buf); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return out.Bytes(), nil
}

// DecodeRaw decompresses a raw blob back into a float32 grid.
func DecodeRaw(data []byte) ([]float32, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("raw blob length %d is not a float32 multiple", len(raw))
	}

	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return values, nil
}

// PNG encoding: 8-bit grayscale under a fixed linear quantization of the
// grid's own [min, max] range. Knowing the raw grid's bounds, the mapping
// inverts to within half a quantization step.

// QuantizeBounds returns the min and max the PNG quantization uses for a
// grid. A constant grid quantizes to all-zero pixels.
func QuantizeBounds(values []float32) (min, max float32) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// EncodePNG renders a float32 grid as a quantized grayscale PNG.
func EncodePNG(values []float32, resolution int) ([]byte, error) {
	if len(values) != resolution*resolution {
		return nil, fmt.Errorf("grid has %d cells, want %d", len(values), resolution*resolution)
	}
	min, max := QuantizeBounds(values)
	span := float64(max - min)

	img := image.NewGray(image.Rect(0, 0, resolution, resolution))
	for row := 0; row < resolution; row++ {
		for col := 0; col < resolution; col++ {
			v := values[row*resolution+col]
			var level uint8
			if span > 0 {
				level = uint8(math.Round(float64(v-min) / span * 255))
			}
			img.Pix[row*img.Stride+col] = level
		}
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return out.Bytes(), nil
}

// DecodePNG reads a quantized grayscale PNG back into its 8-bit levels.
// Inverting the quantization needs the raw grid's bounds:
// value ~= min + level/255 * (max-min).
func DecodePNG(data []byte) (levels []uint8, resolution int, err error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("png decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, 0, fmt.Errorf("png is %dx%d, want square", b.Dx(), b.Dy())
	}
	resolution = b.Dx()
	levels = make([]uint8, resolution*resolution)
	for row := 0; row < resolution; row++ {
		for col := 0; col < resolution; col++ {
			r, _, _, _ := img.At(b.Min.X+col, b.Min.Y+row).RGBA()
			levels[row*resolution+col] = uint8(r >> 8)
		}
	}
	return levels, resolution, nil
}

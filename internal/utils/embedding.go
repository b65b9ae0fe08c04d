package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEmbeddingDimension is returned when a stored vector does not have the
// expected width
var ErrEmbeddingDimension = errors.New("embedding has unexpected dimension")

// EncodeEmbedding serializes a vector as raw little-endian float32 values
func EncodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeEmbedding parses raw little-endian float32 bytes into a vector of
// exactly dim elements
func DecodeEmbedding(raw []byte, dim int) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrEmbeddingDimension)
	}
	if len(raw) != 4*dim {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrEmbeddingDimension, len(raw), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

// Dot returns the dot product of a and b accumulated in float64. Vectors of
// different length are compared over their common prefix.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

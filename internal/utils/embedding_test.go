package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCodec(t *testing.T) {
	vec := []float32{0.5, -1.25, 3, 0}
	raw := EncodeEmbedding(vec)
	require.Len(t, raw, 16)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3f}, raw[:4])

	got, err := DecodeEmbedding(raw, 4)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestDecodeEmbedding_WrongWidth(t *testing.T) {
	_, err := DecodeEmbedding(EncodeEmbedding([]float32{1, 2, 3}), 4)
	assert.True(t, errors.Is(err, ErrEmbeddingDimension))

	_, err = DecodeEmbedding(nil, 4)
	assert.True(t, errors.Is(err, ErrEmbeddingDimension))

	_, err = DecodeEmbedding([]byte{1, 2, 3, 4, 5}, 1)
	assert.Error(t, err)
}

func TestDot(t *testing.T) {
	assert.Equal(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, 0.0, Dot(nil, []float32{1}))
}

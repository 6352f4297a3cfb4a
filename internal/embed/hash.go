package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// HashDimension is the length of HashEmbedder vectors.
const HashDimension = 8

// HashEmbedder derives a vector from a digest of the media reference or text.
// It is deterministic and needs no network or decoding.
type HashEmbedder struct{}

func (HashEmbedder) EmbedAudio(ctx context.Context, path string) ([]float32, error) {
	return hashVector(ctx, path)
}

func (HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return hashVector(ctx, text)
}

func hashVector(ctx context.Context, s string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(s))
	vec := make([]float32, HashDimension)
	for i := range vec {
		vec[i] = float32(float64(binary.BigEndian.Uint32(sum[i*4:])) / math.MaxUint32)
	}
	return vec, nil
}

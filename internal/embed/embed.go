// Package embed turns staged audio clips and free text into vectors that the
// cluster engine and similarity filter can compare.
package embed

import (
	"context"
	"errors"
)

var (
	// ErrTextUnsupported is returned by embedders that only understand audio.
	ErrTextUnsupported = errors.New("text embedding not supported")
	// ErrAudioUnsupported is returned by embedders that only understand text.
	ErrAudioUnsupported = errors.New("audio embedding not supported")
)

// Embedder maps clips and text into one vector space of fixed dimension.
type Embedder interface {
	EmbedAudio(ctx context.Context, path string) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

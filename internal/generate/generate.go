// Package generate produces short audio clips from a text prompt. Every
// generator writes its output into a staging area; the caller decides later
// whether each clip is kept.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

// ErrNoClips reports that a batch produced nothing usable.
var ErrNoClips = errors.New("no clips generated")

// Clip is a generated, still-staged audio file.
type Clip struct {
	Path        string
	DurationSec float64
	RawPrompt   string
}

// Generator produces up to count clips of roughly durationSec seconds.
// Returning fewer than count clips is allowed; returning none is an error.
type Generator interface {
	Generate(ctx context.Context, prompt string, count int, durationSec float64) ([]Clip, error)
}

// Stager hands out fresh staging paths. media.Library implements it.
type Stager interface {
	StagePath(index int) (string, error)
}

// collect runs one generation per index, logging and skipping failures.
func collect(ctx context.Context, obs *observe.Observer, backend string, count int, one func(ctx context.Context, index int) (Clip, error)) ([]Clip, error) {
	clips := make([]Clip, 0, count)
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		clip, err := one(ctx, i)
		if err != nil {
			obs.Log().Warn().Str("backend", backend).Int("index", i).Err(err).Msg("clip generation failed")
			continue
		}
		clips = append(clips, clip)
	}
	if len(clips) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", backend, ErrNoClips, err)
		}
		return nil, fmt.Errorf("%s: %w", backend, ErrNoClips)
	}
	return clips, nil
}

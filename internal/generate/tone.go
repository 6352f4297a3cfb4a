package generate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"os"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
)

// ToneGenerator writes deterministic sine tones instead of calling a model.
// Pitch and amplitude derive from the prompt and clip index, so the same
// request always yields the same audio. A failed call leaves nothing staged.
type ToneGenerator struct {
	stage      Stager
	SampleRate int
}

func NewToneGenerator(stage Stager) *ToneGenerator {
	return &ToneGenerator{stage: stage, SampleRate: 16000}
}

func (g *ToneGenerator) Generate(ctx context.Context, prompt string, count int, durationSec float64) ([]Clip, error) {
	if durationSec <= 0 {
		return nil, fmt.Errorf("tone: duration must be positive, got %v", durationSec)
	}
	clips := make([]Clip, 0, count)
	fail := func(err error) ([]Clip, error) {
		for _, c := range clips {
			_ = os.Remove(c.Path)
		}
		return nil, err
	}
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		path, err := g.stage.StagePath(i)
		if err != nil {
			return fail(err)
		}
		if err := media.WritePCM16(path, g.render(prompt, i, durationSec), g.SampleRate, 1); err != nil {
			_ = os.Remove(path)
			return fail(fmt.Errorf("tone: %w", err))
		}
		clips = append(clips, Clip{Path: path, DurationSec: durationSec, RawPrompt: prompt})
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("tone: %w", ErrNoClips)
	}
	return clips, nil
}

func (g *ToneGenerator) render(prompt string, index int, durationSec float64) []int {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", prompt, index)))
	// Semitones above A2 across two octaves.
	freq := 110 * math.Pow(2, float64(sum[0]%24)/12)
	amp := 0.2 + 0.6*float64(sum[1])/255

	n := int(durationSec * float64(g.SampleRate))
	samples := make([]int, n)
	for t := range samples {
		v := amp * math.Sin(2*math.Pi*freq*float64(t)/float64(g.SampleRate))
		samples[t] = int(v * math.MaxInt16)
	}
	return samples
}

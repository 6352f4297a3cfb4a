package embed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
)

// Frames is the number of equal slices a clip is cut into.
const Frames = 8

// WaveformDimension is the length of WaveformEmbedder vectors.
const WaveformDimension = 2 * Frames

// WaveformEmbedder describes a clip by its loudness and brightness over time:
// per-frame RMS energy followed by per-frame zero-crossing rate, L2-normalised.
type WaveformEmbedder struct{}

func (WaveformEmbedder) EmbedAudio(ctx context.Context, path string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := media.ReadPCM(path)
	if err != nil {
		return nil, fmt.Errorf("waveform embed: %w", err)
	}

	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}

	mono := downmix(buf.Data, channels, float64(int(1)<<(bitDepth-1)))
	if len(mono) == 0 {
		return nil, errors.New("waveform embed: clip has no samples")
	}
	return features(mono), nil
}

func (WaveformEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return nil, ErrTextUnsupported
}

// downmix averages interleaved channels and scales samples into [-1, 1].
func downmix(data []int, channels int, fullScale float64) []float64 {
	n := len(data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = sum / float64(channels) / fullScale
	}
	return out
}

func features(samples []float64) []float32 {
	vec := make([]float64, WaveformDimension)
	n := len(samples)
	for f := 0; f < Frames; f++ {
		frame := samples[f*n/Frames : (f+1)*n/Frames]
		if len(frame) == 0 {
			continue
		}
		var energy float64
		crossings := 0
		for i, s := range frame {
			energy += s * s
			if i > 0 && (s >= 0) != (frame[i-1] >= 0) {
				crossings++
			}
		}
		vec[f] = math.Sqrt(energy / float64(len(frame)))
		vec[Frames+f] = float64(crossings) / float64(len(frame))
	}
	return normalize(vec)
}

// normalize scales v to unit length. A zero vector stays zero.
func normalize(v []float64) []float32 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

// ElevenLabsConfig configures the ElevenLabs music endpoint.
type ElevenLabsConfig struct {
	APIKey       string
	BaseURL      string
	OutputFormat string
	Timeout      time.Duration
}

// ElevenLabsGenerator requests one clip per call from the ElevenLabs music
// API and wraps the raw PCM it returns in a WAV container.
type ElevenLabsGenerator struct {
	cfg        ElevenLabsConfig
	sampleRate int
	client     *http.Client
	stage      Stager
	obs        *observe.Observer
}

func NewElevenLabsGenerator(cfg ElevenLabsConfig, stage Stager, obs *observe.Observer) (*ElevenLabsGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("elevenlabs API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "pcm_44100"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	rate, err := parsePCMRate(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = observe.Nop()
	}
	return &ElevenLabsGenerator{
		cfg:        cfg,
		sampleRate: rate,
		client:     &http.Client{Timeout: cfg.Timeout},
		stage:      stage,
		obs:        obs,
	}, nil
}

func parsePCMRate(format string) (int, error) {
	rest, ok := strings.CutPrefix(format, "pcm_")
	if !ok {
		return 0, fmt.Errorf("elevenlabs output format must be PCM (e.g. pcm_44100), got %q", format)
	}
	rate, err := strconv.Atoi(rest)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid PCM output format %q", format)
	}
	return rate, nil
}

type elevenLabsRequest struct {
	Prompt            string `json:"prompt"`
	MusicLengthMs     int    `json:"music_length_ms"`
	ModelID           string `json:"model_id"`
	ForceInstrumental bool   `json:"force_instrumental"`
}

func (g *ElevenLabsGenerator) Generate(ctx context.Context, prompt string, count int, durationSec float64) ([]Clip, error) {
	return collect(ctx, g.obs, "elevenlabs", count, func(ctx context.Context, i int) (Clip, error) {
		return g.one(ctx, prompt, i, durationSec)
	})
}

func (g *ElevenLabsGenerator) one(ctx context.Context, prompt string, index int, durationSec float64) (Clip, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Prompt:            prompt,
		MusicLengthMs:     int(durationSec * 1000),
		ModelID:           "music_v1",
		ForceInstrumental: true,
	})
	if err != nil {
		return Clip{}, err
	}

	endpoint := g.cfg.BaseURL + "/v1/music/detailed?output_format=" + url.QueryEscape(g.cfg.OutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Clip{}, err
	}
	req.Header.Set("xi-api-key", g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	g.obs.Log().Info().Int("index", index).Str("format", g.cfg.OutputFormat).Msg("elevenlabs request")
	resp, err := g.client.Do(req)
	if err != nil {
		return Clip{}, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Clip{}, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	pcm, err := extractAudio(resp.Header.Get("Content-Type"), resp.Body, g.maxAudioBytes(durationSec))
	if err != nil {
		return Clip{}, err
	}
	frames := len(pcm) / 2
	if frames == 0 {
		return Clip{}, errors.New("elevenlabs returned zero audio frames")
	}

	samples := make([]int, frames)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	path, err := g.stage.StagePath(index)
	if err != nil {
		return Clip{}, err
	}
	if err := media.WritePCM16(path, samples, g.sampleRate, 1); err != nil {
		return Clip{}, err
	}

	return Clip{
		Path:        path,
		DurationSec: float64(frames) / float64(g.sampleRate),
		RawPrompt:   prompt,
	}, nil
}

// audioHeadroom covers multipart framing, base64 expansion and clips the
// service renders longer than requested.
const audioHeadroom = 1 << 20

// maxAudioBytes bounds a response body for a clip of durationSec.
func (g *ElevenLabsGenerator) maxAudioBytes(durationSec float64) int64 {
	return int64(durationSec*float64(g.sampleRate))*4 + audioHeadroom
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("elevenlabs: audio exceeds %d bytes", limit)
	}
	return data, nil
}

// extractAudio returns the audio bytes of a response that is either raw audio
// or multipart with an audio part (possibly base64 encoded). At most limit
// bytes are read from any one body or part.
func extractAudio(contentType string, body io.Reader, limit int64) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: bad content type %q: %w", contentType, err)
	}

	if isAudioType(mediaType) {
		return readLimited(body, limit)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("elevenlabs: unexpected content type %q", mediaType)
	}

	mr := multipart.NewReader(body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("elevenlabs: multipart response has no audio part")
		}
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: bad multipart response: %w", err)
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if !isAudioType(partType) {
			continue
		}
		data, err := readLimited(part, limit)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(part.Header.Get("Content-Transfer-Encoding"), "base64") {
			decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(data)), ""))
			if err != nil {
				return nil, fmt.Errorf("elevenlabs: bad base64 audio: %w", err)
			}
			data = decoded
		}
		if len(data) > 0 {
			return data, nil
		}
	}
}

func isAudioType(t string) bool {
	return strings.HasPrefix(t, "audio/") || t == "application/octet-stream"
}

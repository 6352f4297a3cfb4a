package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

// MusicGenConfig configures a Hugging Face inference endpoint.
type MusicGenConfig struct {
	APIURL  string
	ModelID string
	Token   string
	Timeout time.Duration
}

// MusicGenGenerator calls a hosted MusicGen model once per clip. The
// endpoint returns a complete WAV file.
type MusicGenGenerator struct {
	cfg    MusicGenConfig
	client *http.Client
	stage  Stager
	obs    *observe.Observer
}

func NewMusicGenGenerator(cfg MusicGenConfig, stage Stager, obs *observe.Observer) (*MusicGenGenerator, error) {
	if cfg.Token == "" {
		return nil, errors.New("hugging face API token is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api-inference.huggingface.co/models"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "facebook/musicgen-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if obs == nil {
		obs = observe.Nop()
	}
	return &MusicGenGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		stage:  stage,
		obs:    obs,
	}, nil
}

type musicGenRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters musicGenParameters `json:"parameters"`
}

type musicGenParameters struct {
	Duration float64 `json:"duration"`
}

func (g *MusicGenGenerator) Generate(ctx context.Context, prompt string, count int, durationSec float64) ([]Clip, error) {
	return collect(ctx, g.obs, "musicgen", count, func(ctx context.Context, i int) (Clip, error) {
		return g.one(ctx, prompt, i, durationSec)
	})
}

func (g *MusicGenGenerator) one(ctx context.Context, prompt string, index int, durationSec float64) (Clip, error) {
	body, err := json.Marshal(musicGenRequest{Inputs: prompt, Parameters: musicGenParameters{Duration: durationSec}})
	if err != nil {
		return Clip{}, err
	}

	endpoint := strings.TrimRight(g.cfg.APIURL, "/") + "/" + g.cfg.ModelID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Clip{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Clip{}, fmt.Errorf("musicgen request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Clip{}, fmt.Errorf("musicgen status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, err
	}
	if len(audio) == 0 {
		return Clip{}, errors.New("musicgen returned an empty body")
	}

	path, err := g.stage.StagePath(index)
	if err != nil {
		return Clip{}, err
	}
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return Clip{}, fmt.Errorf("failed to stage musicgen clip: %w", err)
	}

	dur, err := media.Duration(path)
	if err != nil || dur <= 0 {
		os.Remove(path)
		return Clip{}, fmt.Errorf("musicgen returned unreadable audio: %v", err)
	}

	return Clip{Path: path, DurationSec: dur, RawPrompt: prompt}, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/NielsdaWheelz/suno-demo/internal/config"
	"github.com/NielsdaWheelz/suno-demo/internal/embed"
	"github.com/NielsdaWheelz/suno-demo/internal/generate"
	"github.com/NielsdaWheelz/suno-demo/internal/guard"
	"github.com/NielsdaWheelz/suno-demo/internal/keyring"
	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/naming"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
	"github.com/NielsdaWheelz/suno-demo/internal/orchestrate"
	"github.com/NielsdaWheelz/suno-demo/internal/plugin"
	"github.com/NielsdaWheelz/suno-demo/internal/provider"
	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

// staleStaging is how old a staged clip must be before startup removes it.
const staleStaging = time.Hour

// App is the composition root: one store, one set of collaborators.
type App struct {
	Config   *config.Config
	Observer *observe.Observer
	Media    *media.Library
	Events   *runtime.EventBus
	Service  *orchestrate.Service

	closers []func()
}

// NewApp wires every component from cfg. keys may be nil, in which case
// credentials come from the environment only.
func NewApp(cfg *config.Config, obs *observe.Observer, keys *keyring.Keyring) (*App, error) {
	lib, err := media.New(cfg.MediaRoot)
	if err != nil {
		return nil, err
	}
	if cfg.ClearMediaOnStart {
		if err := lib.Clear(); err != nil {
			return nil, err
		}
	} else if n, err := lib.Sweep(staleStaging); err != nil {
		obs.Log().Warn().Err(err).Msg("failed to sweep staging area")
	} else if n > 0 {
		obs.Log().Info().Int("removed", n).Msg("removed stale staged clips")
	}

	app := &App{Config: cfg, Observer: obs, Media: lib, Events: runtime.NewEventBus()}

	gen, emb, namer, err := app.collaborators(keys)
	if err != nil {
		app.Close()
		return nil, err
	}

	policy := guard.DefaultPolicy
	policy.MaxBatchSize = cfg.MaxBatchSize
	policy.StagingGlobs = []string{lib.StagingGlob()}

	app.Service, err = orchestrate.New(orchestrate.Config{
		DefaultMaxK:   cfg.DefaultMaxK,
		MinSimilarity: cfg.MinSimilarity,
	}, orchestrate.Deps{
		Store:     store.NewMemoryStore(),
		Generator: gen,
		Embedder:  emb,
		Namer:     namer,
		Media:     lib,
		Guard:     guard.New(policy),
		Observer:  obs,
		Events:    app.Events,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	obs.Log().Info().Str("mode", cfg.ProviderMode).Str("media_root", cfg.MediaRoot).Msg("sunolab ready")
	return app, nil
}

// Close releases plugin processes and provider clients.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) collaborators(keys *keyring.Keyring) (generate.Generator, embed.Embedder, naming.Namer, error) {
	cfg := a.Config
	if cfg.ProviderMode == config.ModeFake {
		return generate.NewToneGenerator(a.Media), embed.HashEmbedder{}, naming.HashNamer{}, nil
	}

	var gen generate.Generator
	var err error
	switch cfg.Generator {
	case config.GeneratorMusicGen:
		gen, err = generate.NewMusicGenGenerator(generate.MusicGenConfig{
			APIURL:  cfg.MusicGen.APIURL,
			ModelID: cfg.MusicGen.ModelID,
			Token:   keys.Lookup(keyring.HFToken),
			Timeout: cfg.MusicGen.Timeout,
		}, a.Media, a.Observer)
	default:
		gen, err = generate.NewElevenLabsGenerator(generate.ElevenLabsConfig{
			APIKey:       keys.Lookup(keyring.ElevenLabsKey),
			BaseURL:      cfg.ElevenLabs.BaseURL,
			OutputFormat: cfg.ElevenLabs.OutputFormat,
			Timeout:      cfg.ElevenLabs.Timeout,
		}, a.Media, a.Observer)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s generator: %w", cfg.Generator, err)
	}

	emb := embed.NewCachedEmbedder(embed.WaveformEmbedder{}, cfg.Embedding.CacheTTL, 0)

	namer, err := a.namer(keys)
	if err != nil {
		return nil, nil, nil, err
	}
	return gen, emb, namer, nil
}

// namer prefers a plugin, then a language model, then the hash namer.
func (a *App) namer(keys *keyring.Keyring) (naming.Namer, error) {
	nc := a.Config.Naming
	if nc.PluginPath != "" {
		n, err := plugin.Launch(nc.PluginPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n.Kill)
		return n, nil
	}

	p, err := namingProvider(nc, keys)
	if err != nil {
		a.Observer.Log().Warn().Str("provider", nc.Provider).Err(err).Msg("naming provider unavailable, using hash labels")
		return naming.HashNamer{}, nil
	}
	if c, ok := p.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}
	return naming.NewProviderNamer(p, nc.Timeout), nil
}

func namingProvider(nc config.NamingConfig, keys *keyring.Keyring) (provider.Provider, error) {
	switch nc.Provider {
	case "openai":
		baseURL, _ := getSetting(keys, "openai_base_url")
		return provider.NewOpenAIProvider(keys.Lookup(keyring.OpenAIKey), baseURL, nc.Model)
	case "ollama":
		return provider.NewOllamaProvider(nc.Model, "")
	case "gemini":
		return provider.NewGeminiProvider(keys.Lookup(keyring.GeminiKey), nc.Model)
	case "anthropic":
		return provider.NewAnthropicProvider(keys.Lookup(keyring.AnthropicKey), nc.Model)
	case "cli":
		return detectCLIProvider(keys)
	}
	return nil, fmt.Errorf("unknown naming provider %q", nc.Provider)
}

func detectCLIProvider(keys *keyring.Keyring) (provider.Provider, error) {
	if path, _ := getSetting(keys, "cli_path"); path != "" {
		return provider.NewCLIProvider(path, nil)
	}

	for _, t := range []string{"claude", "codex", "gemini", "llm"} {
		if path, err := exec.LookPath(t); err == nil {
			return provider.NewCLIProvider(path, nil)
		}
	}
	return nil, errors.New("no local CLI agents detected (tried claude, codex, gemini, llm)")
}

func getSetting(keys *keyring.Keyring, key string) (string, error) {
	if keys == nil {
		return "", nil
	}
	return keys.Get(key)
}

// startTracing installs the OTLP exporter when enabled.
func startTracing(ctx context.Context, obs *observe.Observer, cfg *config.Config) {
	if err := obs.InitTracing(ctx, cfg.Tracing); err != nil {
		obs.Log().Warn().Err(err).Msg("tracing disabled")
	}
}

// Package config loads process configuration: YAML over defaults, then
// SUNO_LAB_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SUNO_LAB_"

// Provider modes.
const (
	ModeFake = "fake"
	ModeReal = "real"
)

// Generator back-ends for real mode.
const (
	GeneratorElevenLabs = "elevenlabs"
	GeneratorMusicGen   = "musicgen"
)

var namingProviders = map[string]bool{
	"openai": true, "ollama": true, "gemini": true, "anthropic": true, "cli": true,
}

// Config holds all configuration for sunolab.
type Config struct {
	Addr              string  `yaml:"addr"`
	MediaRoot         string  `yaml:"media_root"`
	ClearMediaOnStart bool    `yaml:"clear_media_on_start"`
	MaxBatchSize      int     `yaml:"max_batch_size"`
	DefaultMaxK       int     `yaml:"default_max_k"`
	MinSimilarity     float64 `yaml:"min_similarity"`
	ProviderMode      string  `yaml:"provider_mode"`
	Generator         string  `yaml:"generator"`

	ElevenLabs ElevenLabsConfig      `yaml:"elevenlabs"`
	MusicGen   MusicGenConfig        `yaml:"musicgen"`
	Naming     NamingConfig          `yaml:"naming"`
	Embedding  EmbeddingConfig       `yaml:"embedding"`
	Tracing    observe.TracingConfig `yaml:"tracing"`
	Logging    LoggingConfig         `yaml:"logging"`
}

// ElevenLabsConfig configures the ElevenLabs music generator.
type ElevenLabsConfig struct {
	BaseURL      string        `yaml:"base_url"`
	OutputFormat string        `yaml:"output_format"`
	Timeout      time.Duration `yaml:"timeout"`
}

// MusicGenConfig configures the Hugging Face MusicGen generator.
type MusicGenConfig struct {
	APIURL  string        `yaml:"api_url"`
	ModelID string        `yaml:"model_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// NamingConfig selects how clusters are labelled in real mode.
type NamingConfig struct {
	Provider   string        `yaml:"provider"` // openai, ollama, gemini, anthropic, cli
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	PluginPath string        `yaml:"plugin_path"`
}

// EmbeddingConfig tunes the embedding memo.
type EmbeddingConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Verbose bool   `yaml:"verbose"`
	Format  string `yaml:"format"` // console or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:          ":8000",
		MediaRoot:     "media",
		MaxBatchSize:  6,
		DefaultMaxK:   3,
		MinSimilarity: 0.3,
		ProviderMode:  ModeFake,
		Generator:     GeneratorElevenLabs,
		ElevenLabs: ElevenLabsConfig{
			BaseURL:      "https://api.elevenlabs.io",
			OutputFormat: "pcm_44100",
			Timeout:      90 * time.Second,
		},
		MusicGen: MusicGenConfig{
			APIURL:  "https://api-inference.huggingface.co/models",
			ModelID: "facebook/musicgen-small",
			Timeout: 120 * time.Second,
		},
		Naming: NamingConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  10 * time.Second,
		},
		Embedding: EmbeddingConfig{CacheTTL: time.Hour},
		Tracing: observe.TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "sunolab",
		},
		Logging: LoggingConfig{Format: "console"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDR":               &c.Addr,
		"MEDIA_ROOT":         &c.MediaRoot,
		"PROVIDER_MODE":      &c.ProviderMode,
		"GENERATOR":          &c.Generator,
		"NAMING_PROVIDER":    &c.Naming.Provider,
		"NAMING_MODEL":       &c.Naming.Model,
		"NAMING_PLUGIN_PATH": &c.Naming.PluginPath,
		"TRACING_ENDPOINT":   &c.Tracing.Endpoint,
		"LOG_FORMAT":         &c.Logging.Format,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_BATCH_SIZE": &c.MaxBatchSize,
		"DEFAULT_MAX_K":  &c.DefaultMaxK,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"CLEAR_MEDIA_ON_START": &c.ClearMediaOnStart,
		"TRACING_ENABLED":      &c.Tracing.Enabled,
		"VERBOSE":              &c.Logging.Verbose,
	}
	for name, dst := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup(EnvPrefix + "MIN_SIMILARITY"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sMIN_SIMILARITY: %w", EnvPrefix, err)
		}
		c.MinSimilarity = f
	}
	return nil
}

// Validate rejects values the workflows cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MediaRoot == "" {
		errs = append(errs, errors.New("media_root is required"))
	}
	if c.MaxBatchSize < 1 {
		errs = append(errs, fmt.Errorf("max_batch_size must be >= 1, got %d", c.MaxBatchSize))
	}
	if c.DefaultMaxK < 1 {
		errs = append(errs, fmt.Errorf("default_max_k must be >= 1, got %d", c.DefaultMaxK))
	}
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		errs = append(errs, fmt.Errorf("min_similarity must be in [-1, 1], got %g", c.MinSimilarity))
	}
	switch c.ProviderMode {
	case ModeFake, ModeReal:
	default:
		errs = append(errs, fmt.Errorf("unknown provider_mode %q", c.ProviderMode))
	}
	switch c.Generator {
	case GeneratorElevenLabs, GeneratorMusicGen:
	default:
		errs = append(errs, fmt.Errorf("unknown generator %q", c.Generator))
	}
	if !namingProviders[c.Naming.Provider] {
		errs = append(errs, fmt.Errorf("unknown naming provider %q", c.Naming.Provider))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

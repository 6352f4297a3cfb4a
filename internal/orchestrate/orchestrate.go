// Package orchestrate drives the two exploration workflows: creating the first
// clustered batch of a session, and generating more clips like one cluster.
package orchestrate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/NielsdaWheelz/suno-demo/internal/embed"
	"github.com/NielsdaWheelz/suno-demo/internal/generate"
	"github.com/NielsdaWheelz/suno-demo/internal/guard"
	"github.com/NielsdaWheelz/suno-demo/internal/naming"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

var (
	// ErrInvalidRequest reports caller input outside the configured limits.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound reports an unknown session, cluster or centroid.
	ErrNotFound = errors.New("not found")
	// ErrGenerationFailed reports that the generator produced no usable clips.
	ErrGenerationFailed = errors.New("generation failed")
)

// MaxLabelRunes bounds cluster labels.
const MaxLabelRunes = 64

// Media is the two-phase file lifecycle the service needs.
type Media interface {
	Promote(staged string, sessionID, trackID uuid.UUID) (path, url string, err error)
	Discard(path string) error
}

// Config holds the clustering knobs.
type Config struct {
	DefaultMaxK   int
	MinSimilarity float64
}

// Deps are the collaborators a Service is built from. Namer, Observer and
// Events are optional.
type Deps struct {
	Store     store.Storage
	Generator generate.Generator
	Embedder  embed.Embedder
	Namer     naming.Namer
	Media     Media
	Guard     *guard.Guard
	Observer  *observe.Observer
	Events    *runtime.EventBus
}

// Service runs workflows against one store. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	cfg    Config
	store  store.Storage
	gen    generate.Generator
	embed  embed.Embedder
	namer  naming.Namer
	media  Media
	guard  *guard.Guard
	obs    *observe.Observer
	events *runtime.EventBus
}

func New(cfg Config, d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("orchestrate: store is required")
	case d.Generator == nil:
		return nil, errors.New("orchestrate: generator is required")
	case d.Embedder == nil:
		return nil, errors.New("orchestrate: embedder is required")
	case d.Media == nil:
		return nil, errors.New("orchestrate: media is required")
	case d.Guard == nil:
		return nil, errors.New("orchestrate: guard is required")
	}
	if cfg.DefaultMaxK < 1 {
		cfg.DefaultMaxK = 1
	}
	if d.Namer == nil {
		d.Namer = naming.HashNamer{}
	}
	if d.Observer == nil {
		d.Observer = observe.Nop()
	}
	return &Service{
		cfg:    cfg,
		store:  d.Store,
		gen:    d.Generator,
		embed:  d.Embedder,
		namer:  d.Namer,
		media:  d.Media,
		guard:  d.Guard,
		obs:    d.Observer,
		events: d.Events,
	}, nil
}

// Store exposes the read side for presentation layers.
func (s *Service) Store() store.Storage {
	return s.store
}

// Events returns the bus workflows publish to. It may be nil.
func (s *Service) Events() *runtime.EventBus {
	return s.events
}

// RenderPrompt is the canonical generation prompt for a brief.
func RenderPrompt(brief string, p store.BriefParams) string {
	return fmt.Sprintf("%s | energy=%.2f | density=%.2f | duration=%.1fs", brief, p.Energy, p.Density, p.DurationSec)
}

func invalid(v *guard.Violation) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, v.Error())
}

func (s *Service) fail(sessionID, workflow string, err error) {
	s.events.PublishWithData(runtime.EventWorkflowFailed, sessionID, map[string]interface{}{
		"workflow": workflow,
		"error":    err.Error(),
	})
	s.obs.Log().Error().Str("session_id", sessionID).Str("workflow", workflow).Err(err).Msg("workflow failed")
}

package orchestrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NielsdaWheelz/suno-demo/internal/generate"
	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/naming"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

// pending is a generated clip on its way to becoming a track.
type pending struct {
	clip    generate.Clip
	vector  []float32
	track   uuid.UUID
	cluster uuid.UUID
}

func attrSession(id string) attribute.KeyValue {
	return attribute.String("session_id", id)
}

// produce generates and embeds clips in generation order. On an embedding
// failure every staged clip is discarded and the error is returned as is.
func (s *Service) produce(ctx context.Context, sid, prompt string, count int, durationSec float64) ([]pending, error) {
	gctx, span := s.obs.StartSpan(ctx, "generate", "count", fmt.Sprint(count))
	clips, err := s.gen.Generate(gctx, prompt, count, durationSec)
	observe.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	usable := make([]generate.Clip, 0, len(clips))
	for _, c := range clips {
		if v := s.guard.CheckStagedPath(c.Path); v != nil {
			s.obs.Log().Warn().Str("session_id", sid).Str("path", c.Path).Msg("ignoring clip outside staging area")
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no clips generated", ErrGenerationFailed)
	}
	s.obs.Log().Info().Str("session_id", sid).Int("requested", count).Int("generated", len(usable)).Msg("clips generated")
	s.events.PublishWithData(runtime.EventClipsGenerated, sid, map[string]interface{}{
		"requested": count,
		"generated": len(usable),
	})

	items := make([]pending, len(usable))
	for i, c := range usable {
		ectx, span := s.obs.StartSpan(ctx, "embed", "path", c.Path)
		vec, err := s.embed.EmbedAudio(ectx, c.Path)
		observe.EndSpan(span, err)
		if err != nil {
			for _, rest := range usable {
				s.discard(sid, rest.Path, "workflow aborted")
			}
			return nil, fmt.Errorf("embedding clip %d: %w", i, err)
		}
		items[i] = pending{clip: c, vector: vec, track: uuid.New()}
		s.events.PublishWithData(runtime.EventClipEmbedded, sid, map[string]interface{}{
			"index": i,
			"total": len(usable),
		})
	}
	return items, nil
}

// label asks the namer for a cluster label, falling back to cluster-<pos>.
func (s *Service) label(ctx context.Context, sid string, prompts []string, pos int) string {
	ctx, span := s.obs.StartSpan(ctx, "name", "position", fmt.Sprint(pos))
	label, err := s.namer.Name(ctx, prompts)
	if err == nil {
		label = strings.TrimSpace(label)
		if label == "" {
			err = naming.ErrEmptyLabel
		}
	}
	observe.EndSpan(span, err)

	fallback := err != nil
	if fallback {
		s.obs.Log().Warn().Str("session_id", sid).Int("position", pos).Err(err).Msg("naming failed, using fallback label")
		label = fmt.Sprintf("cluster-%d", pos)
	}
	if r := []rune(label); len(r) > MaxLabelRunes {
		label = strings.TrimSpace(string(r[:MaxLabelRunes]))
	}
	s.events.PublishWithData(runtime.EventClusterNamed, sid, map[string]interface{}{
		"position": pos,
		"label":    label,
		"fallback": fallback,
	})
	return label
}

// commit promotes every item's media, attaches tracks to the batch and stores
// it with its centroids. Nothing is stored if any step fails.
func (s *Service) commit(sessionID uuid.UUID, batch *store.Batch, items []pending, centroids map[uuid.UUID][]float32) error {
	sid := sessionID.String()
	promoted := make([]string, 0, len(items))
	abort := func(from int) {
		for _, p := range promoted {
			s.discard(sid, p, "workflow aborted")
		}
		for _, it := range items[from:] {
			s.discard(sid, it.clip.Path, "workflow aborted")
		}
	}

	tracks := make([]store.Track, 0, len(items))
	for i, it := range items {
		path, url, err := s.media.Promote(it.clip.Path, sessionID, it.track)
		if err != nil {
			abort(i)
			return err
		}
		promoted = append(promoted, path)

		dur := it.clip.DurationSec
		if dur <= 0 {
			if d, err := media.Duration(path); err == nil {
				dur = d
			}
		}
		tracks = append(tracks, store.Track{
			ID:          it.track,
			BatchID:     batch.ID,
			ClusterID:   it.cluster,
			AudioPath:   path,
			AudioURL:    url,
			DurationSec: dur,
			RawPrompt:   it.clip.RawPrompt,
			CreatedAt:   batch.CreatedAt,
		})
	}
	batch.Tracks = tracks

	if err := s.store.AddBatch(sessionID, *batch, centroids); err != nil {
		abort(len(items))
		return err
	}

	s.obs.Log().Info().Str("session_id", sid).Str("batch_id", batch.ID.String()).Int("clusters", len(batch.Clusters)).Int("tracks", len(tracks)).Msg("batch committed")
	s.events.PublishWithData(runtime.EventBatchCommitted, sid, map[string]interface{}{
		"batch_id": batch.ID.String(),
		"clusters": len(batch.Clusters),
		"tracks":   len(tracks),
	})
	return nil
}

// discard deletes a file best-effort. Failures are logged, never returned.
func (s *Service) discard(sid, path, reason string) {
	if err := s.media.Discard(path); err != nil {
		s.obs.Log().Warn().Str("session_id", sid).Str("path", path).Err(err).Msg("failed to discard clip")
		return
	}
	s.events.PublishWithData(runtime.EventClipDiscarded, sid, map[string]interface{}{
		"path":   path,
		"reason": reason,
	})
}

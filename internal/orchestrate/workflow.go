package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/NielsdaWheelz/suno-demo/internal/cluster"
	"github.com/NielsdaWheelz/suno-demo/internal/naming"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
	"github.com/NielsdaWheelz/suno-demo/internal/similarity"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

const (
	workflowCreate = "create"
	workflowMore   = "more"
)

// CreateInitialBatch starts a session and fills it with one clustered batch.
// The session is kept even when generation fails, so the caller can retry.
func (s *Service) CreateInitialBatch(ctx context.Context, brief string, params store.BriefParams, numClips int) (_ *store.Session, err error) {
	ctx, span := s.obs.StartSpan(ctx, "orchestrate.create_initial_batch", "num_clips", strconv.Itoa(numClips))
	defer func() { observe.EndSpan(span, err) }()

	if v := s.guard.CheckClipCount(numClips); v != nil {
		return nil, invalid(v)
	}
	if v := s.guard.CheckBrief(brief); v != nil {
		return nil, invalid(v)
	}
	if v := s.guard.CheckDuration(params.DurationSec); v != nil {
		return nil, invalid(v)
	}

	sess, err := s.store.CreateSession(brief, params)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSession) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}
	sid := sess.ID.String()
	span.SetAttributes(attrSession(sid))

	s.obs.Log().Info().Str("session_id", sid).Int("num_clips", numClips).Msg("creating initial batch")
	s.events.PublishWithData(runtime.EventBatchStarted, sid, map[string]interface{}{
		"workflow":  workflowCreate,
		"num_clips": numClips,
	})

	prompt := RenderPrompt(brief, params)
	items, err := s.produce(ctx, sid, prompt, numClips, params.DurationSec)
	if err != nil {
		s.fail(sid, workflowCreate, err)
		return nil, err
	}

	vectors := make([][]float32, len(items))
	for i := range items {
		vectors[i] = items[i].vector
	}
	groups := cluster.Partition(vectors, s.cfg.DefaultMaxK)
	s.events.PublishWithData(runtime.EventClustersFormed, sid, map[string]interface{}{
		"clusters": len(groups),
	})

	batch := store.Batch{
		ID:           uuid.New(),
		SessionID:    sess.ID,
		CreatedAt:    time.Now().UTC(),
		PromptText:   prompt,
		NumRequested: numClips,
		NumGenerated: len(items),
	}
	centroids := make(map[uuid.UUID][]float32, len(groups))
	for pos, members := range groups {
		prompts := make([]string, 0, naming.MaxPrompts)
		memberVecs := make([][]float32, len(members))
		for j, idx := range members {
			if len(prompts) < naming.MaxPrompts {
				prompts = append(prompts, items[idx].clip.RawPrompt)
			}
			memberVecs[j] = items[idx].vector
		}

		c := store.Cluster{
			ID:        uuid.New(),
			BatchID:   batch.ID,
			Label:     s.label(ctx, sid, prompts, pos+1),
			CreatedAt: batch.CreatedAt,
		}
		for _, idx := range members {
			items[idx].cluster = c.ID
			c.TrackIDs = append(c.TrackIDs, items[idx].track)
		}
		batch.Clusters = append(batch.Clusters, c)
		centroids[c.ID] = similarity.Mean(memberVecs)
	}

	if err := s.commit(sess.ID, &batch, items, centroids); err != nil {
		s.fail(sid, workflowCreate, err)
		return nil, err
	}

	updated, ok := s.store.GetSession(sess.ID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s vanished after commit", ErrNotFound, sid)
	}
	return updated, nil
}

// MoreLikeCluster generates a new batch and keeps the clips closest to the
// centroid of an existing cluster. The result is one cluster carrying the
// parent's label.
func (s *Service) MoreLikeCluster(ctx context.Context, sessionID, clusterID uuid.UUID, numClips int) (_ *store.Batch, err error) {
	ctx, span := s.obs.StartSpan(ctx, "orchestrate.more_like_cluster",
		"session_id", sessionID.String(),
		"cluster_id", clusterID.String(),
		"num_clips", strconv.Itoa(numClips))
	defer func() { observe.EndSpan(span, err) }()

	if v := s.guard.CheckClipCount(numClips); v != nil {
		return nil, invalid(v)
	}

	sess, ok := s.store.GetSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	parent, ok := s.store.GetCluster(sessionID, clusterID)
	if !ok {
		return nil, fmt.Errorf("%w: cluster %s", ErrNotFound, clusterID)
	}
	centroid, ok := s.store.GetCentroid(sessionID, clusterID)
	if !ok {
		return nil, fmt.Errorf("%w: centroid for cluster %s", ErrNotFound, clusterID)
	}

	sid := sessionID.String()
	s.obs.Log().Info().Str("session_id", sid).Str("cluster_id", clusterID.String()).Int("num_clips", numClips).Msg("generating more like cluster")
	s.events.PublishWithData(runtime.EventBatchStarted, sid, map[string]interface{}{
		"workflow":   workflowMore,
		"num_clips":  numClips,
		"cluster_id": clusterID.String(),
	})

	prompt := RenderPrompt(sess.Brief, sess.Params)
	items, err := s.produce(ctx, sid, prompt, numClips, sess.Params.DurationSec)
	if err != nil {
		s.fail(sid, workflowMore, err)
		return nil, err
	}

	vectors := make([][]float32, len(items))
	for i := range items {
		vectors[i] = items[i].vector
	}
	accepted := similarity.Filter(vectors, centroid, s.cfg.MinSimilarity, numClips)

	keep := make(map[int]bool, len(accepted))
	for _, idx := range accepted {
		keep[idx] = true
	}
	for i := range items {
		if !keep[i] {
			s.discard(sid, items[i].clip.Path, "below similarity threshold")
		}
	}

	batch := store.Batch{
		ID:           uuid.New(),
		SessionID:    sessionID,
		CreatedAt:    time.Now().UTC(),
		PromptText:   prompt,
		NumRequested: numClips,
		NumGenerated: len(accepted),
	}
	c := store.Cluster{
		ID:        uuid.New(),
		BatchID:   batch.ID,
		Label:     parent.Label,
		CreatedAt: batch.CreatedAt,
	}
	kept := make([]pending, 0, len(accepted))
	memberVecs := make([][]float32, 0, len(accepted))
	for _, idx := range accepted {
		items[idx].cluster = c.ID
		c.TrackIDs = append(c.TrackIDs, items[idx].track)
		kept = append(kept, items[idx])
		memberVecs = append(memberVecs, items[idx].vector)
	}
	batch.Clusters = []store.Cluster{c}
	s.events.PublishWithData(runtime.EventClustersFormed, sid, map[string]interface{}{
		"clusters": 1,
		"accepted": len(accepted),
	})

	if err := s.commit(sessionID, &batch, kept, map[uuid.UUID][]float32{c.ID: similarity.Mean(memberVecs)}); err != nil {
		s.fail(sid, workflowMore, err)
		return nil, err
	}
	return &batch, nil
}

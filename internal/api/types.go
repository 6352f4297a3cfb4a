package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

type createSessionRequest struct {
	Brief    string            `json:"brief" validate:"min=1,max=2000"`
	NumClips int               `json:"num_clips" validate:"min=1"`
	Params   store.BriefParams `json:"params"`
}

type moreLikeRequest struct {
	NumClips int `json:"num_clips" validate:"min=1"`
}

type TrackOut struct {
	ID          uuid.UUID `json:"id"`
	AudioURL    string    `json:"audio_url"`
	DurationSec float64   `json:"duration_sec"`
}

type ClusterOut struct {
	ID     uuid.UUID  `json:"id"`
	Label  string     `json:"label"`
	Tracks []TrackOut `json:"tracks"`
}

type BatchOut struct {
	ID       uuid.UUID    `json:"id"`
	Clusters []ClusterOut `json:"clusters"`
}

type CreateSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Batch     BatchOut  `json:"batch"`
}

type MoreLikeResponse struct {
	SessionID       uuid.UUID `json:"session_id"`
	ParentClusterID uuid.UUID `json:"parent_cluster_id"`
	Batch           BatchOut  `json:"batch"`
}

type SessionOut struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Brief     string            `json:"brief"`
	Params    store.BriefParams `json:"params"`
	Batches   []BatchOut        `json:"batches"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewBatchOut flattens a stored batch into its wire form, tracks nested
// under their clusters in cluster order.
func NewBatchOut(b store.Batch) BatchOut {
	out := BatchOut{ID: b.ID, Clusters: make([]ClusterOut, 0, len(b.Clusters))}
	for _, c := range b.Clusters {
		co := ClusterOut{ID: c.ID, Label: c.Label, Tracks: make([]TrackOut, 0, len(c.TrackIDs))}
		for _, id := range c.TrackIDs {
			t, ok := b.Track(id)
			if !ok {
				continue
			}
			co.Tracks = append(co.Tracks, TrackOut{ID: t.ID, AudioURL: t.AudioURL, DurationSec: t.DurationSec})
		}
		out.Clusters = append(out.Clusters, co)
	}
	return out
}

func newSessionOut(s *store.Session) SessionOut {
	out := SessionOut{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Brief:     s.Brief,
		Params:    s.Params,
		Batches:   make([]BatchOut, 0, len(s.Batches)),
	}
	for _, b := range s.Batches {
		out.Batches = append(out.Batches, NewBatchOut(b))
	}
	return out
}

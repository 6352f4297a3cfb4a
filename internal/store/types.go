package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReferential reports a write that would break the store's invariants:
// an unknown session, a batch filed under the wrong session, or centroids
// that do not line up with the batch's clusters.
var ErrReferential = errors.New("referential integrity violation")

// ErrInvalidSession reports a brief or parameter set that fails validation.
var ErrInvalidSession = errors.New("invalid session")

// BriefParams are the musical knobs fixed when a session is created.
type BriefParams struct {
	Energy      float64 `json:"energy" yaml:"energy" validate:"gte=0,lte=1"`
	Density     float64 `json:"density" yaml:"density" validate:"gte=0,lte=1"`
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec" validate:"gt=0,lte=30"`
}

// Session is an exploration run. Batches are appended in creation order.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Brief     string `validate:"min=1,max=2000"`
	Params    BriefParams
	Batches   []Batch
}

// LastBatch returns the most recently appended batch.
func (s *Session) LastBatch() (Batch, bool) {
	if len(s.Batches) == 0 {
		return Batch{}, false
	}
	return s.Batches[len(s.Batches)-1], true
}

// Batch is one round of generation. It is immutable once committed.
type Batch struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	CreatedAt    time.Time
	PromptText   string
	NumRequested int
	NumGenerated int
	Clusters     []Cluster
	Tracks       []Track
}

// Track returns the batch track with the given id.
func (b Batch) Track(id uuid.UUID) (Track, bool) {
	for _, t := range b.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Cluster groups tracks of a batch under a short label.
type Cluster struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	Label     string `validate:"min=1,max=64"`
	TrackIDs  []uuid.UUID
	CreatedAt time.Time
}

// Track is a generated clip that survived embedding and clustering.
type Track struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	ClusterID   uuid.UUID
	AudioPath   string
	AudioURL    string
	DurationSec float64
	RawPrompt   string
	CreatedAt   time.Time
}

// Storage keeps sessions and the centroid of every committed cluster.
type Storage interface {
	CreateSession(brief string, params BriefParams) (*Session, error)
	GetSession(id uuid.UUID) (*Session, bool)
	// AddBatch appends batch to the session and records its centroids in one step.
	AddBatch(sessionID uuid.UUID, batch Batch, centroids map[uuid.UUID][]float32) error
	GetCluster(sessionID, clusterID uuid.UUID) (*Cluster, bool)
	GetCentroid(sessionID, clusterID uuid.UUID) ([]float32, bool)
}

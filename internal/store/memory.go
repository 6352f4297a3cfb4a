package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type centroidKey struct {
	session uuid.UUID
	cluster uuid.UUID
}

// MemoryStore is a process-lifetime Storage guarded by a single RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	centroids map[centroidKey][]float32
	validate  *validator.Validate
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[uuid.UUID]*Session),
		centroids: make(map[centroidKey][]float32),
		validate:  validator.New(),
		now:       time.Now,
	}
}

// CreateSession validates the brief and params and stores an empty session.
func (s *MemoryStore) CreateSession(brief string, params BriefParams) (*Session, error) {
	sess := &Session{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Brief:     brief,
		Params:    params,
	}
	if err := s.validate.Struct(sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.clone(), nil
}

func (s *MemoryStore) GetSession(id uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.clone(), true
}

func (s *MemoryStore) AddBatch(sessionID uuid.UUID, batch Batch, centroids map[uuid.UUID][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: unknown session %s", ErrReferential, sessionID)
	}
	if batch.SessionID != sessionID {
		return fmt.Errorf("%w: batch %s belongs to session %s, not %s", ErrReferential, batch.ID, batch.SessionID, sessionID)
	}

	clusterIDs := make(map[uuid.UUID]bool, len(batch.Clusters))
	for _, c := range batch.Clusters {
		clusterIDs[c.ID] = true
	}
	var missing, extra []string
	for id := range clusterIDs {
		if _, ok := centroids[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	for id := range centroids {
		if !clusterIDs[id] {
			extra = append(extra, id.String())
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing "+strings.Join(missing, ", "))
		}
		if len(extra) > 0 {
			parts = append(parts, "extra "+strings.Join(extra, ", "))
		}
		return fmt.Errorf("%w: centroid keys do not match clusters: %s", ErrReferential, strings.Join(parts, "; "))
	}

	sess.Batches = append(sess.Batches, batch.clone())
	for id, vec := range centroids {
		s.centroids[centroidKey{session: sessionID, cluster: id}] = append([]float32(nil), vec...)
	}
	return nil
}

// GetCluster searches every batch of the session for the cluster.
func (s *MemoryStore) GetCluster(sessionID, clusterID uuid.UUID) (*Cluster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	for _, b := range sess.Batches {
		for _, c := range b.Clusters {
			if c.ID == clusterID {
				cp := c.clone()
				return &cp, true
			}
		}
	}
	return nil, false
}

func (s *MemoryStore) GetCentroid(sessionID, clusterID uuid.UUID) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vec, ok := s.centroids[centroidKey{session: sessionID, cluster: clusterID}]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vec...), true
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Batches = make([]Batch, len(s.Batches))
	for i, b := range s.Batches {
		cp.Batches[i] = b.clone()
	}
	return &cp
}

func (b Batch) clone() Batch {
	cp := b
	cp.Clusters = make([]Cluster, len(b.Clusters))
	for i, c := range b.Clusters {
		cp.Clusters[i] = c.clone()
	}
	cp.Tracks = append([]Track(nil), b.Tracks...)
	return cp
}

func (c Cluster) clone() Cluster {
	cp := c
	cp.TrackIDs = append([]uuid.UUID(nil), c.TrackIDs...)
	return cp
}

// Package session holds the per-client "current dataset" between a generate
// request and the clustering runs that follow it.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
)

// ErrDatasetNotReady is returned when a run is requested before a dataset
// has been generated in the session.
var ErrDatasetNotReady = errors.New("dataset not generated")

// Defaults for the session store.
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// Session owns one client's current dataset. Generate replaces it wholesale
// (last writer wins); readers always see a complete dataset or none.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.RWMutex
	ds          *dataset.Dataset
	generatedAt time.Time
}

// SetDataset replaces the session's current dataset.
func (s *Session) SetDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.generatedAt = time.Now()
}

// Points returns a copy of the current point set.
func (s *Session) Points() ([]kmeans.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil || len(s.ds.Points) == 0 {
		return nil, ErrDatasetNotReady
	}
	out := make([]kmeans.Point, len(s.ds.Points))
	copy(out, s.ds.Points)
	return out, nil
}

// Dataset returns the current dataset and when it was generated. The dataset
// must be treated as read-only.
func (s *Session) Dataset() (*dataset.Dataset, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, time.Time{}, ErrDatasetNotReady
	}
	return s.ds, s.generatedAt, nil
}

// Store keeps sessions in memory and expires them after a period without
// access.
type Store struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire after ttl without use.
// Non-positive values fall back to the defaults.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	items := cache.New(ttl, cleanupInterval)
	items.OnEvicted(func(id string, _ interface{}) {
		monitoring.Logf("session %s expired", id)
	})
	return &Store{items: items, ttl: ttl}
}

// Create starts a new, empty session.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	st.items.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get returns the session with the given ID and refreshes its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	v, ok := st.items.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.items.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// GetOrCreate returns the named session, or a fresh one when the ID is empty,
// unknown or expired. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.items.Delete(id)
}

// Len returns the number of live sessions, including expired sessions not
// yet swept.
func (st *Store) Len() int {
	return st.items.ItemCount()
}

// TTL returns the idle expiry of sessions.
func (st *Store) TTL() time.Duration {
	return st.ttl
}

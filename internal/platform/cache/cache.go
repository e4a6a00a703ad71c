// Package cache provides the short-lived key-value store that carries
// approval state between decoupled requests: a TR-ID validation written by
// the check step and consumed by report creation, and the generated
// prescription artifact held until it is emailed. Entries expire natively;
// nothing here sweeps them.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is a key-value store with per-key expiry. Implementations provide no
// multi-key atomicity; callers sequence their own put/delete ordering.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Key builders
// ---------------------------------------------------------------------------

// ValidationKey holds the validated patient TR-ID for an actor between the
// check step and report creation. Consumed (read then deleted) on create.
func ValidationKey(actor string) string {
	return "validation:" + actor
}

// PrescriptionArtifactKey holds the base64-encoded prescription PDF for an
// actor until it is sent.
func PrescriptionArtifactKey(actor string) string {
	return "prescriptionArtifact:" + actor
}

// PrescriptionSubjectKey holds the patient TR-ID correlated with the cached
// artifact. The artifact and subject keys are always written together and
// must both be present for a send to proceed.
func PrescriptionSubjectKey(actor string) string {
	return "prescriptionSubject:" + actor
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a thread-safe, in-memory Store for testing and development.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

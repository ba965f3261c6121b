// internal/idempotency/store.go
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrInFlight means another request holding the same key has not finished.
var ErrInFlight = errors.New("idempotent request still in flight")

// Record is the stored outcome of a finished request. Fingerprint identifies
// the request body that produced it.
type Record struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Fingerprint returns the hex SHA-256 of b.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Store reserves idempotency keys and remembers the outcome under them.
type Store interface {
	// Begin reserves key. It returns (nil, nil) when the caller now owns the
	// key, the stored record when the key already completed, or ErrInFlight.
	Begin(ctx context.Context, key string) (*Record, error)
	Complete(ctx context.Context, key string, rec Record) error
	// Abandon releases a reservation so the request can be retried.
	Abandon(ctx context.Context, key string) error
}

type memoryEntry struct {
	record    *Record
	expiresAt time.Time
}

// MemoryStore is a process-scoped Store; entries vanish on restart.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Begin(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.record == nil {
			return nil, ErrInFlight
		}
		rec := *e.record
		return &rec, nil
	}

	s.entries[key] = memoryEntry{expiresAt: now.Add(s.ttl)}
	return nil, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{record: &rec, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Abandon(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

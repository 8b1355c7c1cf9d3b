// Package jobstore persists job payload envelopes between enqueue and
// dispatch. Job state itself lives in the repository; the store only
// carries the work description until a worker claims it.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

var ErrNotFound = errors.New("payload not found")

// Envelope wraps a job payload with the routing fields the dispatcher
// needs without decoding the payload itself.
type Envelope struct {
	JobID     string          `json:"job_id"`
	Type      domain.JobType  `json:"type"`
	TimeoutMS int64           `json:"timeout_ms"`
	Payload   json.RawMessage `json:"payload"`
}

type Store interface {
	Put(ctx context.Context, envelope Envelope) error
	Get(ctx context.Context, jobID string) (Envelope, error)
	Delete(ctx context.Context, jobID string) error
}

// MemoryStore keeps envelopes in process memory for local development.
type MemoryStore struct {
	mu        sync.RWMutex
	envelopes map[string]Envelope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{envelopes: make(map[string]Envelope)}
}

func (s *MemoryStore) Put(_ context.Context, envelope Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := envelope
	copied.Payload = append([]byte(nil), envelope.Payload...)
	s.envelopes[envelope.JobID] = copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	envelope, ok := s.envelopes[jobID]
	if !ok {
		return Envelope{}, ErrNotFound
	}
	copied := envelope
	copied.Payload = append([]byte(nil), envelope.Payload...)
	return copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.envelopes[jobID]; !ok {
		return ErrNotFound
	}
	delete(s.envelopes, jobID)
	return nil
}

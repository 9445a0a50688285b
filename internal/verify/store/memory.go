package store

import (
	"context"
	"sync"
	"time"

	"stagepass/internal/verify/models"
)

// InMemory stores verification records in memory for the demo environment
// and tests. The compare-and-set in TransitionStatus runs under the store
// lock, giving the same linearizability the PostgreSQL store gets from its
// conditional update.
type InMemory struct {
	mu      sync.RWMutex
	records map[memKey]*models.VerificationRecord
}

type memKey struct {
	participantID string
	eventID       string
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[memKey]*models.VerificationRecord)}
}

// Put inserts or replaces a record. Used by the seeder and tests.
func (s *InMemory) Put(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[memKey{participantID: rec.ParticipantID, eventID: rec.EventID}] = &clone
	return nil
}

// FindRecord retrieves the record for (participantID, eventID).
func (s *InMemory) FindRecord(_ context.Context, participantID, eventID string) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[memKey{participantID: participantID, eventID: eventID}]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

// TransitionStatus performs the compare-and-set under the store lock.
func (s *InMemory) TransitionStatus(_ context.Context, participantID, eventID string, expected, next models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memKey{participantID: participantID, eventID: eventID}]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != expected {
		return ErrConflict
	}
	rec.Status = next
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

var _ RecordStore = (*InMemory)(nil)

// Package store defines the narrow interface the reconciler uses to reach
// the authoritative record store, plus memory and PostgreSQL implementations.
package store

import (
	"context"

	"stagepass/internal/sentinel"
	"stagepass/internal/verify/models"
)

// Errors returned by record stores. Services translate these into domain
// errors exactly once.
var (
	// ErrNotFound is returned when no record exists for the pair.
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned when a conditional status transition lost to a
	// concurrent writer. This is how the reconciler detects a concurrent
	// winner; it is never propagated as a generic error.
	ErrConflict = sentinel.ErrConflict
	// ErrDuplicateRecords is returned when more than one row matches a
	// (participant, event) pair. That is a store-integrity violation; the
	// store never silently picks one.
	ErrDuplicateRecords = sentinel.ErrInvalidState
)

// RecordStore is the authoritative source for verification records. All
// cross-instance coordination funnels through TransitionStatus, which must
// be an atomic compare-and-set: that alone prevents double admission of a
// single physical credential.
type RecordStore interface {
	// FindRecord returns the single record for (participantID, eventID),
	// ErrNotFound when none exists, or ErrDuplicateRecords when the store
	// holds more than one matching row.
	FindRecord(ctx context.Context, participantID, eventID string) (*models.VerificationRecord, error)

	// TransitionStatus atomically moves the record from expected to next.
	// It returns ErrConflict when the stored status no longer equals
	// expected, and ErrNotFound when the record does not exist.
	TransitionStatus(ctx context.Context, participantID, eventID string, expected, next models.Status) error
}

// Package reconciler compares claimed identity against the authoritative
// record and applies the single-use status transition.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"stagepass/internal/verify/models"
	"stagepass/internal/verify/store"
	"stagepass/internal/verify/tracer"
)

// Reconciler owns the field-by-field comparison and the atomic status
// transition. It never mutates a record on mismatch: a mismatched scan must
// not consume the record's single use.
type Reconciler struct {
	store  store.RecordStore
	logger *slog.Logger
	tracer tracer.Tracer
}

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// WithTracer injects a tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(r *Reconciler) { r.tracer = t }
}

// New creates a Reconciler backed by the given record store.
func New(recordStore store.RecordStore, opts ...Option) (*Reconciler, error) {
	if recordStore == nil {
		return nil, fmt.Errorf("record store is required")
	}
	r := &Reconciler{
		store:  recordStore,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Reconcile looks up the record for the claimed (participant, event) pair,
// computes the match map, and applies the status transition:
//
//	pending  -> verified  (outcome verified; the sole cacheable success)
//	verified -> expired   (outcome already_used; the replay consumes the token)
//	expired  -> no change (outcome expired)
//
// The caller guarantees both identifiers are present; absence never reaches
// this component. The transition itself is a compare-and-set in the store,
// so two simultaneous scans of the same pending credential yield exactly one
// verified outcome regardless of arrival order.
func (r *Reconciler) Reconcile(ctx context.Context, ic models.IdentityClaims) models.VerificationResult {
	participantID := ic.ParticipantID.Value
	eventID := ic.EventID.Value

	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcile,
		tracer.String(tracer.AttrParticipant, tracer.HashID(participantID)),
		tracer.String(tracer.AttrEventID, eventID),
	)

	result := r.reconcile(ctx, ic, participantID, eventID)

	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(result.Outcome)))
	span.End(nil)

	r.logger.Info("reconciled scan",
		"participant", tracer.HashID(participantID),
		"event_id", eventID,
		"outcome", result.Outcome,
		"record_status", result.RecordStatus,
	)
	return result
}

func (r *Reconciler) reconcile(ctx context.Context, ic models.IdentityClaims, participantID, eventID string) models.VerificationResult {
	rec, err := r.store.FindRecord(ctx, participantID, eventID)
	if err != nil {
		return r.lookupFailure(participantID, eventID, err)
	}

	matched := models.CompareFields(ic, rec)
	result := models.VerificationResult{
		Matched:      &matched,
		RecordStatus: rec.Status,
	}

	if !matched.AllMatch() {
		// No status mutation on mismatch, even if the identifiers agreed.
		result.Outcome = models.OutcomeRejected
		result.Reason = "claimed fields disagree with the record"
		return result
	}

	switch rec.Status {
	case models.StatusPending:
		return r.admit(ctx, result, participantID, eventID)
	case models.StatusVerified:
		return r.consumeReplay(ctx, result, participantID, eventID)
	case models.StatusExpired:
		result.Outcome = models.OutcomeExpired
		result.Reason = "credential was already consumed"
		return result
	default:
		result.Outcome = models.OutcomeRejected
		result.Reason = fmt.Sprintf("record status %q is not verifiable", rec.Status)
		return result
	}
}

// admit performs the sole transition that produces a cacheable success.
func (r *Reconciler) admit(ctx context.Context, result models.VerificationResult, participantID, eventID string) models.VerificationResult {
	err := r.store.TransitionStatus(ctx, participantID, eventID, models.StatusPending, models.StatusVerified)
	switch {
	case err == nil:
		result.Outcome = models.OutcomeVerified
		result.RecordStatus = models.StatusVerified
	case errors.Is(err, store.ErrConflict):
		// A concurrent scan won the compare-and-set; this one is the replay.
		result.Outcome = models.OutcomeAlreadyUsed
		result.RecordStatus = r.refreshStatus(ctx, participantID, eventID, result.RecordStatus)
		result.Reason = "a concurrent scan admitted this credential first"
	case errors.Is(err, store.ErrNotFound):
		result.Outcome = models.OutcomeNotFound
		result.Reason = "record disappeared during verification"
	default:
		r.logger.Error("status transition failed", "error", err)
		result.Outcome = models.OutcomeStoreError
		result.Reason = "store transition failed"
	}
	return result
}

// consumeReplay demotes an already-verified record so further scans of the
// same credential can never report verified again.
func (r *Reconciler) consumeReplay(ctx context.Context, result models.VerificationResult, participantID, eventID string) models.VerificationResult {
	err := r.store.TransitionStatus(ctx, participantID, eventID, models.StatusVerified, models.StatusExpired)
	switch {
	case err == nil:
		result.Outcome = models.OutcomeAlreadyUsed
		result.RecordStatus = models.StatusExpired
		result.Reason = "credential was already admitted"
	case errors.Is(err, store.ErrConflict):
		result.Outcome = models.OutcomeExpired
		result.RecordStatus = r.refreshStatus(ctx, participantID, eventID, result.RecordStatus)
		result.Reason = "credential was already consumed"
	case errors.Is(err, store.ErrNotFound):
		result.Outcome = models.OutcomeNotFound
		result.Reason = "record disappeared during verification"
	default:
		r.logger.Error("status transition failed", "error", err)
		result.Outcome = models.OutcomeStoreError
		result.Reason = "store transition failed"
	}
	return result
}

func (r *Reconciler) lookupFailure(participantID, eventID string, err error) models.VerificationResult {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.VerificationResult{
			Outcome: models.OutcomeNotFound,
			Reason:  "no record for this participant at this event",
		}
	case errors.Is(err, store.ErrDuplicateRecords):
		r.logger.Error("store integrity violation",
			"participant", tracer.HashID(participantID),
			"event_id", eventID,
			"error", err,
		)
		return models.VerificationResult{
			Outcome: models.OutcomeStoreError,
			Reason:  "store holds duplicate records for this credential",
		}
	default:
		r.logger.Error("record lookup failed", "error", err)
		return models.VerificationResult{
			Outcome: models.OutcomeStoreError,
			Reason:  "record lookup failed",
		}
	}
}

// refreshStatus re-reads the record after a lost compare-and-set so the
// result reports the status the concurrent winner left behind. Best effort:
// on failure the previously observed status stands.
func (r *Reconciler) refreshStatus(ctx context.Context, participantID, eventID string, fallback models.Status) models.Status {
	rec, err := r.store.FindRecord(ctx, participantID, eventID)
	if err != nil {
		return fallback
	}
	return rec.Status
}

// Package service composes the verification pipeline. One scan in, one
// tagged result out; no failure ever escapes as a panic or a bare error.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"stagepass/internal/verify/claims"
	"stagepass/internal/verify/history"
	"stagepass/internal/verify/metrics"
	"stagepass/internal/verify/models"
	"stagepass/internal/verify/token"
	"stagepass/internal/verify/tracer"
)

// Reconciler compares claims against the authoritative record and applies
// the single-use status transition.
type Reconciler interface {
	Reconcile(ctx context.Context, ic models.IdentityClaims) models.VerificationResult
}

// ResultCache is the bounded short-lived store of prior verified results.
// Implementations only retain verified outcomes.
type ResultCache interface {
	Lookup(participantID, eventID string) (models.VerificationResult, bool)
	Store(participantID, eventID string, result models.VerificationResult)
	Clear()
	Len() int
}

const defaultMinScanDelay = 150 * time.Millisecond

// Service is the verification orchestrator. It owns the cache, the scan
// pacing, and the recent-scan log; the reconciler owns correctness.
type Service struct {
	reconciler Reconciler
	cache      ResultCache
	history    *history.Log
	limiter    *rate.Limiter
	secret     []byte
	logger     *slog.Logger
	tracer     tracer.Tracer
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTracer injects a tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithMetrics injects the engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMACSecret enables signature verification. Without a secret every scan
// proceeds with signature status "unverified".
func WithMACSecret(secret []byte) Option {
	return func(s *Service) { s.secret = secret }
}

// WithMinScanDelay sets the minimum spacing between store-bound scans.
// Cache hits are never delayed.
func WithMinScanDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithHistoryLimit sets how many recent scans are retained for display.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) { s.history = history.NewLog(limit) }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the orchestrator.
func New(reconciler Reconciler, cache ResultCache, opts ...Option) (*Service, error) {
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("result cache is required")
	}
	s := &Service{
		reconciler: reconciler,
		cache:      cache,
		history:    history.NewLog(history.DefaultLimit),
		limiter:    rate.NewLimiter(rate.Every(defaultMinScanDelay), 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     tracer.NewNoop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scan runs the full pipeline for one scanned credential and returns exactly
// one tagged result. Terminal on the first resolved outcome:
//
//  1. malformed when the text does not decode
//  2. signature_invalid when a secret is configured and the MAC disagrees,
//     or the declared algorithm is unsupported
//  3. rejected when a required identifier is absent
//  4. the cached result on a fresh cache hit, with no store call or delay
//  5. otherwise the reconciler's verdict, paced by the scan delay
func (s *Service) Scan(ctx context.Context, text string) models.VerificationResult {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanScan)

	result := s.scan(ctx, text)
	result.ScanID = uuid.NewString()
	result.ScannedAt = start

	span.SetAttributes(
		tracer.String(tracer.AttrOutcome, string(result.Outcome)),
		tracer.String(tracer.AttrSignature, string(result.Signature)),
		tracer.Bool(tracer.AttrCacheHit, result.Cached),
	)
	span.End(nil)

	s.history.Append(result)
	if s.metrics != nil {
		s.metrics.RecordScan(string(result.Outcome), s.now().Sub(start).Seconds())
		s.metrics.SetCacheEntries(s.cache.Len())
	}
	s.logger.Info("scan completed",
		"scan_id", result.ScanID,
		"outcome", result.Outcome,
		"signature", result.Signature,
		"cached", result.Cached,
	)
	return result
}

func (s *Service) scan(ctx context.Context, text string) models.VerificationResult {
	_, span := s.tracer.Start(ctx, tracer.SpanDecode)
	decoded, err := token.Decode(text)
	span.End(err)
	if err != nil {
		return models.VerificationResult{
			Outcome:   models.OutcomeMalformed,
			Signature: models.SignatureUnverified,
			Reason:    "credential text is not a well-formed token",
		}
	}

	sigStatus := token.VerifySignature(decoded.SigningInput, decoded.Signature, decoded.Algorithm(), s.secret)
	if sigStatus == models.SignatureInvalid || sigStatus == models.SignatureUnsupported {
		if s.metrics != nil {
			s.metrics.RecordSignatureFailure()
		}
		return models.VerificationResult{
			Outcome:   models.OutcomeSignatureInvalid,
			Signature: sigStatus,
			Reason:    signatureReason(sigStatus, decoded.Algorithm()),
			// Decoded claims stay attached for operator display even though
			// they are untrusted.
			Claims: claims.Extract(decoded.Payload),
		}
	}

	ic := claims.Extract(decoded.Payload)
	if !ic.HasRequired() {
		return models.VerificationResult{
			Outcome:   models.OutcomeRejected,
			Signature: sigStatus,
			Reason:    "credential carries no participant or event identifier",
			Claims:    ic,
		}
	}

	if cached, ok := s.cache.Lookup(ic.ParticipantID.Value, ic.EventID.Value); ok {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		cached.Cached = true
		cached.Signature = sigStatus
		cached.TokenExpired = ic.TokenExpired(s.now())
		return cached
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return models.VerificationResult{
				Outcome:   models.OutcomeStoreError,
				Signature: sigStatus,
				Reason:    "scan cancelled while pacing",
				Claims:    ic,
			}
		}
	}

	reconcileStart := s.now()
	result := s.reconciler.Reconcile(ctx, ic)
	if s.metrics != nil {
		s.metrics.ObserveReconcile(s.now().Sub(reconcileStart).Seconds())
	}

	result.Signature = sigStatus
	result.Claims = ic
	result.TokenExpired = ic.TokenExpired(s.now())

	s.cache.Store(ic.ParticipantID.Value, ic.EventID.Value, result)
	return result
}

// RecentScans returns the retained scan log, newest first.
func (s *Service) RecentScans() []models.VerificationResult {
	return s.history.Recent()
}

// ClearCache empties the verification cache, forcing the next scan of every
// credential back to the store.
func (s *Service) ClearCache() {
	s.cache.Clear()
	if s.metrics != nil {
		s.metrics.SetCacheEntries(0)
	}
	s.logger.Info("verification cache cleared")
}

// ClearHistory drops the retained scan log.
func (s *Service) ClearHistory() {
	s.history.Clear()
}

func signatureReason(status models.SignatureStatus, alg string) string {
	if status == models.SignatureUnsupported {
		return fmt.Sprintf("signing algorithm %q is not supported", alg)
	}
	return "credential signature does not verify"
}

// Package tracer provides a lightweight tracing abstraction for the
// verification engine.
//
// It defines an internal tracer interface that does not depend directly on
// OpenTelemetry APIs, so the engine can emit distributed traces while
// remaining decoupled from a specific tracing implementation.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans for distributed tracing.
// Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes. The
	// returned context contains the new span and should be passed to child
	// operations. The span must be ended by calling Span.End().
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashID returns a short SHA-256 hash of a participant identifier for safe
// logging in traces. This allows correlating scans without exposing the
// underlying identity.
func HashID(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the verification engine.
const (
	SpanScan      = "verify.scan"
	SpanDecode    = "verify.decode"
	SpanReconcile = "verify.reconcile"
)

// Attribute keys used by the verification engine.
const (
	AttrParticipant = "participant_hash"
	AttrEventID     = "event_id"
	AttrOutcome     = "outcome"
	AttrSignature   = "signature_status"
	AttrCacheHit    = "cache.hit"
)

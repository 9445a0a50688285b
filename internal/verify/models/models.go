// Package models defines the domain types for credential verification:
// participant records, identity claims carried by scanned credentials, and
// the tagged result returned for every scan.
package models

import "time"

// Status is the lifecycle state of a verification record. A credential is
// admitted exactly once: the record moves pending -> verified on the first
// matching scan and verified -> expired when the same credential is replayed.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusExpired  Status = "expired"
)

// Outcome tags the terminal result of one scan. Exactly one outcome is
// produced per scan; no path is ever silently swallowed.
type Outcome string

const (
	OutcomeVerified         Outcome = "verified"
	OutcomeRejected         Outcome = "rejected"
	OutcomeAlreadyUsed      Outcome = "already_used"
	OutcomeExpired          Outcome = "expired"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeSignatureInvalid Outcome = "signature_invalid"
	OutcomeStoreError       Outcome = "store_error"
)

// SignatureStatus reports what happened at the trust layer. "unverified"
// means no secret is configured and verification never ran; it is surfaced
// distinctly so it can never be conflated with a verified signature.
type SignatureStatus string

const (
	SignatureVerified    SignatureStatus = "verified"
	SignatureInvalid     SignatureStatus = "invalid"
	SignatureUnverified  SignatureStatus = "unverified"
	SignatureUnsupported SignatureStatus = "unsupported_alg"
)

// Field is an optional claim value. Present distinguishes "claim absent"
// from "claim present but empty" so missing fields never collapse into a
// false default.
type Field struct {
	Value   string
	Present bool
}

// NewField returns a present field with the given normalized value.
func NewField(value string) Field {
	return Field{Value: value, Present: true}
}

// String returns the field value or the empty string when absent.
func (f Field) String() string {
	if !f.Present {
		return ""
	}
	return f.Value
}

// IdentityClaims is the fixed identity subset recognized from a decoded
// credential payload. All values are normalized strings: numeric and string
// representations of the same id compare equal.
type IdentityClaims struct {
	ParticipantID   Field
	EventID         Field
	Name            Field
	SongTitle       Field
	CategoryID      Field
	CategoryName    Field
	SubCategoryID   Field
	SubCategoryName Field

	IssuedAt  *time.Time
	ExpiresAt *time.Time
	NotBefore *time.Time
}

// HasRequired reports whether the claims carry both identifiers the
// reconciler needs. Absence is a terminal rejection, not a retryable error.
func (c IdentityClaims) HasRequired() bool {
	return c.ParticipantID.Present && c.EventID.Present
}

// TokenExpired reports whether the credential itself is past its exp claim.
// This is display-level only; record consumption is governed by Status.
func (c IdentityClaims) TokenExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// VerificationRecord is the authoritative store row for one participant at
// one event. Identity fields are stored as normalized strings.
type VerificationRecord struct {
	ParticipantID   string
	EventID         string
	Name            string
	SongTitle       string
	CategoryID      string
	CategoryName    string
	SubCategoryID   string
	SubCategoryName string
	Status          Status
	UpdatedAt       time.Time
}

// MatchedFields is the field-by-field comparison between claimed identity
// and the backing record. It is attached to every result where a record was
// found, regardless of the final verdict, for audit display.
type MatchedFields struct {
	ID              bool `json:"id"`
	Name            bool `json:"name"`
	EventID         bool `json:"eventId"`
	SongTitle       bool `json:"songTitle"`
	CategoryID      bool `json:"categoryId"`
	CategoryName    bool `json:"categoryName"`
	SubCategoryID   bool `json:"subCategoryId"`
	SubCategoryName bool `json:"subCategoryName"`
}

// AllMatch reports whether every identity field agreed.
func (m MatchedFields) AllMatch() bool {
	return m.ID && m.Name && m.EventID && m.SongTitle &&
		m.CategoryID && m.CategoryName && m.SubCategoryID && m.SubCategoryName
}

// CompareFields computes the match map between claims and record. An absent
// claim field never matches: the operator must see exactly which fields the
// credential failed to carry.
func CompareFields(claims IdentityClaims, rec *VerificationRecord) MatchedFields {
	match := func(f Field, stored string) bool {
		return f.Present && f.Value == stored
	}
	return MatchedFields{
		ID:              match(claims.ParticipantID, rec.ParticipantID),
		Name:            match(claims.Name, rec.Name),
		EventID:         match(claims.EventID, rec.EventID),
		SongTitle:       match(claims.SongTitle, rec.SongTitle),
		CategoryID:      match(claims.CategoryID, rec.CategoryID),
		CategoryName:    match(claims.CategoryName, rec.CategoryName),
		SubCategoryID:   match(claims.SubCategoryID, rec.SubCategoryID),
		SubCategoryName: match(claims.SubCategoryName, rec.SubCategoryName),
	}
}

// VerificationResult is the single tagged outcome returned per scan.
type VerificationResult struct {
	ScanID    string          `json:"scan_id"`
	Outcome   Outcome         `json:"outcome"`
	Signature SignatureStatus `json:"signature"`
	Reason    string          `json:"reason,omitempty"`

	// Matched and RecordStatus are set whenever a record lookup occurred.
	Matched      *MatchedFields `json:"matched_fields,omitempty"`
	RecordStatus Status         `json:"record_status,omitempty"`

	Claims       IdentityClaims `json:"-"`
	TokenExpired bool           `json:"token_expired,omitempty"`
	Cached       bool           `json:"cached,omitempty"`
	ScannedAt    time.Time      `json:"scanned_at"`
}

// IsVerified reports whether this scan admitted the credential.
func (r VerificationResult) IsVerified() bool {
	return r.Outcome == OutcomeVerified
}

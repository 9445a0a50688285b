// Package token decodes and verifies the compact signed credentials carried
// in scanned QR codes. Decoding is pure and stateless; verification is keyed
// by a single configured secret.
package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "stagepass/pkg/domain-errors"
)

// Decoded is the structural decomposition of one scanned credential. It is
// ephemeral: it exists only for the duration of one scan.
type Decoded struct {
	Header  map[string]any
	Payload jwt.MapClaims

	// SigningInput is the literal "header.payload" byte string exactly as it
	// appeared in the input. It is sliced from the scanned text, never
	// re-derived by re-encoding, so verification sees the signed bytes.
	SigningInput string

	// Signature holds the raw decoded signature bytes; RawSignature keeps the
	// base64url segment as scanned.
	Signature    []byte
	RawSignature string
}

// Algorithm returns the declared signing algorithm from the token header,
// or the empty string when the header carries none.
func (d *Decoded) Algorithm() string {
	alg, _ := d.Header["alg"].(string)
	return alg
}

// parser keeps numbers as json.Number so numeric ids survive with their
// exact textual representation instead of going through float64.
var parser = jwt.NewParser(jwt.WithJSONNumber())

// IsWellFormed reports whether text splits into exactly three non-empty
// base64url segments. No cryptographic work is performed.
func IsWellFormed(text string) bool {
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		if _, err := parser.DecodeSegment(part); err != nil {
			return false
		}
	}
	return true
}

// Decode splits and decodes a scanned credential without verifying it.
// Header and payload parse failures return a malformed_token domain error.
func Decode(text string) (*Decoded, error) {
	payload := jwt.MapClaims{}
	tok, parts, err := parser.ParseUnverified(text, payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedToken, "token is not a well-formed credential")
	}
	if parts[2] == "" {
		return nil, dErrors.New(dErrors.CodeMalformedToken, "token signature segment is empty")
	}
	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedToken, "token signature segment is not valid base64url")
	}

	return &Decoded{
		Header:       tok.Header,
		Payload:      payload,
		SigningInput: text[:len(parts[0])+1+len(parts[1])],
		Signature:    sig,
		RawSignature: parts[2],
	}, nil
}

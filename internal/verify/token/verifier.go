package token

import (
	"github.com/golang-jwt/jwt/v5"

	"stagepass/internal/verify/models"
)

// VerifySignature recomputes the HS256 MAC over the signing input and
// compares it to the embedded signature. The comparison inside golang-jwt is
// constant time (hmac.Equal); the secret is a trust anchor.
//
// The three non-verified states are kept distinct on purpose:
//   - no secret configured -> SignatureUnverified (verification never ran)
//   - unsupported algorithm -> SignatureUnsupported (never silently skipped)
//   - MAC disagreement      -> SignatureInvalid
func VerifySignature(signingInput string, signature []byte, alg string, secret []byte) models.SignatureStatus {
	if len(secret) == 0 {
		return models.SignatureUnverified
	}
	if alg != jwt.SigningMethodHS256.Alg() {
		return models.SignatureUnsupported
	}
	if err := jwt.SigningMethodHS256.Verify(signingInput, signature, secret); err != nil {
		return models.SignatureInvalid
	}
	return models.SignatureVerified
}

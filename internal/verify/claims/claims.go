// Package claims projects decoded credential payloads onto the domain's
// participant-identity shape. Extraction is purely structural: no validation
// happens here, and unknown claims pass through untouched for display.
package claims

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stagepass/internal/verify/models"
)

// Identity claim names as issued inside the credential's "data" claim.
const (
	claimID              = "id"
	claimEventID         = "eventId"
	claimName            = "name"
	claimSongTitle       = "songTitle"
	claimCategoryID      = "categoryId"
	claimCategoryName    = "categoryName"
	claimSubCategoryID   = "subCategoryId"
	claimSubCategoryName = "subCategoryName"
)

// Extract pulls the fixed identity subset from a decoded payload. Identity
// fields live inside the "data" claim; payloads without one are read at the
// top level. Missing or null fields stay absent, never defaulted.
func Extract(payload jwt.MapClaims) models.IdentityClaims {
	source := map[string]any(payload)
	if data, ok := payload["data"].(map[string]any); ok {
		source = data
	}

	ic := models.IdentityClaims{
		ParticipantID:   field(source, claimID),
		EventID:         field(source, claimEventID),
		Name:            field(source, claimName),
		SongTitle:       field(source, claimSongTitle),
		CategoryID:      field(source, claimCategoryID),
		CategoryName:    field(source, claimCategoryName),
		SubCategoryID:   field(source, claimSubCategoryID),
		SubCategoryName: field(source, claimSubCategoryName),
	}

	if exp, err := payload.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		ic.ExpiresAt = &t
	}
	if iat, err := payload.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		ic.IssuedAt = &t
	}
	if nbf, err := payload.GetNotBefore(); err == nil && nbf != nil {
		t := nbf.Time
		ic.NotBefore = &t
	}
	return ic
}

func field(source map[string]any, key string) models.Field {
	v, ok := source[key]
	if !ok {
		return models.Field{}
	}
	s, ok := Normalize(v)
	if !ok {
		return models.Field{}
	}
	return models.NewField(s)
}

// Normalize renders a claim value as its canonical string so numeric and
// string representations of the same id compare equal. Null and structured
// values have no canonical form and report false.
func Normalize(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// DisplayPayload prettifies registered temporal claims for operator display,
// keeping the raw values alongside. Unknown claims pass through as-is.
func DisplayPayload(payload jwt.MapClaims) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch key {
		case "exp":
			out["Expires"] = formatUnix(value)
			out["exp (raw)"] = value
		case "iat":
			out["Issued At"] = formatUnix(value)
			out["iat (raw)"] = value
		case "nbf":
			out["Not Before"] = formatUnix(value)
			out["nbf (raw)"] = value
		case "iss":
			out["Issuer"] = value
		case "sub":
			out["Subject"] = value
		case "aud":
			out["Audience"] = value
		case "jti":
			out["Token ID"] = value
		default:
			out[key] = value
		}
	}
	return out
}

func formatUnix(value any) string {
	s, ok := Normalize(value)
	if !ok {
		return ""
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ""
	}
	return time.Unix(int64(secs), 0).UTC().Format(time.RFC3339)
}

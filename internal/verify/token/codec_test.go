package token_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/verify/token"
	dErrors "stagepass/pkg/domain-errors"
)

func mintHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestIsWellFormed(t *testing.T) {
	valid := mintHS256(t, jwt.MapClaims{"data": map[string]any{"id": 42}})

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"signed token", valid, true},
		{"empty", "", false},
		{"plain text", "not a token", false},
		{"two segments", strings.Join(strings.Split(valid, ".")[:2], "."), false},
		{"four segments", valid + ".extra", false},
		{"empty signature segment", strings.Join(strings.Split(valid, ".")[:2], ".") + ".", false},
		{"invalid base64url", "!!!.###.$$$", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, token.IsWellFormed(tc.text))
		})
	}
}

func TestDecode(t *testing.T) {
	text := mintHS256(t, jwt.MapClaims{
		"data": map[string]any{"id": 42, "eventId": 7},
		"exp":  1900000000,
	})

	decoded, err := token.Decode(text)
	require.NoError(t, err)

	assert.Equal(t, "HS256", decoded.Algorithm())
	assert.NotEmpty(t, decoded.Signature)

	data, ok := decoded.Payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "id")
	assert.Contains(t, data, "eventId")

	// The signing input is the literal scanned prefix, never re-encoded.
	lastDot := strings.LastIndex(text, ".")
	assert.Equal(t, text[:lastDot], decoded.SigningInput)
	assert.Equal(t, text[lastDot+1:], decoded.RawSignature)
}

func TestDecodeNumbersKeepTextualForm(t *testing.T) {
	text := mintHS256(t, jwt.MapClaims{"data": map[string]any{"id": 9007199254740993}})

	decoded, err := token.Decode(text)
	require.NoError(t, err)

	data := decoded.Payload["data"].(map[string]any)
	// json.Number preserves ids a float64 round-trip would corrupt.
	assert.Equal(t, json.Number("9007199254740993"), data["id"])
}

func TestDecodeRejectsMalformedText(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no dots", "garbage"},
		{"bad payload", "eyJhbGciOiJIUzI1NiJ9.%%%.c2ln"},
		{"missing signature", "eyJhbGciOiJIUzI1NiJ9.eyJmb28iOiJiYXIifQ."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := token.Decode(tc.text)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedToken))
		})
	}
}

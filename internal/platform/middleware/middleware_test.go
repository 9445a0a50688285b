package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/platform/logger"
	"stagepass/internal/platform/middleware"
	"stagepass/pkg/secrets"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "client-id", captured)
}

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	h := middleware.Recovery(logger.NewTest())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestContentTypeJSONRejectsOtherTypes(t *testing.T) {
	h := middleware.ContentTypeJSON(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDeviceTagsContext(t *testing.T) {
	var captured string
	h := middleware.Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetDevice(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, captured, "mobile")
}

func operatorRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if token != "" {
		req.Header.Set("X-Operator-Token", token)
	}
	return req
}

func TestOperatorTokenPlainMatch(t *testing.T) {
	h := middleware.RequireOperatorToken("sesame", "", logger.NewTest())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest("sesame"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest("wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperatorTokenHashMatch(t *testing.T) {
	hash, err := secrets.Hash("sesame")
	require.NoError(t, err)
	h := middleware.RequireOperatorToken("", hash, logger.NewTest())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest("sesame"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest("wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperatorTokenOpenWhenUnconfigured(t *testing.T) {
	h := middleware.RequireOperatorToken("", "", logger.NewTest())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, operatorRequest(""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

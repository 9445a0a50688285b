package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/platform/logger"
	"stagepass/internal/verify/handler"
	"stagepass/internal/verify/models"
)

type stubService struct {
	result         models.VerificationResult
	scanned        string
	recent         []models.VerificationResult
	cacheCleared   bool
	historyCleared bool
}

func (s *stubService) Scan(_ context.Context, text string) models.VerificationResult {
	s.scanned = text
	return s.result
}

func (s *stubService) RecentScans() []models.VerificationResult { return s.recent }
func (s *stubService) ClearCache()                              { s.cacheCleared = true }
func (s *stubService) ClearHistory()                            { s.historyCleared = true }

func newRouter(svc *stubService) http.Handler {
	h := handler.New(svc, logger.NewTest())
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.Register(r)
		h.RegisterOperator(r)
	})
	return r
}

func TestVerifyReturnsResult(t *testing.T) {
	svc := &stubService{result: models.VerificationResult{
		ScanID:       "scan-1",
		Outcome:      models.OutcomeVerified,
		Signature:    models.SignatureVerified,
		RecordStatus: models.StatusVerified,
		Matched:      &models.MatchedFields{ID: true, EventID: true},
		Claims: models.IdentityClaims{
			ParticipantID: models.NewField("42"),
			EventID:       models.NewField("7"),
		},
	}}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"token":"a.b.c"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.b.c", svc.scanned)

	var resp handler.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.OutcomeVerified, resp.Outcome)
	assert.Equal(t, "42", resp.Claims["id"])
	assert.Equal(t, "7", resp.Claims["eventId"])
}

func TestVerifyStatusByOutcome(t *testing.T) {
	cases := []struct {
		outcome models.Outcome
		status  int
	}{
		{models.OutcomeVerified, http.StatusOK},
		{models.OutcomeMalformed, http.StatusBadRequest},
		{models.OutcomeSignatureInvalid, http.StatusUnauthorized},
		{models.OutcomeNotFound, http.StatusNotFound},
		{models.OutcomeAlreadyUsed, http.StatusConflict},
		{models.OutcomeExpired, http.StatusConflict},
		{models.OutcomeRejected, http.StatusUnprocessableEntity},
		{models.OutcomeStoreError, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			svc := &stubService{result: models.VerificationResult{Outcome: tc.outcome}}
			router := newRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"token":"a.b.c"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestVerifyRejectsBadJSON(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"token":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListScans(t *testing.T) {
	svc := &stubService{recent: []models.VerificationResult{
		{ScanID: "b", Outcome: models.OutcomeAlreadyUsed},
		{ScanID: "a", Outcome: models.OutcomeVerified},
	}}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/scans", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.ListScansResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "b", resp.Scans[0].ScanID)
}

func TestClearScans(t *testing.T) {
	svc := &stubService{}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/v1/scans", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.historyCleared)
}

func TestClearCache(t *testing.T) {
	svc := &stubService{}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/cache/clear", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cacheCleared)
}

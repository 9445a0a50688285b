// Package handler exposes the verification engine over HTTP. It is a thin
// layer: every decision belongs to the service, every response is a JSON
// rendering of the tagged result.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stagepass/internal/platform/middleware"
	jsonResponse "stagepass/internal/transport/http/json"
	"stagepass/internal/transport/http/shared"
	"stagepass/internal/verify/models"
	dErrors "stagepass/pkg/domain-errors"
)

// Service defines the verification operations the handler exposes.
type Service interface {
	Scan(ctx context.Context, text string) models.VerificationResult
	RecentScans() []models.VerificationResult
	ClearCache()
	ClearHistory()
}

// Handler handles credential verification endpoints.
type Handler struct {
	verify Service
	logger *slog.Logger
}

// New creates a verification Handler.
func New(verify Service, logger *slog.Logger) *Handler {
	return &Handler{
		verify: verify,
		logger: logger,
	}
}

// Register registers the public verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
}

// RegisterOperator registers operator routes. The parent router applies the
// operator token guard.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Get("/scans", h.HandleListScans)
	r.Delete("/scans", h.HandleClearScans)
	r.Post("/cache/clear", h.HandleClearCache)
}

// VerifyRequest carries one scanned credential.
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse is the wire rendering of a verification result.
type VerifyResponse struct {
	ScanID       string                `json:"scan_id"`
	Outcome      models.Outcome        `json:"outcome"`
	Signature    models.SignatureStatus `json:"signature"`
	Reason       string                `json:"reason,omitempty"`
	Matched      *models.MatchedFields `json:"matched_fields,omitempty"`
	RecordStatus models.Status         `json:"record_status,omitempty"`
	Claims       map[string]string     `json:"claims,omitempty"`
	TokenExpired bool                  `json:"token_expired,omitempty"`
	Cached       bool                  `json:"cached,omitempty"`
	ScannedAt    time.Time             `json:"scanned_at"`
	Device       string                `json:"device,omitempty"`
}

// HandleVerify implements POST /v1/verify.
//
// Input: { "token": "<scanned text>" }
// Output: the tagged verification result, status code derived from the outcome.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode verify request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	result := h.verify.Scan(ctx, req.Token)

	response := toResponse(result)
	response.Device = middleware.GetDevice(ctx)
	jsonResponse.WriteJSON(w, outcomeStatus(result.Outcome), response)
}

// ListScansResponse is the response for the scan history endpoint.
type ListScansResponse struct {
	Scans []VerifyResponse `json:"scans"`
	Count int              `json:"count"`
}

// HandleListScans implements GET /v1/scans, newest first.
func (h *Handler) HandleListScans(w http.ResponseWriter, r *http.Request) {
	recent := h.verify.RecentScans()
	scans := make([]VerifyResponse, len(recent))
	for i, result := range recent {
		scans[i] = toResponse(result)
	}
	jsonResponse.WriteJSON(w, http.StatusOK, ListScansResponse{
		Scans: scans,
		Count: len(scans),
	})
}

// HandleClearScans implements DELETE /v1/scans.
func (h *Handler) HandleClearScans(w http.ResponseWriter, r *http.Request) {
	h.verify.ClearHistory()
	h.logger.InfoContext(r.Context(), "scan history cleared",
		"request_id", middleware.GetRequestID(r.Context()),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearCache implements POST /v1/cache/clear. The next scan of every
// credential goes back to the authoritative store.
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.verify.ClearCache()
	h.logger.InfoContext(r.Context(), "verification cache cleared",
		"request_id", middleware.GetRequestID(r.Context()),
	)
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func toResponse(result models.VerificationResult) VerifyResponse {
	return VerifyResponse{
		ScanID:       result.ScanID,
		Outcome:      result.Outcome,
		Signature:    result.Signature,
		Reason:       result.Reason,
		Matched:      result.Matched,
		RecordStatus: result.RecordStatus,
		Claims:       claimValues(result.Claims),
		TokenExpired: result.TokenExpired,
		Cached:       result.Cached,
		ScannedAt:    result.ScannedAt,
	}
}

// claimValues renders the present identity claims for display. Outcomes that
// never decoded a payload yield no claims.
func claimValues(ic models.IdentityClaims) map[string]string {
	out := make(map[string]string)
	put := func(name string, f models.Field) {
		if f.Present {
			out[name] = f.Value
		}
	}
	put("id", ic.ParticipantID)
	put("eventId", ic.EventID)
	put("name", ic.Name)
	put("songTitle", ic.SongTitle)
	put("categoryId", ic.CategoryID)
	put("categoryName", ic.CategoryName)
	put("subCategoryId", ic.SubCategoryID)
	put("subCategoryName", ic.SubCategoryName)
	if len(out) == 0 {
		return nil
	}
	return out
}

// outcomeStatus maps a verification outcome to an HTTP status. The body
// always carries the full result; the status is advisory for clients that
// branch without parsing.
func outcomeStatus(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeVerified:
		return http.StatusOK
	case models.OutcomeMalformed:
		return http.StatusBadRequest
	case models.OutcomeSignatureInvalid:
		return http.StatusUnauthorized
	case models.OutcomeNotFound:
		return http.StatusNotFound
	case models.OutcomeAlreadyUsed, models.OutcomeExpired:
		return http.StatusConflict
	case models.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case models.OutcomeStoreError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package shared

import (
	"errors"
	"net/http"

	"stagepass/internal/transport/http/json"
	dErrors "stagepass/pkg/domain-errors"
)

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and
// error envelopes.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": string(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		json.WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	json.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeMalformedToken:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeAlreadyUsed:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeSignatureInvalid:
		return http.StatusUnauthorized
	case dErrors.CodeUnsupportedAlg:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeStoreError:
		return http.StatusBadGateway
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

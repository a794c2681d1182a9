package httpapi

import (
	"encoding/json"
	"net/http"

	apperrors "autoapply-engine/internal/errors"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Ref       string `json:"ref,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeAPIError(w, r, status, code, message, "")
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, message, ref string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Ref = ref
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteDomainError maps err onto a status code. Errors without a domain type
// are internal.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := apperrors.As(err)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeAPIError(w, r, statusFor(de.Type), string(de.Type), de.Message, de.Ref)
}

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrTypeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrTypeConflict, apperrors.ErrTypeDuplicate:
		return http.StatusConflict
	case apperrors.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ErrTypeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrTypeChallenge:
		return http.StatusPreconditionRequired
	case apperrors.ErrTypeUpstream, apperrors.ErrTypeQueryExpansion, apperrors.ErrTypeFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package hh

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "autoapply-engine/internal/errors"
)

type apiError struct {
	Description string `json:"description"`
	Errors      []struct {
		Type       string `json:"type"`
		Value      string `json:"value"`
		CaptchaURL string `json:"captcha_url"`
	} `json:"errors"`
	RequestID string `json:"request_id"`
}

// decodeError turns a non-2xx hh response into a DomainError.
func decodeError(res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	var ae apiError
	_ = json.Unmarshal(b, &ae)

	for _, e := range ae.Errors {
		if e.Type == "captcha_required" {
			msg := e.Value
			if msg == "" {
				msg = "captcha required"
			}
			return apperrors.Challenge(msg, e.CaptchaURL)
		}
	}

	if res.StatusCode == http.StatusBadRequest {
		for _, e := range ae.Errors {
			if e.Value == "negotiation.exists" || e.Value == "already_applied" {
				return apperrors.Duplicate("already applied to this vacancy")
			}
		}
	}

	msg := ae.Description
	if msg == "" {
		msg = "hh: " + res.Status
	}
	if ae.RequestID != "" {
		msg += " (request_id=" + ae.RequestID + ")"
	}

	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthorized(msg, nil)
	case http.StatusNotFound:
		return apperrors.NotFound(msg, nil)
	case http.StatusTooManyRequests:
		return apperrors.RateLimit(msg, nil)
	default:
		return apperrors.Upstream(msg, nil)
	}
}

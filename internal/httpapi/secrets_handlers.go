package httpapi

import (
	"net/http"
	"strings"

	"autoapply-engine/internal/secrets"

	"github.com/go-chi/chi/v5"
)

type SecretsHandler struct {
	Store func(name, value string) error
}

type setSecretReq struct {
	Value string `json:"value"`
}

func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !secrets.Known(name) {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret "+name)
		return
	}

	var req setSecretReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_value", "value is required")
		return
	}

	set := h.Store
	if set == nil {
		set = secrets.Set
	}
	if err := set(name, strings.TrimSpace(req.Value)); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

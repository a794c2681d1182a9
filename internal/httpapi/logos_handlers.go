package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"autoapply-engine/internal/store"

	"github.com/go-chi/chi/v5"
)

type LogosHandler struct {
	Logos *store.Logos
}

func (h LogosHandler) Get(w http.ResponseWriter, r *http.Request) {
	ct, b, err := h.Logos.Get(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	if ct == "" {
		ct = "image/*"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=604800")
	_, _ = w.Write(b)
}

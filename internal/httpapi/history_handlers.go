package httpapi

import (
	"net/http"

	"autoapply-engine/internal/domain"
	"autoapply-engine/internal/store"

	"github.com/go-chi/chi/v5"
)

type HistoryHandler struct {
	History *store.History
}

func (h HistoryHandler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.History.ListApplications(r.Context(), store.ListApplicationsOpts{
		SessionID: r.URL.Query().Get("session"),
		Limit:     queryInt(r, "limit", 0),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	writeJSON(w, apps)
}

func (h HistoryHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.History.ListSessions(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, sessions)
}

func (h HistoryHandler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.History.SessionEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if evs == nil {
		evs = []domain.LogEvent{}
	}
	writeJSON(w, evs)
}

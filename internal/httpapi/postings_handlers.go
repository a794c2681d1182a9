package httpapi

import (
	"context"
	"net/http"
	"strings"

	"autoapply-engine/internal/bot"
	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/events"
	"autoapply-engine/internal/hh"
	"autoapply-engine/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const logoWorkers = 4

type PostingsHandler struct {
	Log         *zap.Logger
	Hub         *events.Hub
	Snapshot    func() config.Snapshot
	Tools       bot.ToolkitFactory
	ListResumes func(ctx context.Context, snap config.Snapshot) ([]hh.Resume, error)
	Bot         *bot.Engine
	Manual      *bot.ManualApplier
	Logos       *store.Logos
	Visible     *VisibleSet
}

type searchReq struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

type applyStatus struct {
	PostingID string              `json:"postingId"`
	Status    domain.ApplyOutcome `json:"status"`
}

func (h PostingsHandler) publish(typ string, data any) {
	if h.Hub != nil {
		h.Hub.PublishType(typ, data)
	}
}

func (h PostingsHandler) botActive() bool {
	return h.Bot != nil && h.Bot.Status().Status.Active()
}

// Search runs the pipeline for one page and makes the result the visible set.
func (h PostingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if req.Page < 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_page", "page must be >= 0")
		return
	}
	if h.botActive() {
		WriteDomainError(w, r, apperrors.Conflict("the bot is running", nil))
		return
	}

	snap := h.Snapshot()
	if q := strings.TrimSpace(req.Query); q != "" {
		snap.Query = q
	}
	if snap.Query == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_query", "query is required")
		return
	}
	if err := snap.ValidateForSearch(); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	tk, err := h.Tools(r.Context(), snap)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	res, err := tk.Search.Run(r.Context(), snap.Query, req.Page, func(cat domain.Category, msg string) {
		h.publish(events.TypeSearch, map[string]any{"category": cat, "message": msg})
	})
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.Log.Warn("search failed", zap.String("query", snap.Query), zap.Error(err))
		WriteDomainError(w, r, err)
		return
	}

	h.attachLogos(r.Context(), res.Postings)
	h.Visible.Replace(snap.Query, req.Page, res)

	view := h.Visible.View()
	h.publish(events.TypePostings, view)
	writeJSON(w, view)
}

// attachLogos swaps CDN logo URLs for cached local ones. Failures keep the
// original URL.
func (h PostingsHandler) attachLogos(ctx context.Context, postings []domain.Posting) {
	if h.Logos == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(logoWorkers)
	for i := range postings {
		if postings[i].LogoURL == "" {
			continue
		}
		g.Go(func() error {
			key, err := h.Logos.Cache(ctx, postings[i].LogoURL)
			if err != nil {
				h.Log.Debug("logo cache failed", zap.String("vacancy_id", postings[i].ID), zap.Error(err))
				return nil
			}
			if key != "" {
				postings[i].LogoURL = "/logo/" + key
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (h PostingsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Visible.View())
}

// Apply submits one visible posting. Statuses are streamed as SSE events; the
// posting leaves the visible set on success.
func (h PostingsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	posting, ok := h.Visible.Get(id)
	if !ok {
		WriteDomainError(w, r, apperrors.NotFound("posting "+id+" is not in the current results", nil))
		return
	}

	err := h.Manual.Apply(r.Context(), posting, h.Snapshot(), func(o domain.ApplyOutcome) {
		h.publish(events.TypeApplyStatus, applyStatus{PostingID: id, Status: o})
	})
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		WriteDomainError(w, r, err)
		return
	}

	h.Visible.Remove(id)
	h.publish(events.TypePostings, h.Visible.View())
	writeJSON(w, map[string]any{"ok": true, "postingId": id})
}

func (h PostingsHandler) Resumes(w http.ResponseWriter, r *http.Request) {
	snap := h.Snapshot()
	if snap.Tokens.AccessToken == "" {
		WriteDomainError(w, r, apperrors.InvalidInput("hh access token is not set", nil))
		return
	}
	resumes, err := h.ListResumes(r.Context(), snap)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if resumes == nil {
		resumes = []hh.Resume{}
	}
	writeJSON(w, resumes)
}

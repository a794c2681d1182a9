package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Visible == nil {
		d.Visible = NewVisibleSet()
	}
	log := d.Logger.Named("http")

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(log))
	r.Use(AccessLog(log))
	r.Use(Cors)

	health := HealthHandler{Bot: d.Bot}
	r.Get("/health", health.Health)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	r.Get("/config", ch.Get)
	r.Put("/config", ch.Put)
	r.Get("/config/path", ch.Path)
	r.Get("/config/validate", ch.Validate)

	sh := SecretsHandler{Store: d.SetSecret}
	r.Post("/api/secrets/{name}", sh.Set)

	// Search and manual apply
	ph := PostingsHandler{
		Log:         log,
		Hub:         d.Hub,
		Snapshot:    d.Snapshot,
		Tools:       d.Tools,
		ListResumes: d.ListResumes,
		Bot:         d.Bot,
		Manual:      d.Manual,
		Logos:       d.Logos,
		Visible:     d.Visible,
	}
	r.Get("/resumes", ph.Resumes)
	r.Post("/search", ph.Search)
	r.Get("/postings", ph.List)
	r.Post("/postings/{id}/apply", ph.Apply)

	// Bot
	bh := BotHandler{Bot: d.Bot, Snapshot: d.Snapshot}
	r.Route("/bot", func(r chi.Router) {
		r.Post("/start", bh.Start)
		r.Post("/stop", bh.Stop)
		r.Get("/status", bh.Status)
		r.Get("/log", bh.Log)
	})

	// History
	if d.History != nil {
		hist := HistoryHandler{History: d.History}
		r.Get("/applications", hist.Applications)
		r.Get("/sessions", hist.Sessions)
		r.Get("/sessions/{id}/events", hist.SessionEvents)
	}

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	r.Get("/events", eh.ServeSSE)

	// Logos
	if d.Logos != nil {
		lh := LogosHandler{Logos: d.Logos}
		r.Get("/logo/{key}", lh.Get)
	}

	if d.ShutdownToken != "" && d.Shutdown != nil {
		r.Post("/shutdown", shutdownHandler(d.ShutdownToken, d.Shutdown))
	}

	return r
}

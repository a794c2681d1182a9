package httpapi

import (
	"net/http"
	"time"

	"autoapply-engine/internal/bot"
)

type HealthHandler struct {
	Bot *bot.Engine
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":   true,
		"time": time.Now().Format(time.RFC3339),
	}
	if h.Bot != nil {
		out["bot"] = h.Bot.Status().Status
	}
	writeJSON(w, out)
}

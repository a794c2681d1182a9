package httpapi

import (
	"net/http"

	"autoapply-engine/internal/bot"
	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
)

type BotHandler struct {
	Bot      *bot.Engine
	Snapshot func() config.Snapshot
}

type startReq struct {
	Target *int `json:"target"`
}

func (h BotHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	v, err := h.Bot.Start(h.Snapshot(), req.Target)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, v)
}

func (h BotHandler) Stop(w http.ResponseWriter, r *http.Request) {
	v, err := h.Bot.Stop()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, v)
}

func (h BotHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Bot.Status())
}

func (h BotHandler) Log(w http.ResponseWriter, r *http.Request) {
	log := h.Bot.Log()
	if log == nil {
		log = []domain.LogEvent{}
	}
	writeJSON(w, log)
}

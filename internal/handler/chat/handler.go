// Package chat exposes the conversation surfaces: a JSON turn endpoint, an
// SSE variant that streams the decision trace, and a WebSocket loop.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhaowei/shopmate/internal/metrics"
	chatmodel "github.com/zhaowei/shopmate/internal/model/chat"
	chatservice "github.com/zhaowei/shopmate/internal/service/chat"
	"github.com/zhaowei/shopmate/pkg/utils"
)

// Handler serves the chat endpoints.
type Handler struct {
	chatSvc *chatservice.Service
	stats   *metrics.Metrics
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, stats *metrics.Metrics) *Handler {
	return &Handler{chatSvc: chatSvc, stats: stats}
}

// RegisterRoutes mounts the chat routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleTurn)
	r.Get("/chat/history/{sessionKey}", h.handleHistory)
	r.Get("/chat/stream/{sessionKey}", h.handleStream)
	r.Get("/chat/ws/{sessionKey}", h.handleWebSocket)
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var payload chatmodel.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.stats.ObserveRejected(strconv.Itoa(http.StatusBadRequest), start)
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.chatSvc.RunTurn(r.Context(), payload.SessionKey, payload.Message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrEmptySessionKey) || errors.Is(err, chatservice.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		h.stats.ObserveRejected(strconv.Itoa(status), start)
		utils.RespondError(w, status, err.Error())
		return
	}

	h.stats.ObserveTurn(resp.Agent, strconv.Itoa(http.StatusOK), start)
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")

	history, err := h.chatSvc.History(r.Context(), sessionKey)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrEmptySessionKey) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionKey": sessionKey,
		"history":    history,
	})
}

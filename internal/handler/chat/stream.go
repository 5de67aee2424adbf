package chat

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhaowei/shopmate/pkg/utils"
)

// handleStream runs one turn and replays its decision trace as SSE events:
// one "toolCall" event per trace record, then a final "response" event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionKey := chi.URLParam(r, "sessionKey")
	message := r.URL.Query().Get("message")
	if message == "" {
		h.stats.ObserveRejected(strconv.Itoa(http.StatusBadRequest), start)
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	resp, err := h.chatSvc.RunTurn(r.Context(), sessionKey, message)
	if err != nil {
		h.stats.ObserveRejected(strconv.Itoa(http.StatusBadRequest), start)
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.stats.ObserveTurn(resp.Agent, strconv.Itoa(http.StatusOK), start)

	utils.SetupSSEHeaders(w)
	log.Printf("[sse] streaming trace for session=%s (%d tool calls)", sessionKey, len(resp.ToolCalls))

	for _, call := range resp.ToolCalls {
		utils.SendSSEEvent(w, flusher, "toolCall", call)
	}
	utils.SendSSEEvent(w, flusher, "response", map[string]any{
		"response": resp.Response,
		"agent":    resp.Agent,
		"handover": resp.Handover,
	})
	utils.SendSSEEvent(w, flusher, "done", map[string]any{"sessionKey": sessionKey})
}

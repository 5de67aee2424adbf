package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Message string `json:"message"`
}

type errorMessage struct {
	Error string `json:"error"`
}

// handleWebSocket keeps a bidirectional conversation open: each inbound
// {"message": ...} frame runs one turn, and the full response (trace
// included) comes back as a single JSON frame.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionKey, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] session=%s connected", sessionKey)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] session=%s read error: %v", sessionKey, err)
			}
			return
		}

		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			h.writeWS(conn, sessionKey, errorMessage{Error: "invalid message frame"})
			continue
		}

		start := time.Now()
		resp, err := h.chatSvc.RunTurn(r.Context(), sessionKey, inbound.Message)
		if err != nil {
			h.stats.ObserveRejected(strconv.Itoa(http.StatusBadRequest), start)
			h.writeWS(conn, sessionKey, errorMessage{Error: err.Error()})
			continue
		}
		h.stats.ObserveTurn(resp.Agent, strconv.Itoa(http.StatusOK), start)

		h.writeWS(conn, sessionKey, resp)
	}
}

func (h *Handler) writeWS(conn *websocket.Conn, sessionKey string, payload any) {
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("[ws] session=%s write error: %v", sessionKey, err)
	}
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/unowned-ai/nutriscan/pkg/ai"
)

const writeWait = 10 * time.Second

// streamMsg is sent for every chunk and once more at the end, with Type
// "done" or "error".
type streamMsg struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// streamAI runs one named AI stream per connection. The client sends the
// operation's parameters as the first message; closing the socket stops the
// generation.
func (h *handler) streamAI(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func(m streamMsg) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(m)
	}

	var params ai.StreamParams
	if err := conn.ReadJSON(&params); err != nil {
		_ = send(streamMsg{Type: "error", Error: "bad json"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Any read error means the client went away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	svc, err := h.app.AI(ctx)
	if err != nil {
		_ = send(streamMsg{Type: "error", Error: err.Error()})
		return
	}
	seq, err := svc.RunStream(ctx, op, params)
	if err != nil {
		_ = send(streamMsg{Type: "error", Error: err.Error()})
		return
	}

	for chunk, err := range seq {
		if err != nil {
			h.logger.Warn("ai stream failed", "op", op, "error", err)
			_ = send(streamMsg{Type: "error", Error: err.Error()})
			return
		}
		if err := send(streamMsg{Type: "chunk", Text: chunk}); err != nil {
			return
		}
	}
	_ = send(streamMsg{Type: "done"})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

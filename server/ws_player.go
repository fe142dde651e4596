package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"BuggyFM/logger"
	"BuggyFM/model"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// PlayerWSHandler pushes a player state snapshot to the client after every
// change. The connection is one-way; commands go through the REST surface.
func (h *APIHandler) PlayerWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	// Buffered so a slow client drops intermediate snapshots instead of
	// blocking the controller's notify path.
	updates := make(chan model.PlayerState, 8)
	unsubscribe := h.player.Subscribe(func(s model.PlayerState) {
		select {
		case updates <- s:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		// Drain the read side to learn about disconnects.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		unsubscribe()
		conn.Close()
	}()

	// Initial snapshot so the client renders without waiting for a change.
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(h.player.State()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case state := <-updates:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}

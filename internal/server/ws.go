package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// DirectionsHandler pushes every classification to WebSocket clients as JSON.
type DirectionsHandler struct {
	hub *Hub
}

// NewDirectionsHandler creates a new DirectionsHandler for hub.
func NewDirectionsHandler(hub *Hub) *DirectionsHandler {
	return &DirectionsHandler{hub: hub}
}

// ServeHTTP upgrades the connection and forwards updates until either side
// goes away.
func (h *DirectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// Reads only detect the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(h.hub.Last()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}
}

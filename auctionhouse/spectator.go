package auctionhouse

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kartnagrale/auction-core/protocol"
)

// SpectatorHub is a read-only fan-out of the same notifications pushed
// to bidding agents, for a dashboard's live bid ticker. Grounded in the
// teacher's hub.go: a mutex-guarded set of clients plus a
// non-blocking, drop-if-full per-client send channel — generalized here
// from "auction room" to "house" since a spectator always watches the
// whole house, not one item. It is deliberately read-only: a spectator
// connection can never place a bid, so it adds no authentication surface
// (spec.md §1 Non-goals: no auth).
type SpectatorHub struct {
	mu      sync.RWMutex
	clients map[*spectatorClient]struct{}
}

type spectatorClient struct {
	send chan []byte
}

func NewSpectatorHub() *SpectatorHub {
	return &SpectatorHub{clients: make(map[*spectatorClient]struct{})}
}

// Publish fans a notification out to every connected spectator. Slow
// clients whose buffer is full are skipped, not blocked on.
func (h *SpectatorHub) Publish(n protocol.BidStatusNotification) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("auctionhouse: dropped spectator message, slow client")
		}
	}
}

var spectatorUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades a GET /spectate request to a websocket and streams
// every broadcast notification until the client disconnects.
func (h *SpectatorHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := spectatorUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &spectatorClient{send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain (and discard) anything the spectator sends us; we only care
	// about the read loop returning when the connection closes, the same
	// pattern as the teacher's readPump.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

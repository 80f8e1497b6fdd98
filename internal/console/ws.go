package console

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Fragment is one live update pushed to connected browsers: the id of
// the container to replace and its new inner HTML.
type Fragment struct {
	Target string `json:"target"`
	HTML   string `json:"html"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The console binds to localhost; same-host pages only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans fragment updates out to every connected websocket client.
// All connection writes happen on a single goroutine draining the send
// channel; a websocket connection allows at most one concurrent writer.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	send    chan []byte
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		send:    make(chan []byte, 64),
		logger:  logger,
	}
	go h.run()
	return h
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	wsClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	wsClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

// Broadcast enqueues one fragment for every client. Callers never touch
// the connections directly, so overlapping fetch completions can
// broadcast concurrently. A full buffer drops the fragment; the next
// poll tick re-renders the same target anyway.
func (h *Hub) Broadcast(target, html string) {
	data, err := json.Marshal(Fragment{Target: target, HTML: html})
	if err != nil {
		return
	}
	select {
	case h.send <- data:
	default:
		h.logger.Debug("broadcast buffer full, dropping fragment", "target", target)
	}
}

// run is the only writer to client connections. Clients whose writes
// fail are dropped.
func (h *Hub) run() {
	for data := range h.send {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		for _, conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(conn)
			}
		}
	}
}

// serve upgrades the request and parks the connection until the client
// goes away. The console never reads application data from browsers;
// the read loop exists to notice disconnects.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	h.add(conn)

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Event types pushed to connected dashboards. Clients drop their cached
// products and ledger whenever a stock_update arrives.
const (
	TypeStockUpdate = "stock_update"
	TypeLowStock    = "low_stock"
)

type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Actor   string      `json:"actor,omitempty"`
	Message string      `json:"message"`
}

const broadcastBuffer = 256

type Hub struct {
	Clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Join adds conn to the hub. It returns false once the hub is closed.
func (h *Hub) Join(conn *websocket.Conn) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes conn from the hub. After Close it returns immediately.
func (h *Hub) Leave(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues an event for every connected client. It never blocks the
// caller; when the queue is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		slog.Error("ws: failed to encode event", "type", event.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("ws: broadcast queue full, dropping event", "type", event.Type, "action", event.Action)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			slog.Info("ws: client connected", "clients", h.ClientCount())

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 16 * 1024
)

const (
	FrameSnapshot = "snapshot"
	FrameToast    = "toast"
	FrameError    = "error"
)

// StreamFrame is one server-to-client websocket message.
type StreamFrame struct {
	Type   string              `json:"type"`
	Data   *ListResponse       `json:"data,omitempty"`
	Toast  *Toast              `json:"toast,omitempty"`
	Fields []map[string]string `json:"fields,omitempty"`
}

// clientMessage is one client-to-server websocket message.
type clientMessage struct {
	Type   string            `json:"type"`
	Filter map[string]string `json:"filter,omitempty"`
}

// client is one dashboard connection with its own filter and snapshot.
type client struct {
	user   string
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	filter  usecase.FilterState
	leads   []entity.Lead
	hasData bool
}

func newClient(user string, conn *websocket.Conn) *client {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		user:   user,
		conn:   conn,
		send:   make(chan []byte, 16),
		ctx:    ctx,
		cancel: cancel,
		filter: usecase.ClearAll(),
	}
}

// enqueue waits for the writer; it gives up once the client is gone.
func (c *client) enqueue(f StreamFrame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	case <-c.ctx.Done():
	}
}

func (c *client) setSnapshot(leads []entity.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leads = leads
	c.hasData = true
	c.pushLocked()
}

func (c *client) setFilter(f usecase.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.pushLocked()
}

// pushLocked sends the current view. Holding mu keeps frames in the order
// their inputs changed.
func (c *client) pushLocked() {
	if !c.hasData {
		return
	}
	view := newListResponse(usecase.Evaluate(c.leads, c.filter))
	c.enqueue(StreamFrame{Type: FrameSnapshot, Data: &view})
}

// Success and Error make the client the Notifier of its subscription.
func (c *client) Success(msg string) {
	c.enqueue(StreamFrame{Type: FrameToast, Toast: &Toast{Kind: ToastSuccess, Message: msg}})
}

func (c *client) Error(msg string) {
	c.enqueue(StreamFrame{Type: FrameToast, Toast: &Toast{Kind: ToastError, Message: msg}})
}

// Hub tracks the open dashboard connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll ends every connection; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.cancel()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}

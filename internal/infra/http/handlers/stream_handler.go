package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// Subscriber opens a live lead subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, notifier usecase.Notifier) *usecase.Subscription
}

// StreamHandler serves GET /api/leads/stream. Each connection owns one
// subscription and one filter.
type StreamHandler struct {
	Hub      *Hub
	Live     Subscriber
	Tokens   middleware.TokenValidator
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(hub *Hub, live Subscriber, tokens middleware.TokenValidator, origins []string, log *zap.Logger) *StreamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamHandler{
		Hub:    hub,
		Live:   live,
		Tokens: tokens,
		Log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// Handle authenticates with ?token= since browsers cannot set headers on
// a websocket handshake.
func (h *StreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		middleware.Unauthorized(w, "token is required")
		return
	}
	claims, err := h.Tokens.ValidateToken(token)
	if err != nil {
		middleware.Unauthorized(w, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(claims.Subject, conn)
	h.Hub.register(c)
	middleware.StreamOpened()
	h.Log.Info("dashboard connected", zap.String("user", c.user))

	sub := h.Live.Subscribe(c.ctx, c)
	go h.Hub.writePump(c)
	go h.pumpSnapshots(c, sub)

	h.readPump(c)

	c.cancel()
	sub.Close()
	h.Hub.unregister(c)
	middleware.StreamClosed()
	h.Log.Info("dashboard disconnected", zap.String("user", c.user))
}

func (h *StreamHandler) pumpSnapshots(c *client, sub *usecase.Subscription) {
	for leads := range sub.Snapshots() {
		c.setSnapshot(leads)
	}
	if err := sub.Err(); err != nil {
		middleware.RecordSubscriptionError()
		h.Log.Warn("dashboard subscription failed", zap.String("user", c.user), zap.Error(err))
	}
}

func (h *StreamHandler) readPump(c *client) {
	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(StreamFrame{Type: FrameError, Fields: []map[string]string{{"body": "invalid JSON"}}})
			continue
		}

		switch msg.Type {
		case "filter":
			q := url.Values{}
			for k, v := range msg.Filter {
				q.Set(k, v)
			}
			f, errs := usecase.ParseFilterState(q)
			if len(errs) > 0 {
				c.enqueue(StreamFrame{Type: FrameError, Fields: fieldErrors(errs)})
				continue
			}
			c.setFilter(f)
		case "clear":
			c.setFilter(usecase.ClearAll())
		default:
			c.enqueue(StreamFrame{Type: FrameError, Fields: []map[string]string{{"type": "unknown message type"}}})
		}
	}
}

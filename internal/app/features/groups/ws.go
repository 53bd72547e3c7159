// internal/app/features/groups/ws.go
package groups

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/chat"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxMessageLen = 4000
	maxFrameSize  = 8192
	historyOnOpen = 50
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sessions are cookie-based and SameSite, so same-origin checks
	// stay with the default.
}

// clientFrame is what the browser sends over the socket.
type clientFrame struct {
	Type    string `json:"type"`    // send | retry | discard
	ID      string `json:"id"`      // temp ID for retry/discard
	Content string `json:"content"` // for send
}

// serverFrame is what the server pushes to the browser.
type serverFrame struct {
	Type    string       `json:"type"` // history | pending | confirmed | failed | message | discarded
	TempID  string       `json:"temp_id,omitempty"`
	Entry   *chat.Entry  `json:"entry,omitempty"`
	Entries []chat.Entry `json:"entries,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ServeWS upgrades to a websocket and runs one chat connection. Each
// connection owns a reconciliation view seeded with recent history;
// sends are echoed as pending immediately and confirmed or failed once
// the store write settles, and hub events merge in by ID.
// GET /groups/{id}/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	cancel()
	if err != nil {
		h.apiGroupError(w, err)
		return
	}
	_, senderName, userID, ok := authz.UserCtx(r)
	if !ok || userID.IsZero() {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	allowPost := canPost(r, group)

	ctx, cancel = context.WithTimeout(r.Context(), timeouts.Short())
	history, err := h.Messages.ListByGroup(ctx, group.ID, historyOnOpen)
	cancel()
	if err != nil {
		h.Log.Error("load history for ws failed", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	view := chat.NewView(history)
	events, unsubscribe := h.Hub.Subscribe(group.ID)
	defer unsubscribe()

	c := &wsConn{
		conn: conn,
		out:  make(chan serverFrame, 32),
		done: make(chan struct{}),
	}
	defer c.close()

	c.send(serverFrame{Type: "history", Entries: view.Entries()})

	go c.writeLoop()
	go h.deliverLoop(c, view, events)

	h.readLoop(r.Context(), c, view, group, userID, senderName, allowPost)
}

// wsConn serializes writes to one websocket.
type wsConn struct {
	conn *websocket.Conn
	out  chan serverFrame
	done chan struct{}
}

func (c *wsConn) send(f serverFrame) {
	select {
	case c.out <- f:
	case <-c.done:
	}
}

func (c *wsConn) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	_ = c.conn.Close()
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case f := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// deliverLoop pushes hub events into the view and down the socket.
func (h *Handler) deliverLoop(c *wsConn, view *chat.View, events <-chan chat.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Merge drops the echo of this connection's own sends.
			if entry, fresh := view.Merge(ev.Message, ""); fresh {
				c.send(serverFrame{Type: "message", Entry: &entry})
			}
		case <-c.done:
			return
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, c *wsConn, view *chat.View, group models.Group, userID primitive.ObjectID, senderName string, allowPost bool) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case "send":
			h.handleSend(ctx, c, view, group, userID, senderName, allowPost, frame.Content)
		case "retry":
			entry, ok := view.Retry(frame.ID)
			if !ok {
				c.send(serverFrame{Type: "failed", TempID: frame.ID, Error: "nothing to retry"})
				continue
			}
			c.send(serverFrame{Type: "pending", TempID: entry.ID, Entry: &entry})
			h.persist(ctx, c, view, group, userID, senderName, entry)
		case "discard":
			if view.Discard(frame.ID) {
				c.send(serverFrame{Type: "discarded", TempID: frame.ID})
			}
		default:
			c.send(serverFrame{Type: "failed", Error: "unknown frame type"})
		}
	}
}

func (h *Handler) handleSend(ctx context.Context, c *wsConn, view *chat.View, group models.Group, userID primitive.ObjectID, senderName string, allowPost bool, content string) {
	content = strings.TrimSpace(h.sanitizer.Sanitize(content))
	if !allowPost {
		c.send(serverFrame{Type: "failed", Error: "posting is restricted in this group"})
		return
	}
	if content == "" || len(content) > maxMessageLen {
		c.send(serverFrame{Type: "failed", Error: "message is empty or too long"})
		return
	}

	// Optimistic append: the pending entry exists before any I/O.
	entry := view.Send(content, userID.Hex(), senderName)
	c.send(serverFrame{Type: "pending", TempID: entry.ID, Entry: &entry})

	h.persist(ctx, c, view, group, userID, senderName, entry)
}

// persist writes the pending entry to the store and settles it.
func (h *Handler) persist(ctx context.Context, c *wsConn, view *chat.View, group models.Group, userID primitive.ObjectID, senderName string, entry chat.Entry) {
	dbCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	msg, err := h.Messages.Insert(dbCtx, group.ID, group.UnionCode, userID, senderName, entry.Content)
	if err != nil {
		h.Log.Error("persist message failed", zap.Error(err), zap.String("group", group.ID.Hex()))
		view.Fail(entry.ID)
		c.send(serverFrame{Type: "failed", TempID: entry.ID, Error: "could not send"})
		return
	}

	confirmed, ok := view.Confirm(entry.ID, msg)
	if !ok {
		// Discarded while the write was in flight; the record stands.
		h.Log.Debug("confirm raced a discard", zap.String("temp_id", entry.ID))
		return
	}
	c.send(serverFrame{Type: "confirmed", TempID: entry.ID, Entry: &confirmed})

	// Other open views hear about it through the hub; members without
	// the app open get a push.
	h.Hub.Publish(ctx, msg)
	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		h.Push.FanoutMessage(pushCtx, group.UnionCode, group.Name, msg)
	}()
}

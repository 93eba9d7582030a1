package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/market-sync/internal/router"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// Updates already queued behind the one just received are written
	// together, at most this many per wakeup.
	maxBatch = 64
)

// SnapshotMessage is the first message on every stream.
type SnapshotMessage struct {
	Kind  string       `json:"kind"` // always "snapshot"
	State router.State `json:"state"`
}

// wsClient streams one router subscription to one connection.
type wsClient struct {
	conn   *websocket.Conn
	sub    *router.Subscription
	logger *slog.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	// Subscribe before reading the snapshot so no update falls between them.
	sub := s.deps.Router.Subscribe()
	snapshot := SnapshotMessage{Kind: "snapshot", State: s.deps.Router.Latest()}

	c := &wsClient{
		conn:   conn,
		sub:    sub,
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}
	c.logger.Debug("websocket client connected")

	go c.writePump(snapshot)
	go c.readPump()
}

// readPump discards client messages and ends the stream when the
// connection drops.
func (c *wsClient) readPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "err", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump(first SnapshotMessage) {
	ticker := time.NewTicker(pingPeriod)
	updates := make(chan []router.Update)
	done := make(chan struct{})
	defer func() {
		ticker.Stop()
		close(done)
		c.sub.Close()
		c.conn.Close()
		c.logger.Debug("websocket client disconnected")
	}()

	go func() {
		for {
			u, ok := c.sub.Receive()
			if !ok {
				close(updates)
				return
			}
			batch := append([]router.Update{u}, c.sub.Drain(maxBatch-1)...)
			select {
			case updates <- batch:
			case <-done:
				return
			}
		}
	}()

	if err := c.write(first); err != nil {
		return
	}

	for {
		select {
		case batch, ok := <-updates:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			for _, u := range batch {
				if err := c.write(u); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) write(v any) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

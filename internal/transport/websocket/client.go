package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"legalport/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	sendBufferSize = 64
)

// Client is one websocket connection. A user may hold several at once.
type Client struct {
	hub       *Hub
	principal *domain.Principal
	conn      *websocket.Conn
	send      chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[string]func()
	closed bool
	once   sync.Once
}

func newClient(hub *Hub, principal *domain.Principal, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:       hub,
		principal: principal,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[string]func()),
	}
}

func (c *Client) userID() string {
	return c.principal.ID
}

// close ends every subscription of the connection and drops the socket.
func (c *Client) close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		subs := c.subs
		c.subs = make(map[string]func())
		c.mu.Unlock()

		for _, unsubscribe := range subs {
			unsubscribe()
		}
		c.cancel()
		c.conn.Close()
	})
}

// enqueue never blocks. A slow connection loses the frame; the next snapshot of
// the same stream supersedes it anyway.
func (c *Client) enqueue(frame outboundFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.hub.logger.Error("failed to marshal frame", zap.String("type", frame.Type), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- payload:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping frame",
			zap.String("userID", c.userID()),
			zap.String("type", frame.Type),
			zap.String("subID", frame.SubID))
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.close()
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("userID", c.userID()), zap.Error(err))
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.enqueue(outboundFrame{Type: frameError, Message: "malformed frame"})
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("failed to write websocket frame",
					zap.String("userID", c.userID()),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame inboundFrame) {
	switch frame.Type {
	case frameSubscribe:
		c.subscribe(frame)
	case frameUnsubscribe:
		c.unsubscribe(frame.SubID)
	case framePresence:
		if frame.Online == nil {
			c.enqueue(outboundFrame{Type: frameError, Message: "online is required"})
			return
		}
		select {
		case c.hub.presence <- presenceUpdate{userID: c.userID(), online: *frame.Online}:
		case <-c.hub.done:
		}
	case framePing:
		c.enqueue(outboundFrame{Type: framePong})
	default:
		c.enqueue(outboundFrame{Type: frameError, Message: "unknown frame type " + frame.Type})
	}
}

func (c *Client) subscribe(frame inboundFrame) {
	if frame.SubID == "" {
		c.enqueue(outboundFrame{Type: frameError, Message: "sub_id is required"})
		return
	}

	c.mu.Lock()
	_, taken := c.subs[frame.SubID]
	c.mu.Unlock()
	if taken {
		c.enqueue(outboundFrame{Type: frameError, SubID: frame.SubID, Message: "sub_id already in use"})
		return
	}

	unsubscribe, err := c.openStream(frame)
	if err != nil {
		c.enqueue(outboundFrame{Type: frameError, SubID: frame.SubID, Message: err.Error()})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	if _, taken := c.subs[frame.SubID]; taken {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	c.subs[frame.SubID] = unsubscribe
	c.mu.Unlock()
}

func (c *Client) unsubscribe(subID string) {
	c.mu.Lock()
	unsubscribe, ok := c.subs[subID]
	delete(c.subs, subID)
	c.mu.Unlock()

	if ok {
		unsubscribe()
	}
}

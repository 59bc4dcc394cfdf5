package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

type MessageHandler interface {
	handleMessage(*Client, *IncomingMessage)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan *Message
	sessionID string
	handler   MessageHandler
	logger    logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, handler MessageHandler, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan *Message, sendBuffer),
		sessionID: sessionID,
		handler:   handler,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ReadPump dispatches incoming messages until the connection drops. Work
// started on behalf of the client is cancelled when it returns.
func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Websocket closed unexpectedly", "session_id", c.sessionID, "error", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError("Invalid message format", "INVALID_FORMAT")
			continue
		}

		c.handler.handleMessage(c, &msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Websocket write failed", "session_id", c.sessionID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// enqueue queues message without blocking. It reports false when the
// client is closed or too far behind.
func (c *Client) enqueue(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn("Websocket send queue full, dropping message", "session_id", c.sessionID, "type", message.Type)
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) SendError(errMsg string, code string) {
	c.enqueue(NewErrorMessage(errMsg, code))
}

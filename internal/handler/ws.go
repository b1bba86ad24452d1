package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"collabboard/internal/board"
	"collabboard/internal/model"
)

// Client frame: event discriminator plus the promoted operation fields.
// For "chat" only the text field of the element payload is used.
type clientFrame struct {
	Event        string `json:"event"`
	WhiteboardID string `json:"whiteboardId"`
	model.Element
}

// WSHandler 실시간 보드 WebSocket 핸들러
type WSHandler struct {
	hub       *board.Hub
	queueSize int
}

// NewWSHandler WSHandler 생성
func NewWSHandler(hub *board.Hub, queueSize int) *WSHandler {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &WSHandler{hub: hub, queueSize: queueSize}
}

// wsConn adapts a fiber websocket onto board.Conn. Send enqueues onto a
// buffered channel drained by a single writer goroutine, so frames are
// written in enqueue order and the hub never blocks on a slow socket.
type wsConn struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	closeOne sync.Once
}

func (c *wsConn) ID() string       { return c.id }
func (c *wsConn) Username() string { return c.username }

func (c *wsConn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		// Queue full: the client is not draining. Drop the frame;
		// the socket will be torn down by its own read loop soon.
		return errors.New("send queue full")
	}
}

func (c *wsConn) close() {
	c.closeOne.Do(func() { close(c.done) })
}

func (c *wsConn) writePump() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// HandleWebSocket runs the read loop for one connection. The upgrade
// gate has already authenticated the user and stored the username.
func (h *WSHandler) HandleWebSocket(c *websocket.Conn) {
	username, ok := c.Locals("username").(string)
	if !ok || username == "" {
		c.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","data":{"message":"invalid session"}}`))
		c.Close()
		return
	}

	conn := &wsConn{
		id:       uuid.NewString(),
		username: username,
		conn:     c,
		send:     make(chan []byte, h.queueSize),
		done:     make(chan struct{}),
	}
	go conn.writePump()

	log.Printf("[WS] Connected %s (%s)", conn.id, username)

	defer func() {
		h.hub.Detach(conn.id)
		conn.close()
		c.Close()
		log.Printf("[WS] Disconnected %s (%s)", conn.id, username)
	}()

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			h.sendError(conn, "invalid frame")
			continue
		}

		switch frame.Event {
		case "join-room":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := h.hub.Attach(ctx, conn, frame.WhiteboardID)
			cancel()
			if err != nil {
				h.sendError(conn, attachErrorMessage(err))
			}

		case "leave-room":
			h.hub.Detach(conn.id)

		case "operation":
			if err := h.hub.Route(conn, frame.Element); err != nil {
				h.sendError(conn, routeErrorMessage(err))
			}

		case "chat":
			if err := h.hub.Chat(conn, frame.Text); err != nil {
				h.sendError(conn, routeErrorMessage(err))
			}

		default:
			h.sendError(conn, "unknown event")
		}
	}
}

// sendError reports a rejection to the originating connection only;
// other room members are never affected.
func (h *WSHandler) sendError(conn *wsConn, message string) {
	payload, _ := json.Marshal(map[string]any{
		"event": "error",
		"data":  map[string]string{"message": message},
	})
	if err := conn.Send(payload); err != nil {
		log.Printf("[WS] Error frame to %s dropped: %v", conn.id, err)
	}
}

func attachErrorMessage(err error) string {
	switch {
	case errors.Is(err, board.ErrNotFound):
		return "whiteboard not found"
	case errors.Is(err, board.ErrUnauthorized):
		return "not a participant of this whiteboard"
	default:
		return "failed to join whiteboard"
	}
}

func routeErrorMessage(err error) string {
	switch {
	case errors.Is(err, board.ErrUnauthorized):
		return "not attached to this whiteboard"
	case errors.Is(err, board.ErrMalformedOperation):
		return "malformed operation"
	default:
		return "operation failed"
	}
}

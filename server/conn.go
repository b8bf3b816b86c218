package server

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/tactics/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// conn is one client socket. Only readPump touches match and seat.
type conn struct {
	srv  *Server
	ws   *websocket.Conn
	send chan []byte

	done     chan struct{}
	doneOnce sync.Once

	match *Match
	seat  game.PlayerID
}

func newConn(s *Server, ws *websocket.Conn) *conn {
	return &conn{
		srv:  s,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// deliver queues b without blocking. A client that cannot keep up is dropped.
func (c *conn) deliver(b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
		c.srv.log.Warn("client send buffer full, closing")
		c.close()
	}
}

func (c *conn) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *conn) readPump() {
	defer func() {
		if c.match != nil {
			c.match.leave(c, c.seat)
			c.srv.registry.Remove(c.match.ID)
		}
		c.close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.log.Debug("read", "err", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (c *conn) handle(msg []byte) {
	if strings.TrimSpace(string(msg)) == "" {
		c.reject("Empty message received", nil)
		return
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		c.reject("Failed to parse JSON: "+err.Error(), nil)
		return
	}
	switch env.Type {
	case "":
		c.reject("Invalid message format: missing 'type' field", nil)
	case TypeJoinMatch:
		c.handleJoin(env)
	case TypeAction:
		c.handleAction(env)
	default:
		c.reject("Unknown message type: "+env.Type, nil)
	}
}

func (c *conn) handleJoin(env Envelope) {
	var req JoinMatchRequest
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.reject("Invalid join_match payload", nil)
			return
		}
	}
	if c.match != nil {
		c.reject("Already joined match "+c.match.ID, nil)
		return
	}

	m := c.srv.registry.GetOrCreate(req.MatchID)
	seat, err := m.join(c)
	if errors.Is(err, ErrMatchFull) {
		c.reject("Match is full", nil)
		return
	}
	if err != nil {
		c.srv.log.Error("join", "matchId", m.ID, "err", err)
		c.reject("Could not join match", nil)
		return
	}
	c.match = m
	c.seat = seat
}

func (c *conn) handleAction(env Envelope) {
	req, err := DecodePayload[ActionRequest](env)
	if err != nil {
		c.reject("Invalid action payload", nil)
		return
	}
	if c.match == nil {
		c.reject("Not joined to a match", req.Action)
		return
	}
	if req.MatchID != "" && req.MatchID != c.match.ID {
		c.reject("Match ID does not match connection", req.Action)
		return
	}
	if req.PlayerID != "" && game.PlayerID(req.PlayerID) != c.seat {
		c.reject("Player ID does not match connection", req.Action)
		return
	}
	if req.Action == nil {
		c.reject("Missing action in action request", nil)
		return
	}

	action, ok := req.Action.ToAction(c.seat)
	if !ok {
		c.reject("Invalid action type: "+req.Action.Type, req.Action)
		return
	}
	if res := c.match.apply(action); !res.Valid {
		c.reject(res.Error, req.Action)
	}
}

func (c *conn) reject(message string, action *ActionPayload) {
	b, err := encode(TypeValidationError, ValidationErrorPayload{Message: message, Action: action})
	if err != nil {
		return
	}
	c.deliver(b)
}

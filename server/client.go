package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/tactics/game"
)

// Client is a minimal protocol client, used by tests and tooling.
type Client struct {
	ws          *websocket.Conn
	ReadTimeout time.Duration
}

func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{ws: ws, ReadTimeout: 5 * time.Second}, nil
}

func (c *Client) send(msgType string, payload any) error {
	b, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// SendRaw writes a frame as is.
func (c *Client) SendRaw(b []byte) error {
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) Join(matchID string) error {
	return c.send(TypeJoinMatch, JoinMatchRequest{MatchID: matchID})
}

// Act submits a on behalf of a.Player.
func (c *Client) Act(matchID string, a game.Action) error {
	p := PayloadFromAction(a)
	return c.send(TypeAction, ActionRequest{MatchID: matchID, PlayerID: string(a.Player), Action: &p})
}

// Next blocks for the next frame, up to ReadTimeout.
func (c *Client) Next() (Envelope, error) {
	if c.ReadTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	}
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		return Envelope{}, fmt.Errorf("read error: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse frame: %w", err)
	}
	return env, nil
}

// Expect reads the next frame and fails unless it has type msgType.
func (c *Client) Expect(msgType string) (Envelope, error) {
	env, err := c.Next()
	if err != nil {
		return env, err
	}
	if env.Type != msgType {
		return env, fmt.Errorf("got %s (%s), want %s", env.Type, env.Payload, msgType)
	}
	return env, nil
}

func (c *Client) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.ws.Close()
}

package net

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is a connection from a CLIENT to the host's hub.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	log  zerolog.Logger

	// ID is the client's owner ID: its local address as seen on the
	// connection, which the host also uses to tell peers apart.
	ID string
}

func Dial(ctx context.Context, url string, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial host %s: %w", url, err)
	}
	c := &Client{
		conn: conn,
		ID:   conn.LocalAddr().String(),
	}
	c.log = log.With().Str("component", "client").Str("id", c.ID).Logger()
	c.log.Info().Str("host", url).Msg("connected to host")
	return c, nil
}

// Send writes msg to the host.
func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s message: %w", msg.Type, err)
	}
	return nil
}

// Listen delivers host messages to handle until the connection fails.
func (c *Client) Listen(handle func(Message)) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("disconnected from host: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("ignoring malformed message")
			continue
		}
		handle(msg)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

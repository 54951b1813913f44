package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campus-chat-service/internal/models"
)

// Client wraps one websocket connection. Writes are serialized with a
// per-connection mutex since events fan in from many goroutines while
// gorilla/websocket allows a single concurrent writer.
type Client struct {
	conn    *websocket.Conn
	info    ConnInfo
	writeMu sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	if info.ConnID == "" {
		info.ConnID = uuid.NewString()
	}
	return &Client{conn: conn, info: info}
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Write marshals and sends one event on the connection.
func (c *Client) Write(event models.ServerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// ReadEvent blocks until the next client event arrives.
func (c *Client) ReadEvent() (models.ClientEvent, error) {
	var event models.ClientEvent
	err := c.conn.ReadJSON(&event)
	return event, err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

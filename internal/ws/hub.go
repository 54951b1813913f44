package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
)

// Hub maintains the per-user connection sets and per-chat room membership.
// Every user holds one socket; chat rooms are joined and left explicitly
// and scope the typing relay.
type Hub struct {
	mu    sync.RWMutex
	users map[int]map[*Client]struct{}
	rooms map[int]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[int]map[*Client]struct{}),
		rooms: make(map[int]map[*Client]struct{}),
	}
}

// Register adds a client to its user's connection set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := c.info.UserID
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][c] = struct{}{}
}

// Unregister removes a client from its user's set and from every room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	userID := c.info.UserID
	if conns, ok := h.users[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
	for chatID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// JoinChat subscribes the client to a chat room.
func (h *Hub) JoinChat(chatID int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
}

// LeaveChat unsubscribes the client from a chat room.
func (h *Hub) LeaveChat(chatID int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[chatID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// SendToUser delivers the event to every active connection of the user.
func (h *Hub) SendToUser(userID int, event models.ServerEvent) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.write(targets, event)
}

// SendToChatUser delivers the event to the user's connections joined to the
// chat room.
func (h *Hub) SendToChatUser(chatID int, userID int, event models.ServerEvent) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if c.info.UserID == userID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	h.write(targets, event)
}

// BroadcastAll delivers the event to every connected client. Used for
// presence changes, which rebroadcast the full online set.
func (h *Hub) BroadcastAll(event models.ServerEvent) {
	h.mu.RLock()
	var targets []*Client
	for _, conns := range h.users {
		for c := range conns {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	h.write(targets, event)
}

func (h *Hub) write(targets []*Client, event models.ServerEvent) {
	for _, c := range targets {
		if err := c.Write(event); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			h.Unregister(c)
			h.publishWSError(c, err)
		}
	}
}

func (h *Hub) publishWSError(c *Client, err error) {
	info := c.info
	payload := observability.WSEventPayload("ws_error", info.ConnID,
		time.Since(info.ConnectedAt).Milliseconds(), err.Error(),
		info.UserID, info.DeviceID, info.IP)

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}

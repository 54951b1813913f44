package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"campus-chat-service/internal/models"
)

func membershipClient(userID int) *Client {
	return NewClient(nil, ConnInfo{UserID: userID})
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub()
	c1 := membershipClient(1)
	c2 := membershipClient(1)

	hub.Register(c1)
	hub.Register(c2)
	if got := len(hub.users[1]); got != 2 {
		t.Fatalf("expected 2 connections for user 1, got %d", got)
	}

	hub.Unregister(c1)
	if got := len(hub.users[1]); got != 1 {
		t.Fatalf("expected 1 connection after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if _, ok := hub.users[1]; ok {
		t.Fatal("expected user entry removed when last connection leaves")
	}
}

func TestJoinLeaveChat(t *testing.T) {
	hub := NewHub()
	c := membershipClient(1)
	hub.Register(c)

	hub.JoinChat(7, c)
	if _, ok := hub.rooms[7][c]; !ok {
		t.Fatal("expected client in room 7")
	}

	hub.LeaveChat(7, c)
	if _, ok := hub.rooms[7]; ok {
		t.Fatal("expected empty room to be removed")
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	c := membershipClient(1)
	hub.Register(c)
	hub.JoinChat(7, c)
	hub.JoinChat(8, c)

	hub.Unregister(c)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected no rooms after unregister, got %d", len(hub.rooms))
	}
}

// dialTestClient upgrades a loopback connection and registers it with the hub.
func dialTestClient(t *testing.T, hub *Hub, userID int) (*Client, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ready := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- NewClient(conn, ConnInfo{UserID: userID})
	}))
	t.Cleanup(srv.Close)

	dialer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { dialer.Close() })

	client := <-ready
	hub.Register(client)
	return client, dialer
}

func readEvent(t *testing.T, conn *websocket.Conn) models.ServerEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event models.ServerEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return event
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	_, peer1 := dialTestClient(t, hub, 1)
	_, peer2 := dialTestClient(t, hub, 1)
	_, other := dialTestClient(t, hub, 2)

	hub.SendToUser(1, models.ServerEvent{Type: models.EvNewNotification})

	for _, peer := range []*websocket.Conn{peer1, peer2} {
		event := readEvent(t, peer)
		if event.Type != models.EvNewNotification {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatal("expected no event for other user")
	}
}

func TestSendToChatUserScopedToRoom(t *testing.T) {
	hub := NewHub()
	inRoom, inRoomPeer := dialTestClient(t, hub, 2)
	_, outPeer := dialTestClient(t, hub, 2)
	hub.JoinChat(7, inRoom)

	flag := true
	hub.SendToChatUser(7, 2, models.ServerEvent{Type: models.EvUserTyping, ChatID: 7, IsTyping: &flag})

	event := readEvent(t, inRoomPeer)
	if event.Type != models.EvUserTyping || event.ChatID != 7 {
		t.Fatalf("unexpected event %+v", event)
	}

	outPeer.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := outPeer.ReadMessage(); err == nil {
		t.Fatal("expected no event outside the room")
	}
}

func TestBroadcastAll(t *testing.T) {
	hub := NewHub()
	_, peer1 := dialTestClient(t, hub, 1)
	_, peer2 := dialTestClient(t, hub, 2)

	online := true
	hub.BroadcastAll(models.ServerEvent{Type: models.EvUserStatusChange, UserID: 1, Online: &online})

	for _, peer := range []*websocket.Conn{peer1, peer2} {
		event := readEvent(t, peer)
		if event.Type != models.EvUserStatusChange {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	}
}

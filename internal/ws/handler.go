package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"campus-chat-service/internal/chat"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/presence"
)

// TokenVerifier validates a bearer token and returns the user id inside.
type TokenVerifier interface {
	VerifyToken(token string) (int, error)
}

// Handler owns the websocket endpoint: handshake, presence registration and
// the per-connection event loop.
type Handler struct {
	hub      *Hub
	svc      *chat.Service
	registry *presence.Registry
	verifier TokenVerifier
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, svc *chat.Service, registry *presence.Registry, verifier TokenVerifier) *Handler {
	return &Handler{hub: hub, svc: svc, registry: registry, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs the event loop until it closes.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("campus-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	client := NewClient(conn, ConnInfo{
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	})

	h.hub.Register(client)
	if h.registry.Connect(userID) {
		h.announcePresence(userID, true)
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycleEvent(ctx, client, "ws_connect", "")

	// The new connection gets the full online snapshot right away.
	_ = client.Write(models.ServerEvent{Type: models.EvOnlineUsersList, OnlineUsers: h.registry.Online()})

	// Messages that arrived while this user was offline get their
	// delivered tick now.
	h.svc.SweepDelivered(ctx, userID)

	// The request context dies when the handler returns; the event loop
	// keeps the trace metadata but outlives the handshake.
	go h.readLoop(context.WithoutCancel(ctx), client)
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	var closeReason string
	defer func() {
		h.hub.Unregister(client)
		client.Close()
		if h.registry.Disconnect(client.Info().UserID) {
			h.announcePresence(client.Info().UserID, false)
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycleEvent(ctx, client, "ws_disconnect", closeReason)
	}()

	for {
		event, err := client.ReadEvent()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycleEvent(ctx, client, "ws_error", closeReason)
			}
			return
		}
		h.dispatch(ctx, client, event)
	}
}

// dispatch routes one client event to the chat engine. Errors are reported
// to the offending connection only and never reach the other participant.
func (h *Handler) dispatch(ctx context.Context, client *Client, event models.ClientEvent) {
	userID := client.Info().UserID

	var err error
	switch event.Type {
	case models.EvUserOnline:
		// Presence is registered at handshake; nothing left to do.
	case models.EvGetOnlineUsers:
		_ = client.Write(models.ServerEvent{Type: models.EvOnlineUsersList, OnlineUsers: h.registry.Online()})
	case models.EvJoinChat:
		if _, err = h.svc.GetChatForUser(ctx, event.ChatID, userID); err == nil {
			h.hub.JoinChat(event.ChatID, client)
		}
	case models.EvLeaveChat:
		h.hub.LeaveChat(event.ChatID, client)
	case models.EvSendMessage:
		_, err = h.svc.Send(ctx, event.ChatID, userID, event.Content, event.ClientKey)
	case models.EvDeleteMessage:
		err = h.svc.DeleteMessage(ctx, event.ChatID, event.MessageID, userID)
	case models.EvMarkRead:
		err = h.svc.MarkRead(ctx, event.ChatID, userID)
	case models.EvTyping:
		err = h.svc.SetTyping(ctx, event.ChatID, userID, event.IsTyping)
	case models.EvChatApproved, models.EvChatRejected:
		err = h.svc.AnnounceStatus(ctx, event.ChatID, userID)
	default:
		log.Printf("ignoring unknown ws event type=%q user_id=%d", event.Type, userID)
		return
	}

	observability.IncWSEvent(event.Type)
	if err != nil {
		_ = client.Write(models.ServerEvent{
			Type:   models.EvMessageError,
			ChatID: event.ChatID,
			Error:  err.Error(),
		})
	}
}

// announcePresence rebroadcasts the full online set to everyone so clients
// never drift from a missed delta.
func (h *Handler) announcePresence(userID int, online bool) {
	users := h.registry.Online()
	observability.SetOnlineUsers(len(users))
	h.hub.BroadcastAll(models.ServerEvent{
		Type:        models.EvUserStatusChange,
		UserID:      userID,
		Online:      &online,
		OnlineUsers: users,
	})
}

func (h *Handler) publishLifecycleEvent(ctx context.Context, client *Client, name, reason string) {
	info := client.Info()
	payload := observability.WSEventPayload(name, info.ConnID,
		time.Since(info.ConnectedAt).Milliseconds(), reason,
		info.UserID, info.DeviceID, info.IP)
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

package telemetry

import (
	"context"
	"log"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// ChatNotification is published for the portal's notification service when
// a chat needs the other participant's attention (request, approval,
// delete request). The notification fan-out itself lives outside this
// service.
type ChatNotification struct {
	EventType  string `json:"event_type"`
	ChatID     int    `json:"chat_id"`
	ActorID    int    `json:"actor_id"`
	TargetID   int    `json:"target_id"`
	OccurredAt string `json:"occurred_at"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

// NotifyChat publishes a chat notification event. Failures are logged and
// swallowed; notifications are best-effort.
func NotifyChat(ctx context.Context, publisher Publisher, eventType string, chatID, actorID, targetID int) {
	if publisher == nil {
		return
	}
	event := ChatNotification{
		EventType:  eventType,
		ChatID:     chatID,
		ActorID:    actorID,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := publisher.Publish(ctx, "chat.notification."+eventType, event); err != nil {
		log.Printf("chat notification publish failed: %v", err)
	}
}

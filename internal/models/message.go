package models

import "time"

// MessageStatus is the delivery state of a message. Transitions are
// monotonic: sent -> delivered -> read, never backwards.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// DeletedPlaceholder replaces the content of a deleted message.
const DeletedPlaceholder = "This message was deleted"

// Message represents a chat message.
type Message struct {
	ID        int           `db:"id" json:"id"`
	ChatID    int           `db:"chat_id" json:"chat_id"`
	SenderID  int           `db:"sender_id" json:"sender_id"`
	ClientKey *string       `db:"client_key" json:"client_key,omitempty"`
	Content   string        `db:"content" json:"content"`
	Status    MessageStatus `db:"status" json:"status"`
	Deleted   bool          `db:"deleted" json:"deleted"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// DeliveryUpdate identifies one message whose status was promoted.
type DeliveryUpdate struct {
	MessageID int `db:"id"`
	ChatID    int `db:"chat_id"`
	SenderID  int `db:"sender_id"`
}

package models

import "time"

// ChatStatus is the lifecycle state of a chat.
type ChatStatus string

const (
	ChatPending  ChatStatus = "pending"
	ChatAccepted ChatStatus = "accepted"
	ChatRejected ChatStatus = "rejected"
)

// Chat represents a conversation between exactly two users. The pair is
// stored canonically with the smaller id in User1ID.
type Chat struct {
	ID                int        `db:"id" json:"id"`
	User1ID           int        `db:"user1_id" json:"user1_id"`
	User2ID           int        `db:"user2_id" json:"user2_id"`
	Status            ChatStatus `db:"status" json:"status"`
	InitiatedBy       int        `db:"initiated_by" json:"initiated_by"`
	DeleteRequestedBy *int       `db:"delete_requested_by" json:"delete_requested_by,omitempty"`
	Deleted           bool       `db:"deleted" json:"-"`
	LastMessageAt     *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID int) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the peer of the given participant.
func (c Chat) OtherParticipant(userID int) int {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// DeleteRequest returns the open delete request, if any. A nil
// DeleteRequestedBy means no request; the status cannot drift from the
// requester field because there is only one.
func (c Chat) DeleteRequest() (requestedBy int, ok bool) {
	if c.DeleteRequestedBy == nil {
		return 0, false
	}
	return *c.DeleteRequestedBy, true
}

// ChatSummary is the per-user view of a chat used by list endpoints.
type ChatSummary struct {
	ChatID        int        `db:"id" json:"chat_id"`
	FriendID      int        `json:"friend_id"`
	Status        ChatStatus `db:"status" json:"status"`
	InitiatedBy   int        `db:"initiated_by" json:"initiated_by"`
	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ChatHistory records that a pair of users has ever had an accepted chat.
// Written once on first approval and never mutated, so a later chat between
// the same pair skips the pending step.
type ChatHistory struct {
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

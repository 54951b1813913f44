package models

import "time"

// BlockEntry is a directional block from one user to another. Either
// direction gates sending both ways; existing chats are kept.
type BlockEntry struct {
	BlockerID int       `db:"blocker_id" json:"blocker_id"`
	BlockedID int       `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

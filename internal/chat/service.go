package chat

import (
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
)

// Broadcaster fans events out to live connections. Implemented by ws.Hub.
type Broadcaster interface {
	// SendToUser delivers to every active connection of the user.
	SendToUser(userID int, event models.ServerEvent)
	// SendToChatUser delivers only to the user's connections currently
	// joined to the chat room. Used for typing relays.
	SendToChatUser(chatID int, userID int, event models.ServerEvent)
}

// Presence answers whether a user currently holds a live connection.
// Implemented by presence.Registry.
type Presence interface {
	IsOnline(userID int) bool
}

// Service is the chat engine: lifecycle transitions, the message pipeline,
// delivery tracking and typing relays. All mutations on one chat are
// serialized through the per-chat lock table.
type Service struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	blocks   repositories.BlockRepository
	presence Presence
	cast     Broadcaster
	locks    *chatLocks
}

// NewService wires the chat engine.
func NewService(chats repositories.ChatRepository, messages repositories.MessageRepository, blocks repositories.BlockRepository, presence Presence, cast Broadcaster) *Service {
	return &Service{
		chats:    chats,
		messages: messages,
		blocks:   blocks,
		presence: presence,
		cast:     cast,
		locks:    newChatLocks(),
	}
}

package chat

import (
	"context"

	"campus-chat-service/internal/models"
)

// SetTyping relays the typing flag to the other participant's connections
// that are joined to the chat room. Nothing is persisted and there is no
// state machine: each event overwrites the previous one on the client, and
// a late duplicate is_typing=false is harmless.
func (s *Service) SetTyping(ctx context.Context, chatID int, userID int, isTyping bool) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return ErrNotAuthorized
	}

	s.cast.SendToChatUser(chatID, chat.OtherParticipant(userID), models.ServerEvent{
		Type:     models.EvUserTyping,
		ChatID:   chatID,
		UserID:   userID,
		IsTyping: &isTyping,
	})
	return nil
}

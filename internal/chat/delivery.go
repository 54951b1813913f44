package chat

import (
	"context"
	"log"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
)

// MarkRead transitions every counterpart message in the chat to read,
// zeroes the reader's unread counter and fans out the read receipt to both
// participants so the sender's ticks update. Idempotent: re-reading an
// already read chat changes nothing and still answers the caller.
func (s *Service) MarkRead(ctx context.Context, chatID int, readerID int) error {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(readerID) {
		return ErrNotAuthorized
	}

	changed, err := s.messages.MarkRead(ctx, chatID, readerID)
	if err != nil {
		return err
	}
	if changed > 0 {
		observability.IncChatEvent("messages_read")
	}

	event := models.ServerEvent{Type: models.EvMessagesRead, ChatID: chatID, UserID: readerID}
	s.cast.SendToUser(chat.User1ID, event)
	s.cast.SendToUser(chat.User2ID, event)
	return nil
}

// SweepDelivered promotes sent messages addressed to the user to delivered.
// Called when the user connects: anything that arrived while they were
// offline gets its delivery tick, and each original sender is told. The
// SQL guard keeps the transition monotonic; read messages are untouched.
func (s *Service) SweepDelivered(ctx context.Context, userID int) {
	updates, err := s.messages.MarkDelivered(ctx, userID)
	if err != nil {
		log.Printf("delivered sweep failed user_id=%d: %v", userID, err)
		return
	}
	for _, u := range updates {
		s.cast.SendToUser(u.SenderID, models.ServerEvent{
			Type:      models.EvMessageStatusUpdate,
			ChatID:    u.ChatID,
			MessageID: u.MessageID,
			Status:    string(models.MessageDelivered),
		})
	}
}

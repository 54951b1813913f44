package chat

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/repositories"
)

const (
	// pendingMessageLimit caps the initiator's messages while the chat
	// awaits approval. The non-initiator may not send at all until they
	// approve or reject.
	pendingMessageLimit = 2

	maxContentRunes = 4000
)

// Send validates, persists and fans out one message. Every check runs
// before any write, under the chat's lock, so a failed send leaves no
// observable state. clientKey is an optional client-generated idempotency
// key: resending it returns the original message without a second insert.
func (s *Service) Send(ctx context.Context, chatID int, senderID int, content string, clientKey string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxContentRunes {
		return models.Message{}, ErrValidation
	}

	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Message{}, err
	}
	if chat.Deleted {
		return models.Message{}, repositories.ErrChatNotFound
	}
	if !chat.HasParticipant(senderID) {
		return models.Message{}, ErrNotAuthorized
	}
	recipientID := chat.OtherParticipant(senderID)

	blocked, err := s.blocks.IsBlocked(ctx, senderID, recipientID)
	if err != nil {
		return models.Message{}, err
	}
	if blocked {
		return models.Message{}, ErrBlocked
	}

	switch chat.Status {
	case models.ChatRejected:
		return models.Message{}, ErrNotAllowed
	case models.ChatPending:
		if senderID != chat.InitiatedBy {
			return models.Message{}, ErrNotAllowed
		}
		sent, err := s.messages.CountFromSender(ctx, chatID, senderID)
		if err != nil {
			return models.Message{}, err
		}
		if sent >= pendingMessageLimit {
			observability.IncChatEvent("quota_exceeded")
			return models.Message{}, ErrQuotaExceeded
		}
	case models.ChatAccepted:
		if _, open := chat.DeleteRequest(); open {
			return models.Message{}, ErrNotAllowed
		}
	}

	status := models.MessageSent
	if s.presence.IsOnline(recipientID) {
		status = models.MessageDelivered
	}

	msg, created, err := s.messages.CreateMessage(ctx, chatID, senderID, recipientID, content, clientKey, status)
	if err != nil {
		return models.Message{}, err
	}
	if !created {
		return msg, nil // duplicate client key, already fanned out
	}

	observability.IncChatEvent("message_sent")
	for _, userID := range []int{chat.User1ID, chat.User2ID} {
		unread, err := s.messages.UnreadCount(ctx, chatID, userID)
		if err != nil {
			log.Printf("unread lookup failed chat_id=%d user_id=%d: %v", chatID, userID, err)
		}
		s.cast.SendToUser(userID, models.ServerEvent{
			Type:        models.EvNewMessage,
			ChatID:      chatID,
			Message:     &msg,
			UnreadCount: unread,
		})
	}
	return msg, nil
}

// DeleteMessage permanently redacts one message. Only the original sender
// may delete; deleting an already deleted message is a no-op.
func (s *Service) DeleteMessage(ctx context.Context, chatID int, messageID int, requesterID int) error {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(requesterID) {
		return ErrNotAuthorized
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ChatID != chatID {
		return ErrValidation
	}
	if msg.SenderID != requesterID {
		return ErrNotAuthorized
	}
	if msg.Deleted {
		return nil
	}

	if err := s.messages.MarkDeleted(ctx, messageID); err != nil {
		return err
	}

	observability.IncChatEvent("message_deleted")
	event := models.ServerEvent{Type: models.EvMessageDeleted, ChatID: chatID, MessageID: messageID}
	s.cast.SendToUser(chat.User1ID, event)
	s.cast.SendToUser(chat.User2ID, event)
	return nil
}

// Messages returns the chat's messages for a participant, ascending by
// timestamp.
func (s *Service) Messages(ctx context.Context, chatID int, userID int) ([]models.Message, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Deleted {
		return nil, repositories.ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotAuthorized
	}
	return s.messages.ListMessages(ctx, chatID)
}

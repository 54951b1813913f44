package chat

import (
	"context"
	"errors"
	"log"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/repositories"
)

// RequestChat opens (or re-opens) the chat between initiator and target.
// An existing chat for the pair is returned as-is, restored first if it was
// soft-deleted. Otherwise a new chat is created: directly accepted when the
// pair has history, pending approval when they never chatted before.
func (s *Service) RequestChat(ctx context.Context, initiator int, target int) (models.Chat, error) {
	if initiator == target {
		return models.Chat{}, ErrValidation
	}

	blocked, err := s.blocks.IsBlocked(ctx, initiator, target)
	if err != nil {
		return models.Chat{}, err
	}
	if blocked {
		return models.Chat{}, ErrBlocked
	}

	chat, err := s.chats.GetChatByPair(ctx, initiator, target)
	if err == nil {
		if chat.Deleted {
			unlock := s.locks.Lock(chat.ID)
			defer unlock()
			if err := s.chats.RestoreChat(ctx, chat.ID); err != nil {
				return models.Chat{}, err
			}
			chat.Deleted = false
			s.notifyStatus(chat, string(chat.Status))
		}
		return chat, nil
	}
	if !errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, err
	}

	status := models.ChatPending
	hasHistory, err := s.chats.HasHistory(ctx, initiator, target)
	if err != nil {
		return models.Chat{}, err
	}
	if hasHistory {
		status = models.ChatAccepted
	}

	chat, err = s.chats.CreateChat(ctx, initiator, target, status)
	if err != nil {
		// A concurrent request for the same pair may have won the insert.
		if existing, getErr := s.chats.GetChatByPair(ctx, initiator, target); getErr == nil {
			return existing, nil
		}
		return models.Chat{}, err
	}

	observability.IncChatEvent("chat_requested")
	log.Printf("chat requested chat_id=%d initiator=%d target=%d status=%s", chat.ID, initiator, target, chat.Status)
	s.cast.SendToUser(target, models.ServerEvent{Type: models.EvNewNotification})
	s.notifyStatus(chat, string(chat.Status))
	return chat, nil
}

// Approve transitions a pending chat to accepted. Only the participant who
// did not initiate the chat may approve. Approval writes the pair's history
// record so future chats between them skip the pending step.
func (s *Service) Approve(ctx context.Context, chatID int, approver int) (models.Chat, error) {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(approver) || approver == chat.InitiatedBy {
		return models.Chat{}, ErrNotAuthorized
	}
	if chat.Status != models.ChatPending {
		return models.Chat{}, ErrNotAllowed
	}

	if err := s.chats.UpdateStatus(ctx, chatID, models.ChatAccepted); err != nil {
		return models.Chat{}, err
	}
	if err := s.chats.RecordHistory(ctx, chat.User1ID, chat.User2ID); err != nil {
		return models.Chat{}, err
	}
	chat.Status = models.ChatAccepted

	observability.IncChatEvent("chat_approved")
	s.cast.SendToUser(chat.InitiatedBy, models.ServerEvent{Type: models.EvNewNotification})
	s.notifyStatus(chat, string(models.ChatAccepted))
	return chat, nil
}

// Reject transitions a pending chat to rejected; the chat becomes inert.
func (s *Service) Reject(ctx context.Context, chatID int, rejecter int) (models.Chat, error) {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(rejecter) || rejecter == chat.InitiatedBy {
		return models.Chat{}, ErrNotAuthorized
	}
	if chat.Status != models.ChatPending {
		return models.Chat{}, ErrNotAllowed
	}

	if err := s.chats.UpdateStatus(ctx, chatID, models.ChatRejected); err != nil {
		return models.Chat{}, err
	}
	chat.Status = models.ChatRejected

	observability.IncChatEvent("chat_rejected")
	s.notifyStatus(chat, string(models.ChatRejected))
	return chat, nil
}

// RequestDelete opens a delete request on an accepted chat. The other
// participant must approve before the chat is removed.
func (s *Service) RequestDelete(ctx context.Context, chatID int, requester int) error {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(requester) {
		return ErrNotAuthorized
	}
	if chat.Status != models.ChatAccepted || chat.Deleted {
		return ErrNotAllowed
	}
	if requestedBy, open := chat.DeleteRequest(); open {
		if requestedBy == requester {
			return nil // already requested by the same user
		}
		return ErrNotAllowed
	}

	if err := s.chats.SetDeleteRequest(ctx, chatID, requester); err != nil {
		return err
	}
	observability.IncChatEvent("delete_requested")
	s.cast.SendToUser(chat.OtherParticipant(requester), models.ServerEvent{Type: models.EvNewNotification})
	return nil
}

// ApproveDelete completes the mutual-consent deletion: only the participant
// who did not request the delete may approve, after which the chat is
// removed from both users' listings. The pair's history record survives.
func (s *Service) ApproveDelete(ctx context.Context, chatID int, approver int) error {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(approver) {
		return ErrNotAuthorized
	}
	requestedBy, open := chat.DeleteRequest()
	if !open || chat.Deleted {
		return ErrNotAllowed
	}
	if requestedBy == approver {
		return ErrNotAuthorized
	}

	if err := s.chats.SoftDeleteChat(ctx, chatID); err != nil {
		return err
	}
	observability.IncChatEvent("chat_deleted")
	log.Printf("chat deleted chat_id=%d requested_by=%d approved_by=%d", chatID, requestedBy, approver)
	s.notifyStatus(chat, "deleted")
	return nil
}

// DeclineDelete clears the open delete request; the chat stays accepted.
func (s *Service) DeclineDelete(ctx context.Context, chatID int, decliner int) error {
	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(decliner) {
		return ErrNotAuthorized
	}
	if _, open := chat.DeleteRequest(); !open {
		return ErrNotAllowed
	}

	if err := s.chats.ClearDeleteRequest(ctx, chatID); err != nil {
		return err
	}
	observability.IncChatEvent("delete_declined")
	s.notifyStatus(chat, string(models.ChatAccepted))
	return nil
}

// AnnounceStatus re-broadcasts the chat's current status to both
// participants. Clients send chat-approved / chat-rejected over the socket
// after the REST transition; this answers them without re-running it.
func (s *Service) AnnounceStatus(ctx context.Context, chatID int, userID int) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return ErrNotAuthorized
	}
	status := string(chat.Status)
	if chat.Deleted {
		status = "deleted"
	}
	s.notifyStatus(chat, status)
	return nil
}

// GetChatForUser resolves the chat and verifies membership.
func (s *Service) GetChatForUser(ctx context.Context, chatID int, userID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, ErrNotAuthorized
	}
	return chat, nil
}

func (s *Service) notifyStatus(chat models.Chat, status string) {
	event := models.ServerEvent{Type: models.EvChatStatusChanged, ChatID: chat.ID, Status: status}
	s.cast.SendToUser(chat.User1ID, event)
	s.cast.SendToUser(chat.User2ID, event)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and chat-history persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, initiator int, target int, status models.ChatStatus) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	GetChatByPair(ctx context.Context, userA int, userB int) (models.Chat, error)
	ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error)
	ListPending(ctx context.Context, userID int) ([]models.Chat, error)
	UpdateStatus(ctx context.Context, chatID int, status models.ChatStatus) error
	SetDeleteRequest(ctx context.Context, chatID int, userID int) error
	ClearDeleteRequest(ctx context.Context, chatID int) error
	SoftDeleteChat(ctx context.Context, chatID int) error
	RestoreChat(ctx context.Context, chatID int) error
	HasHistory(ctx context.Context, userA int, userB int) (bool, error)
	RecordHistory(ctx context.Context, userA int, userB int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// canonicalPair orders two user ids so the pair is direction-independent.
func canonicalPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

const chatColumns = `id, user1_id, user2_id, status, initiated_by, delete_requested_by, deleted, last_message_at, created_at`

// CreateChat inserts a chat for the pair in the given initial status.
func (r *ChatRepo) CreateChat(ctx context.Context, initiator int, target int, status models.ChatStatus) (models.Chat, error) {
	user1, user2 := canonicalPair(initiator, target)
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user1_id, user2_id, status, initiated_by) VALUES ($1, $2, $3, $4) RETURNING `+chatColumns,
		user1, user2, status, initiator).StructScan(&chat)
	return chat, err
}

// GetChat fetches a chat by id, including soft-deleted ones.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetChatByPair fetches the chat for an unordered user pair.
func (r *ChatRepo) GetChatByPair(ctx context.Context, userA int, userB int) (models.Chat, error) {
	user1, user2 := canonicalPair(userA, userB)
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChats returns non-deleted chats for the user, newest activity first,
// with the user's unread count attached.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	query := `SELECT c.id, c.user1_id, c.user2_id, c.status, c.initiated_by, c.last_message_at, c.created_at,
            COALESCE(u.count, 0) AS unread
        FROM chats c
        LEFT JOIN chat_unread u ON u.chat_id = c.id AND u.user_id = $1
        WHERE (c.user1_id=$1 OR c.user2_id=$1) AND c.deleted = FALSE
        ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ChatSummary
	for rows.Next() {
		var row struct {
			models.Chat
			Unread int `db:"unread"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		result = append(result, models.ChatSummary{
			ChatID:        row.ID,
			FriendID:      row.OtherParticipant(userID),
			Status:        row.Status,
			InitiatedBy:   row.InitiatedBy,
			UnreadCount:   row.Unread,
			LastMessageAt: row.LastMessageAt,
			CreatedAt:     row.CreatedAt,
		})
	}
	return result, rows.Err()
}

// ListPending returns pending chats awaiting the user's approval.
func (r *ChatRepo) ListPending(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT `+chatColumns+` FROM chats
         WHERE (user1_id=$1 OR user2_id=$1) AND initiated_by <> $1
           AND status='pending' AND deleted = FALSE
         ORDER BY created_at DESC`, userID)
	return chats, err
}

// UpdateStatus sets the lifecycle status of a chat.
func (r *ChatRepo) UpdateStatus(ctx context.Context, chatID int, status models.ChatStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET status=$2 WHERE id=$1`, chatID, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetDeleteRequest opens a delete request on the chat.
func (r *ChatRepo) SetDeleteRequest(ctx context.Context, chatID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET delete_requested_by=$2 WHERE id=$1`, chatID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ClearDeleteRequest closes an open delete request.
func (r *ChatRepo) ClearDeleteRequest(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET delete_requested_by=NULL WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDeleteChat marks the chat deleted and closes any delete request.
// Messages are retained; chat_history keeps the pair's approval on record.
func (r *ChatRepo) SoftDeleteChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET deleted=TRUE, delete_requested_by=NULL WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RestoreChat clears the deleted flag so the chat reappears for both sides.
func (r *ChatRepo) RestoreChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET deleted=FALSE WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// HasHistory reports whether the pair ever had an accepted chat.
func (r *ChatRepo) HasHistory(ctx context.Context, userA int, userB int) (bool, error) {
	user1, user2 := canonicalPair(userA, userB)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_history WHERE user1_id=$1 AND user2_id=$2)`, user1, user2)
	return exists, err
}

// RecordHistory writes the pair's history record. Idempotent.
func (r *ChatRepo) RecordHistory(ctx context.Context, userA int, userB int) error {
	user1, user2 := canonicalPair(userA, userB)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_history (user1_id, user2_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, user1, user2)
	return err
}

func requireRow(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

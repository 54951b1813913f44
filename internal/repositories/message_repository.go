package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages, delivery status
// and unread counters.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, recipientID int, content string, clientKey string, status models.MessageStatus) (models.Message, bool, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	CountFromSender(ctx context.Context, chatID int, senderID int) (int, error)
	MarkDeleted(ctx context.Context, messageID int) error
	MarkRead(ctx context.Context, chatID int, readerID int) (int, error)
	MarkDelivered(ctx context.Context, userID int) ([]models.DeliveryUpdate, error)
	UnreadCount(ctx context.Context, chatID int, userID int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, client_key, content, status, deleted, created_at`

// CreateMessage persists one message transactionally: the insert, the
// recipient's unread increment and the chat's last_message_at bump commit
// together or not at all. A duplicate client key returns the already stored
// message with created=false and no side effects.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, recipientID int, content string, clientKey string, status models.MessageStatus) (models.Message, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, false, err
	}
	defer tx.Rollback()

	var key sql.NullString
	if clientKey != "" {
		key = sql.NullString{String: clientKey, Valid: true}
	}

	var msg models.Message
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, client_key, content, status)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (client_key) DO NOTHING
         RETURNING `+messageColumns,
		chatID, senderID, key, content, status).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict on the idempotency key: hand back the original insert.
		// The key must match the same chat and sender, so replaying a key
		// seen elsewhere never leaks another user's message.
		if err := tx.GetContext(ctx, &msg,
			`SELECT `+messageColumns+` FROM messages WHERE client_key=$1 AND chat_id=$2 AND sender_id=$3`,
			clientKey, chatID, senderID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.Message{}, false, ErrMessageNotFound
			}
			return models.Message{}, false, err
		}
		return msg, false, tx.Commit()
	}
	if err != nil {
		return models.Message{}, false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_unread (chat_id, user_id, count) VALUES ($1, $2, 1)
         ON CONFLICT (chat_id, user_id) DO UPDATE SET count = chat_unread.count + 1`,
		chatID, recipientID); err != nil {
		return models.Message{}, false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET last_message_at=$2 WHERE id=$1`, chatID, msg.CreatedAt); err != nil {
		return models.Message{}, false, err
	}

	return msg, true, tx.Commit()
}

// ListMessages returns the chat's messages ordered by timestamp ascending.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id=$1 ORDER BY created_at ASC, id ASC`, chatID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// CountFromSender counts persisted messages from one sender in a chat. The
// pending-chat quota is checked against this under the chat's lock.
func (r *MessageRepo) CountFromSender(ctx context.Context, chatID int, senderID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE chat_id=$1 AND sender_id=$2`, chatID, senderID)
	return count, err
}

// MarkDeleted replaces the content with the placeholder and sets the deleted
// flag. Idempotent: a second call changes nothing.
func (r *MessageRepo) MarkDeleted(ctx context.Context, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted=TRUE, content=$2 WHERE id=$1`, messageID, models.DeletedPlaceholder)
	return err
}

// MarkRead promotes every counterpart message in the chat to read and zeroes
// the reader's unread counter, in one transaction. Returns the number of
// messages transitioned.
func (r *MessageRepo) MarkRead(ctx context.Context, chatID int, readerID int) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE messages SET status='read' WHERE chat_id=$1 AND sender_id <> $2 AND status <> 'read'`,
		chatID, readerID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_unread (chat_id, user_id, count) VALUES ($1, $2, 0)
         ON CONFLICT (chat_id, user_id) DO UPDATE SET count = 0`,
		chatID, readerID); err != nil {
		return 0, err
	}

	return int(count), tx.Commit()
}

// MarkDelivered promotes sent messages addressed to the user across all
// their chats. Read stays read; the transition is monotonic by the status
// guard in the WHERE clause.
func (r *MessageRepo) MarkDelivered(ctx context.Context, userID int) ([]models.DeliveryUpdate, error) {
	var updates []models.DeliveryUpdate
	err := r.db.SelectContext(ctx, &updates,
		`UPDATE messages m SET status='delivered'
         FROM chats c
         WHERE c.id = m.chat_id AND (c.user1_id=$1 OR c.user2_id=$1)
           AND m.sender_id <> $1 AND m.status = 'sent'
         RETURNING m.id, m.chat_id, m.sender_id`, userID)
	return updates, err
}

// UnreadCount returns the user's unread counter for the chat.
func (r *MessageRepo) UnreadCount(ctx context.Context, chatID int, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COALESCE((SELECT count FROM chat_unread WHERE chat_id=$1 AND user_id=$2), 0)`,
		chatID, userID)
	return count, err
}

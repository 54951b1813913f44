package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

// BlockRepository stores directional block entries.
type BlockRepository interface {
	Block(ctx context.Context, blockerID int, blockedID int) error
	Unblock(ctx context.Context, blockerID int, blockedID int) error
	IsBlocked(ctx context.Context, userA int, userB int) (bool, error)
	ListBlocked(ctx context.Context, blockerID int) ([]models.BlockEntry, error)
}

// BlockRepo is a sqlx implementation of BlockRepository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs a BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Block records a directional block. Idempotent.
func (r *BlockRepo) Block(ctx context.Context, blockerID int, blockedID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		blockerID, blockedID)
	return err
}

// Unblock removes a directional block. Idempotent.
func (r *BlockRepo) Unblock(ctx context.Context, blockerID int, blockedID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	return err
}

// IsBlocked reports whether a block exists in either direction. Used as the
// send gate: one side blocking stops sending both ways.
func (r *BlockRepo) IsBlocked(ctx context.Context, userA int, userB int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM blocks
         WHERE (blocker_id=$1 AND blocked_id=$2) OR (blocker_id=$2 AND blocked_id=$1))`,
		userA, userB)
	return exists, err
}

// ListBlocked returns the users blocked by the given user.
func (r *BlockRepo) ListBlocked(ctx context.Context, blockerID int) ([]models.BlockEntry, error) {
	var entries []models.BlockEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT blocker_id, blocked_id, created_at FROM blocks WHERE blocker_id=$1 ORDER BY created_at DESC`,
		blockerID)
	return entries, err
}

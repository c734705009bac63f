package repository

import (
	"context"
	"fmt"

	"aurex/database"
	"aurex/models"

	"github.com/jackc/pgx/v5"
)

// MovementRepository implements the service.MovementRepository interface
type MovementRepository struct {
	q queryable
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{q: db.Pool}
}

// newMovementRepositoryWithTx creates a new movement repository with a transaction
func newMovementRepositoryWithTx(tx queryable) *MovementRepository {
	return &MovementRepository{q: tx}
}

const movementColumns = `id, wallet_id, user_id, direction, amount, description, reference, status, created_at`

// Record inserts a movement and fills its ID and CreatedAt
func (r *MovementRepository) Record(ctx context.Context, movement *models.Movement) error {
	query := `
		INSERT INTO movements (wallet_id, user_id, direction, amount, description, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		movement.WalletID,
		movement.UserID,
		movement.Direction,
		movement.Amount,
		movement.Description,
		movement.Reference,
		movement.Status,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record movement for wallet %d: %w", movement.WalletID, err)
	}
	return nil
}

// GetCompletedCredit finds a completed credit movement by wallet and
// reference, nil if none exists
func (r *MovementRepository) GetCompletedCredit(ctx context.Context, walletID int64, reference string) (*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE wallet_id = $1 AND reference = $2 AND direction = 'credit' AND status = 'completed'
	`

	var movement models.Movement
	err := r.q.QueryRow(ctx, query, walletID, reference).Scan(
		&movement.ID,
		&movement.WalletID,
		&movement.UserID,
		&movement.Direction,
		&movement.Amount,
		&movement.Description,
		&movement.Reference,
		&movement.Status,
		&movement.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit by reference for wallet %d: %w", walletID, err)
	}
	return &movement, nil
}

// ListByUser returns a user's movements newest first
func (r *MovementRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements for user %s: %w", userID, err)
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		var movement models.Movement
		err := rows.Scan(
			&movement.ID,
			&movement.WalletID,
			&movement.UserID,
			&movement.Direction,
			&movement.Amount,
			&movement.Description,
			&movement.Reference,
			&movement.Status,
			&movement.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, &movement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}
	return movements, nil
}

// CountByUser returns the total number of movements for a user
func (r *MovementRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movements WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movements for user %s: %w", userID, err)
	}
	return count, nil
}

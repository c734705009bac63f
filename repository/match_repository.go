package repository

import (
	"context"
	"fmt"

	"aurex/database"
	"aurex/models"
)

// MatchRepository implements the service.MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

// Create inserts an immutable match record
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (room_id, user_id, room_name, outcome, payout, standing, eliminations)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, played_at
	`

	err := r.q.QueryRow(ctx, query,
		match.RoomID,
		match.UserID,
		match.RoomName,
		match.Outcome,
		match.Payout,
		match.Standing,
		match.Eliminations,
	).Scan(&match.ID, &match.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to create match record for user %s in room %d: %w", match.UserID, match.RoomID, err)
	}
	return nil
}

// ListByUser returns a user's match history newest first
func (r *MatchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Match, error) {
	query := `
		SELECT id, room_id, user_id, room_name, outcome, payout, standing, eliminations, played_at
		FROM matches
		WHERE user_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %s: %w", userID, err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		err := rows.Scan(
			&match.ID,
			&match.RoomID,
			&match.UserID,
			&match.RoomName,
			&match.Outcome,
			&match.Payout,
			&match.Standing,
			&match.Eliminations,
			&match.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

package repository

import (
	"context"
	"fmt"

	"aurex/database"
	"aurex/models"

	"github.com/jackc/pgx/v5"
)

// RoomRepository implements the service.RoomRepository interface
type RoomRepository struct {
	q queryable
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{q: db.Pool}
}

// newRoomRepositoryWithTx creates a new room repository with a transaction
func newRoomRepositoryWithTx(tx queryable) *RoomRepository {
	return &RoomRepository{q: tx}
}

const roomColumns = `id, name, entry_fee, capacity, current_occupancy, status, access_code, starts_at, created_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.EntryFee,
		&room.Capacity,
		&room.CurrentOccupancy,
		&room.Status,
		&room.AccessCode,
		&room.StartsAt,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a room and fills its ID and CreatedAt
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (name, entry_fee, capacity, current_occupancy, status, access_code, starts_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		room.Name,
		room.EntryFee,
		room.Capacity,
		room.CurrentOccupancy,
		room.Status,
		room.AccessCode,
		room.StartsAt,
	).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// GetByID retrieves a room, nil if missing
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

// GetByIDForUpdate retrieves a room and takes an exclusive row lock.
// Must be called inside a transaction, after any wallet lock the same
// operation needs.
func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`

	room, err := scanRoom(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d for update: %w", id, err)
	}
	return room, nil
}

// Update writes a room's mutable fields
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $1, entry_fee = $2, capacity = $3, current_occupancy = $4,
		    status = $5, access_code = $6, starts_at = $7
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		room.Name,
		room.EntryFee,
		room.Capacity,
		room.CurrentOccupancy,
		room.Status,
		room.AccessCode,
		room.StartsAt,
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room %d: %w", room.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %d not found", room.ID)
	}
	return nil
}

// List returns rooms, optionally filtered by status, newest first
func (r *RoomRepository) List(ctx context.Context, status *models.RoomStatus, limit, offset int) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}
	return rooms, nil
}

const membershipColumns = `id, room_id, user_id, player_name, joined_at, standing, eliminations, points`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.UserID,
		&m.PlayerName,
		&m.JoinedAt,
		&m.Standing,
		&m.Eliminations,
		&m.Points,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// AddMember inserts a membership row
func (r *RoomRepository) AddMember(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (room_id, user_id, player_name)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`

	err := r.q.QueryRow(ctx, query,
		membership.RoomID,
		membership.UserID,
		membership.PlayerName,
	).Scan(&membership.ID, &membership.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add member %s to room %d: %w", membership.UserID, membership.RoomID, err)
	}
	return nil
}

// GetMember retrieves a membership, nil if missing
func (r *RoomRepository) GetMember(ctx context.Context, roomID int64, userID string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE room_id = $1 AND user_id = $2`

	m, err := scanMembership(r.q.QueryRow(ctx, query, roomID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership for user %s in room %d: %w", userID, roomID, err)
	}
	return m, nil
}

// ListMembers returns all memberships of a room in join order
func (r *RoomRepository) ListMembers(ctx context.Context, roomID int64) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE room_id = $1 ORDER BY joined_at ASC, id ASC`

	rows, err := r.q.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of room %d: %w", roomID, err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return members, nil
}

// RemoveMember deletes a membership row
func (r *RoomRepository) RemoveMember(ctx context.Context, roomID int64, userID string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM memberships WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member %s from room %d: %w", userID, roomID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership for user %s in room %d not found", userID, roomID)
	}
	return nil
}

// UpdateMemberResult writes a membership's final standing and stats
func (r *RoomRepository) UpdateMemberResult(ctx context.Context, membership *models.Membership) error {
	query := `
		UPDATE memberships
		SET standing = $1, eliminations = $2, points = $3
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query,
		membership.Standing,
		membership.Eliminations,
		membership.Points,
		membership.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership %d: %w", membership.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership %d not found", membership.ID)
	}
	return nil
}

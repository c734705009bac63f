package models

import (
	"time"
)

// RoomStatus represents the admission state of a room
type RoomStatus string

const (
	RoomStatusOpen       RoomStatus = "open"
	RoomStatusClosed     RoomStatus = "closed"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusCompleted  RoomStatus = "completed"
)

// Room is a capacity-limited resource users pay an entry fee to join.
// Status transitions: open → closed (auto on fill, or manual),
// open|closed → in_progress (manual), any non-completed → completed
// (settlement only). Completed is terminal.
type Room struct {
	ID               int64      `db:"id"`
	Name             string     `db:"name"`
	EntryFee         int64      `db:"entry_fee"`
	Capacity         int        `db:"capacity"`
	CurrentOccupancy int        `db:"current_occupancy"`
	Status           RoomStatus `db:"status"`
	// AccessCode is the in-game room code shared by the operator.
	// Revealed only to confirmed members.
	AccessCode *string   `db:"access_code"`
	StartsAt   time.Time `db:"starts_at"`
	CreatedAt  time.Time `db:"created_at"`
}

// IsOpen checks if the room accepts new members
func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}

// IsCompleted checks if the room has been settled
func (r *Room) IsCompleted() bool {
	return r.Status == RoomStatusCompleted
}

// IsFull checks if occupancy has reached capacity
func (r *Room) IsFull() bool {
	return r.CurrentOccupancy >= r.Capacity
}

// CanTransitionTo reports whether a manual transition to next is legal.
// The completed state is only reachable through settlement, never manually.
func (r *Room) CanTransitionTo(next RoomStatus) bool {
	switch next {
	case RoomStatusClosed:
		return r.Status == RoomStatusOpen
	case RoomStatusInProgress:
		return r.Status == RoomStatusOpen || r.Status == RoomStatusClosed
	default:
		return false
	}
}

// Snapshot captures the fields broadcast to room watchers
func (r *Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		RoomID:           r.ID,
		CurrentOccupancy: r.CurrentOccupancy,
		Capacity:         r.Capacity,
		Status:           r.Status,
	}
}

// RoomSnapshot is the room-state payload handed to the change notifier
type RoomSnapshot struct {
	RoomID           int64      `json:"room_id"`
	CurrentOccupancy int        `json:"current_occupancy"`
	Capacity         int        `json:"capacity"`
	Status           RoomStatus `json:"status"`
}

// Membership is the join record between a user and a room, unique per
// (room, user). PlayerName snapshots the player identifier supplied at join
// time. Standing and stat fields are filled by settlement.
type Membership struct {
	ID           int64     `db:"id"`
	RoomID       int64     `db:"room_id"`
	UserID       string    `db:"user_id"`
	PlayerName   string    `db:"player_name"`
	JoinedAt     time.Time `db:"joined_at"`
	Standing     *int      `db:"standing"`
	Eliminations *int      `db:"eliminations"`
	Points       *int      `db:"points"`
}

// LeaveResult reports whether leaving a room refunded the entry fee
type LeaveResult struct {
	Refunded bool  `json:"refunded"`
	Amount   int64 `json:"amount"`
}

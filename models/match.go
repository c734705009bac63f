package models

import (
	"time"
)

// MatchOutcome represents a member's result in a settled room
type MatchOutcome string

const (
	MatchOutcomeWin  MatchOutcome = "win"
	MatchOutcomeLoss MatchOutcome = "loss"
	MatchOutcomeDraw MatchOutcome = "draw"
)

// Valid checks the outcome is one of the known values
func (o MatchOutcome) Valid() bool {
	switch o {
	case MatchOutcomeWin, MatchOutcomeLoss, MatchOutcomeDraw:
		return true
	}
	return false
}

// Match is the permanent record of one member's outcome in one room.
// Room fields are snapshotted so history survives room deletion.
// Immutable once written.
type Match struct {
	ID           int64        `db:"id"`
	RoomID       int64        `db:"room_id"`
	UserID       string       `db:"user_id"`
	RoomName     string       `db:"room_name"`
	Outcome      MatchOutcome `db:"outcome"`
	Payout       int64        `db:"payout"`
	Standing     *int         `db:"standing"`
	Eliminations int          `db:"eliminations"`
	PlayedAt     time.Time    `db:"played_at"`
}

// SettlementEntry is one per-member result submitted by the operator
type SettlementEntry struct {
	UserID       string       `json:"user_id"`
	Outcome      MatchOutcome `json:"outcome"`
	Payout       int64        `json:"payout"`
	Standing     *int         `json:"standing"`
	Eliminations int          `json:"eliminations"`
}

// Validate checks an entry is well formed before the apply phase
func (e *SettlementEntry) Validate() error {
	if e.UserID == "" {
		return errEmptyUserID
	}
	if !e.Outcome.Valid() {
		return errBadOutcome
	}
	if e.Payout < 0 {
		return errNegativePayout
	}
	return nil
}

// RejectedEntry reports a settlement entry that was excluded, with the reason
type RejectedEntry struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// SettlementSummary is the result of settling a room
type SettlementSummary struct {
	RoomID       int64           `json:"room_id"`
	SettledCount int             `json:"settled_count"`
	Rejected     []RejectedEntry `json:"rejected"`
	SettledAt    time.Time       `json:"settled_at"`
}

package models

import (
	"time"
)

// MovementDirection represents whether a movement adds or removes coins
type MovementDirection string

const (
	MovementCredit MovementDirection = "credit"
	MovementDebit  MovementDirection = "debit"
)

// MovementStatus represents the lifecycle state of a movement
type MovementStatus string

const (
	MovementStatusPending   MovementStatus = "pending"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusFailed    MovementStatus = "failed"
)

// Movement is one immutable ledger entry. Once completed it is never edited.
// Reference carries an external identifier (payment id, room-scoped key)
// used to absorb replayed credits: at most one completed credit per
// (wallet, reference).
type Movement struct {
	ID          int64             `db:"id"`
	WalletID    int64             `db:"wallet_id"`
	UserID      string            `db:"user_id"`
	Direction   MovementDirection `db:"direction"`
	Amount      int64             `db:"amount"`
	Description string            `db:"description"`
	Reference   *string           `db:"reference"`
	Status      MovementStatus    `db:"status"`
	CreatedAt   time.Time         `db:"created_at"`
}

// IsCompleted checks if the movement has been committed to the ledger
func (m *Movement) IsCompleted() bool {
	return m.Status == MovementStatusCompleted
}

// SignedAmount returns the balance delta this movement applied
func (m *Movement) SignedAmount() int64 {
	if m.Direction == MovementDebit {
		return -m.Amount
	}
	return m.Amount
}

package models

import (
	"time"
)

// Wallet holds a user's coin balance. One wallet per user, created the first
// time the user touches the ledger. All coin values are integers — never
// floats for currency.
type Wallet struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanAfford checks whether the wallet covers the given amount.
func (w *Wallet) CanAfford(amount int64) bool {
	return w.Balance >= amount
}

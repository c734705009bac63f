package repository

import (
	"context"
	"fmt"

	"aurex/database"
	"aurex/models"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the service.WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

const walletColumns = `id, user_id, balance, created_at, updated_at`

// GetByUserID retrieves a wallet by its owner
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanOne(ctx, query, userID)
}

// GetByUserIDForUpdate retrieves a wallet and takes an exclusive row lock.
// Must be called inside a transaction; the lock is held until commit or
// rollback. Lock ordering: wallets are always locked before rooms.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, userID)
}

func (r *WalletRepository) scanOne(ctx context.Context, query string, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// Create creates a wallet with a zero balance
func (r *WalletRepository) Create(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0)
		RETURNING ` + walletColumns

	var wallet models.Wallet
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// SetBalance writes a new balance for a wallet. Callers are expected to hold
// the row lock taken by GetByUserIDForUpdate.
func (r *WalletRepository) SetBalance(ctx context.Context, walletID int64, newBalance int64) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, newBalance, walletID)
	if err != nil {
		return fmt.Errorf("failed to set balance for wallet %d: %w", walletID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d not found", walletID)
	}
	return nil
}

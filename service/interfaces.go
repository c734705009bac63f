package service

import (
	"context"
	"time"

	"aurex/events"
	"aurex/models"
)

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByUserID retrieves a wallet by its owner, nil if missing
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)

	// GetByUserIDForUpdate retrieves a wallet and takes an exclusive row lock
	// held until the surrounding transaction commits or rolls back
	GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Wallet, error)

	// Create creates a wallet with a zero balance
	Create(ctx context.Context, userID string) (*models.Wallet, error)

	// SetBalance writes a new balance for a wallet the caller has locked
	SetBalance(ctx context.Context, walletID int64, newBalance int64) error
}

// MovementRepository defines the interface for the append-only ledger log
type MovementRepository interface {
	// Record inserts a movement and fills its ID and CreatedAt
	Record(ctx context.Context, movement *models.Movement) error

	// GetCompletedCredit finds a completed credit movement by wallet and
	// reference, nil if none exists. Used for replay absorption.
	GetCompletedCredit(ctx context.Context, walletID int64, reference string) (*models.Movement, error)

	// ListByUser returns a user's movements newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Movement, error)

	// CountByUser returns the total number of movements for a user
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// RoomRepository defines the interface for room and membership data access
type RoomRepository interface {
	// Create inserts a room and fills its ID and CreatedAt
	Create(ctx context.Context, room *models.Room) error

	// GetByID retrieves a room, nil if missing
	GetByID(ctx context.Context, id int64) (*models.Room, error)

	// GetByIDForUpdate retrieves a room and takes an exclusive row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Room, error)

	// Update writes a room's occupancy, status and access code
	Update(ctx context.Context, room *models.Room) error

	// List returns rooms, optionally filtered by status, newest first
	List(ctx context.Context, status *models.RoomStatus, limit, offset int) ([]*models.Room, error)

	// AddMember inserts a membership row
	AddMember(ctx context.Context, membership *models.Membership) error

	// GetMember retrieves a membership, nil if missing
	GetMember(ctx context.Context, roomID int64, userID string) (*models.Membership, error)

	// ListMembers returns all memberships of a room in join order
	ListMembers(ctx context.Context, roomID int64) ([]*models.Membership, error)

	// RemoveMember deletes a membership row
	RemoveMember(ctx context.Context, roomID int64, userID string) error

	// UpdateMemberResult writes a membership's final standing and stats
	UpdateMemberResult(ctx context.Context, membership *models.Membership) error
}

// MatchRepository defines the interface for permanent match records
type MatchRepository interface {
	// Create inserts an immutable match record
	Create(ctx context.Context, match *models.Match) error

	// ListByUser returns a user's match history newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Match, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork is the transaction-scoped handle passed through every core
// operation. Repositories obtained from it share one database transaction;
// events published through it are delivered only after that transaction
// commits.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	WalletRepository() WalletRepository
	MovementRepository() MovementRepository
	RoomRepository() RoomRepository
	MatchRepository() MatchRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances, one per operation
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService is the sole authority over coin balance mutations
type LedgerService interface {
	// Credit adds coins to a user's wallet. When reference is non-empty and a
	// completed credit with that reference already exists for the wallet, the
	// existing movement is returned and nothing is credited.
	Credit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error)

	// Debit removes coins, failing with InsufficientFundsError when the
	// balance does not cover the amount
	Debit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error)

	// ListMovements returns a page of a user's movement history, newest first
	ListMovements(ctx context.Context, userID string, page, limit int) (int64, []*models.Movement, error)

	// GetOrCreateWallet returns the user's wallet, provisioning it on first use
	GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// AdminCredit credits coins on behalf of an operator
	AdminCredit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error)

	// AdminDebit debits coins on behalf of an operator
	AdminDebit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error)
}

// AdmissionService governs room capacity and membership transitions
type AdmissionService interface {
	// Join atomically reserves a seat and collects the entry fee
	Join(ctx context.Context, roomID int64, userID, playerName string) (*models.Room, error)

	// Leave removes a membership, refunding the fee while the room is open
	Leave(ctx context.Context, roomID int64, userID string) (*models.LeaveResult, error)

	// IsMember reports whether a user holds a membership in a room
	IsMember(ctx context.Context, roomID int64, userID string) (bool, error)

	// CreateRoom opens a new room
	CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error)

	// UpdateStatus applies a manual status transition (open→closed,
	// open|closed→in_progress). Completed is settlement-only.
	UpdateStatus(ctx context.Context, roomID int64, next models.RoomStatus) (*models.Room, error)

	// GetRoom retrieves a room
	GetRoom(ctx context.Context, roomID int64) (*models.Room, error)

	// ListRooms returns rooms, optionally filtered by status
	ListRooms(ctx context.Context, status *models.RoomStatus, page, limit int) ([]*models.Room, error)

	// ListMembers returns a room's memberships
	ListMembers(ctx context.Context, roomID int64) ([]*models.Membership, error)
}

// CreateRoomParams holds the operator-supplied fields for a new room
type CreateRoomParams struct {
	Name       string
	EntryFee   int64
	Capacity   int
	AccessCode string
	StartsAt   time.Time
}

// SettlementService finalizes rooms exactly once
type SettlementService interface {
	// Settle converts per-member outcomes into match records and payouts,
	// then transitions the room to completed
	Settle(ctx context.Context, roomID int64, entries []models.SettlementEntry) (*models.SettlementSummary, error)

	// ListMatches returns a user's settled match history
	ListMatches(ctx context.Context, userID string, limit int) ([]*models.Match, error)
}

// PaymentService verifies externally-signed payment claims and converts them
// into idempotent wallet credits
type PaymentService interface {
	// VerifySignature checks the gateway's HMAC signature over an order and
	// payment id pair
	VerifySignature(orderID, paymentID, signature string) bool

	// ConfirmPurchase credits purchased coins after signature verification.
	// Replays of the same payment id are absorbed by the ledger.
	ConfirmPurchase(ctx context.Context, userID string, coins int64, orderID, paymentID, signature string) (*models.Movement, error)
}

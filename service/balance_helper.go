package service

import (
	"context"
	"fmt"

	"aurex/events"
	"aurex/models"
)

// ApplyMovement mutates a wallet balance and records the matching ledger
// movement. This is the single entry point for all balance changes in the
// system; the caller must hold the wallet row lock for the lifetime of the
// unit of work.
//
// Referenced credits are replay-safe: if a completed credit with the same
// reference already exists for this wallet, the existing movement is returned
// and nothing is written.
func ApplyMovement(ctx context.Context, uow UnitOfWork, wallet *models.Wallet, direction models.MovementDirection, amount int64, description, reference string) (*models.Movement, error) {
	var ref *string
	if reference != "" {
		ref = &reference
		if direction == models.MovementCredit {
			existing, err := uow.MovementRepository().GetCompletedCredit(ctx, wallet.ID, reference)
			if err != nil {
				return nil, fmt.Errorf("failed to check credit reference: %w", err)
			}
			if existing != nil {
				return existing, nil
			}
		}
	}

	newBalance := wallet.Balance
	switch direction {
	case models.MovementCredit:
		newBalance += amount
	case models.MovementDebit:
		if !wallet.CanAfford(amount) {
			return nil, &InsufficientFundsError{Available: wallet.Balance, Required: amount}
		}
		newBalance -= amount
	default:
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unknown movement direction: %s", direction)}
	}

	if err := uow.WalletRepository().SetBalance(ctx, wallet.ID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}
	wallet.Balance = newBalance

	movement := &models.Movement{
		WalletID:    wallet.ID,
		UserID:      wallet.UserID,
		Direction:   direction,
		Amount:      amount,
		Description: description,
		Reference:   ref,
		Status:      models.MovementStatusCompleted,
	}
	if err := uow.MovementRepository().Record(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	// Emit balance change event (will be flushed after transaction commits)
	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     wallet.UserID,
		MovementID: movement.ID,
		Direction:  direction,
		Amount:     amount,
		NewBalance: newBalance,
		Reference:  reference,
	})

	return movement, nil
}

// getOrCreateWalletForUpdate fetches a user's wallet with an exclusive row
// lock, provisioning an empty wallet on first touch. Rows inserted inside the
// transaction are invisible to other sessions until commit, so a freshly
// created wallet is held just as exclusively as a locked one.
func getOrCreateWalletForUpdate(ctx context.Context, uow UnitOfWork, userID string) (*models.Wallet, error) {
	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		wallet, err = uow.WalletRepository().Create(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}
	return wallet, nil
}

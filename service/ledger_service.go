package service

import (
	"context"
	"fmt"

	"aurex/models"

	log "github.com/sirupsen/logrus"
)

const maxPageSize = 100

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

func (s *ledgerService) Credit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error) {
	return s.apply(ctx, userID, models.MovementCredit, amount, description, reference)
}

func (s *ledgerService) Debit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error) {
	return s.apply(ctx, userID, models.MovementDebit, amount, description, reference)
}

func (s *ledgerService) apply(ctx context.Context, userID string, direction models.MovementDirection, amount int64, description, reference string) (*models.Movement, error) {
	if userID == "" {
		return nil, &InvalidInputError{Reason: "user id must not be empty"}
	}
	if amount <= 0 {
		return nil, &InvalidInputError{Reason: "amount must be positive"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	wallet, err := getOrCreateWalletForUpdate(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	movement, err := ApplyMovement(ctx, uow, wallet, direction, amount, description, reference)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return movement, nil
}

func (s *ledgerService) ListMovements(ctx context.Context, userID string, page, limit int) (int64, []*models.Movement, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	total, err := uow.MovementRepository().CountByUser(ctx, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count movements: %w", err)
	}

	movements, err := uow.MovementRepository().ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list movements: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return total, movements, nil
}

func (s *ledgerService) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if userID == "" {
		return nil, &InvalidInputError{Reason: "user id must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		wallet, err = uow.WalletRepository().Create(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		log.WithField("userID", userID).Info("Provisioned new wallet")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

func (s *ledgerService) AdminCredit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error) {
	log.WithFields(log.Fields{
		"userID":  userID,
		"amount":  amount,
		"adminID": adminID,
	}).Info("Admin credit")
	return s.Credit(ctx, userID, amount, fmt.Sprintf("Admin credit: %s (by %s)", reason, adminID), "")
}

func (s *ledgerService) AdminDebit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error) {
	log.WithFields(log.Fields{
		"userID":  userID,
		"amount":  amount,
		"adminID": adminID,
	}).Info("Admin debit")
	return s.Debit(ctx, userID, amount, fmt.Sprintf("Admin debit: %s (by %s)", reason, adminID), "")
}

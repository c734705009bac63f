package repository

import (
	"context"
	"testing"

	"aurex/models"
	"aurex/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementRepository_ListByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)

	walletRepo := NewWalletRepository(testDB.DB)
	repo := NewMovementRepository(testDB.DB)
	ctx := context.Background()

	wallet, err := walletRepo.Create(ctx, "user-1")
	require.NoError(t, err)

	// Oldest to newest
	amounts := []int64{100, 200, 300}
	for _, amount := range amounts {
		movement := testutil.CreateTestMovement(wallet.ID, "user-1", models.MovementCredit, amount)
		require.NoError(t, repo.Record(ctx, movement))
	}

	t.Run("newest first", func(t *testing.T) {
		movements, err := repo.ListByUser(ctx, "user-1", 10, 0)
		require.NoError(t, err)
		require.Len(t, movements, 3)
		assert.Equal(t, int64(300), movements[0].Amount)
		assert.Equal(t, int64(100), movements[2].Amount)
	})

	t.Run("pagination", func(t *testing.T) {
		movements, err := repo.ListByUser(ctx, "user-1", 2, 2)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, int64(100), movements[0].Amount)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.CountByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		movements, err := repo.ListByUser(ctx, "user-2", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, movements)
	})
}

func TestMovementRepository_GetCompletedCredit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)

	walletRepo := NewWalletRepository(testDB.DB)
	repo := NewMovementRepository(testDB.DB)
	ctx := context.Background()

	wallet, err := walletRepo.Create(ctx, "user-1")
	require.NoError(t, err)

	t.Run("no credit found", func(t *testing.T) {
		movement, err := repo.GetCompletedCredit(ctx, wallet.ID, "pay_123")
		require.NoError(t, err)
		assert.Nil(t, movement)
	})

	t.Run("credit found by reference", func(t *testing.T) {
		original := testutil.CreateTestMovementWithReference(wallet.ID, "user-1", models.MovementCredit, 500, "pay_123")
		require.NoError(t, repo.Record(ctx, original))

		movement, err := repo.GetCompletedCredit(ctx, wallet.ID, "pay_123")
		require.NoError(t, err)
		require.NotNil(t, movement)
		assert.Equal(t, original.ID, movement.ID)
		assert.Equal(t, int64(500), movement.Amount)
	})

	t.Run("debit with same reference is ignored", func(t *testing.T) {
		debit := testutil.CreateTestMovementWithReference(wallet.ID, "user-1", models.MovementDebit, 200, "fee_456")
		require.NoError(t, repo.Record(ctx, debit))

		movement, err := repo.GetCompletedCredit(ctx, wallet.ID, "fee_456")
		require.NoError(t, err)
		assert.Nil(t, movement)
	})

	t.Run("duplicate completed credit is rejected by the database", func(t *testing.T) {
		first := testutil.CreateTestMovementWithReference(wallet.ID, "user-1", models.MovementCredit, 500, "pay_dup")
		require.NoError(t, repo.Record(ctx, first))

		second := testutil.CreateTestMovementWithReference(wallet.ID, "user-1", models.MovementCredit, 500, "pay_dup")
		err := repo.Record(ctx, second)
		assert.Error(t, err)
	})
}

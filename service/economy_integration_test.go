package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"aurex/events"
	"aurex/models"
	"aurex/repository"
	"aurex/repository/testutil"
	"aurex/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEconomy(t *testing.T) (service.LedgerService, service.AdmissionService, service.SettlementService) {
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, bus)

	return service.NewLedgerService(uowFactory),
		service.NewAdmissionService(uowFactory),
		service.NewSettlementService(uowFactory)
}

func TestEconomy_JoinLeaveRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ledger, admission, _ := setupEconomy(t)
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "alice", 1000, "starting balance", "")
	require.NoError(t, err)

	room, err := admission.CreateRoom(ctx, service.CreateRoomParams{
		Name:     "Evening Scrims",
		EntryFee: 300,
		Capacity: 4,
		StartsAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	joined, err := admission.Join(ctx, room.ID, "alice", "SharpShooter")
	require.NoError(t, err)
	assert.Equal(t, 1, joined.CurrentOccupancy)

	wallet, err := ledger.GetOrCreateWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(700), wallet.Balance)

	isMember, err := admission.IsMember(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.True(t, isMember)

	result, err := admission.Leave(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.True(t, result.Refunded)
	assert.Equal(t, int64(300), result.Amount)

	wallet, err = ledger.GetOrCreateWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.Balance)

	updated, err := admission.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentOccupancy)
	assert.Equal(t, models.RoomStatusOpen, updated.Status)
}

func TestEconomy_ConcurrentDebits_BalanceNeverNegative_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ledger, _, _ := setupEconomy(t)
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "alice", 500, "starting balance", "")
	require.NoError(t, err)

	// Ten concurrent 100-coin debits against a 500-coin balance: exactly
	// five may succeed
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Debit(ctx, "alice", 100, "contention", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var insufficientErr *service.InsufficientFundsError
			assert.ErrorAs(t, err, &insufficientErr)
		}
	}
	assert.Equal(t, 5, succeeded)

	wallet, err := ledger.GetOrCreateWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)
}

func TestEconomy_CapacityOneContention_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ledger, admission, _ := setupEconomy(t)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol", "dave"}
	for _, u := range users {
		_, err := ledger.Credit(ctx, u, 1000, "starting balance", "")
		require.NoError(t, err)
	}

	room, err := admission.CreateRoom(ctx, service.CreateRoomParams{
		Name:     "Final Seat",
		EntryFee: 100,
		Capacity: 1,
		StartsAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = admission.Join(ctx, room.ID, u, u)
		}(i, u)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	// Exactly one winner; the room auto-closed behind them
	assert.Equal(t, 1, succeeded)

	final, err := admission.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, final.CurrentOccupancy)
	assert.Equal(t, models.RoomStatusClosed, final.Status)

	members, err := admission.ListMembers(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Only the winner paid
	paid := 0
	for _, u := range users {
		wallet, err := ledger.GetOrCreateWallet(ctx, u)
		require.NoError(t, err)
		if wallet.Balance == 900 {
			paid++
		} else {
			assert.Equal(t, int64(1000), wallet.Balance)
		}
	}
	assert.Equal(t, 1, paid)
}

func TestEconomy_SettleTwice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ledger, admission, settlement := setupEconomy(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob"} {
		_, err := ledger.Credit(ctx, u, 1000, "starting balance", "")
		require.NoError(t, err)
	}

	room, err := admission.CreateRoom(ctx, service.CreateRoomParams{
		Name:     "Duel",
		EntryFee: 200,
		Capacity: 2,
		StartsAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = admission.Join(ctx, room.ID, "alice", "alice")
	require.NoError(t, err)
	_, err = admission.Join(ctx, room.ID, "bob", "bob")
	require.NoError(t, err)

	entries := []models.SettlementEntry{
		testutil.CreateTestEntry("alice", models.MatchOutcomeWin, 400),
		testutil.CreateTestEntry("bob", models.MatchOutcomeLoss, 0),
	}

	summary, err := settlement.Settle(ctx, room.ID, entries)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SettledCount)
	assert.Empty(t, summary.Rejected)

	aliceWallet, err := ledger.GetOrCreateWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), aliceWallet.Balance)

	final, err := admission.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusCompleted, final.Status)

	// The second settle conflicts and moves no coins
	totalBefore, _, err := ledger.ListMovements(ctx, "alice", 1, 100)
	require.NoError(t, err)

	_, err = settlement.Settle(ctx, room.ID, entries)
	var conflictErr *service.ConflictError
	assert.ErrorAs(t, err, &conflictErr)

	totalAfter, _, err := ledger.ListMovements(ctx, "alice", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, totalBefore, totalAfter)

	matches, err := settlement.ListMatches(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, models.MatchOutcomeWin, matches[0].Outcome)
	assert.Equal(t, int64(400), matches[0].Payout)
}

func TestEconomy_SameReferenceCreditOnce_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ledger, _, _ := setupEconomy(t)
	ctx := context.Background()

	first, err := ledger.Credit(ctx, "alice", 750, "Coin purchase", "pay_once")
	require.NoError(t, err)

	second, err := ledger.Credit(ctx, "alice", 750, "Coin purchase", "pay_once")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	wallet, err := ledger.GetOrCreateWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(750), wallet.Balance)

	total, _, err := ledger.ListMovements(ctx, "alice", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

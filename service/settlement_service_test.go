package service

import (
	"context"
	"testing"

	"aurex/events"
	"aurex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSettlementService_Settle_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWalletRepo := new(MockWalletRepository)
	mockMovementRepo := new(MockMovementRepository)
	mockRoomRepo := new(MockRoomRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockWalletRepo, mockMovementRepo, mockRoomRepo, mockMatchRepo, mockPublisher)

	service := NewSettlementService(mockFactory)

	room := openRoom(10, 100, 2, 2)
	room.Status = models.RoomStatusInProgress

	aliceWallet := &models.Wallet{ID: 1, UserID: "alice", Balance: 0}
	bobWallet := &models.Wallet{ID: 2, UserID: "bob", Balance: 0}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Validation phase
	mockRoomRepo.On("GetByID", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("ListMembers", ctx, int64(10)).Return([]*models.Membership{
		{ID: 1, RoomID: 10, UserID: "alice"},
		{ID: 2, RoomID: 10, UserID: "bob"},
	}, nil)

	// Per-member apply phase
	mockWalletRepo.On("GetByUserIDForUpdate", ctx, "alice").Return(aliceWallet, nil)
	mockWalletRepo.On("GetByUserIDForUpdate", ctx, "bob").Return(bobWallet, nil)
	mockRoomRepo.On("GetMember", ctx, int64(10), "alice").Return(&models.Membership{ID: 1, RoomID: 10, UserID: "alice"}, nil)
	mockRoomRepo.On("GetMember", ctx, int64(10), "bob").Return(&models.Membership{ID: 2, RoomID: 10, UserID: "bob"}, nil)

	mockMatchRepo.On("Create", ctx, mock.MatchedBy(func(m *models.Match) bool {
		return m.UserID == "alice" && m.Outcome == models.MatchOutcomeWin && m.Payout == 500 && m.RoomName == room.Name
	})).Return(nil)
	mockMatchRepo.On("Create", ctx, mock.MatchedBy(func(m *models.Match) bool {
		return m.UserID == "bob" && m.Outcome == models.MatchOutcomeLoss && m.Payout == 0
	})).Return(nil)

	mockRoomRepo.On("UpdateMemberResult", ctx, mock.MatchedBy(func(mb *models.Membership) bool {
		return mb.Eliminations != nil
	})).Return(nil).Times(2)

	// Winner payout; the losing entry has no payout so no wallet write
	mockMovementRepo.On("GetCompletedCredit", ctx, int64(1), "payout:10").Return(nil, nil)
	mockWalletRepo.On("SetBalance", ctx, int64(1), int64(500)).Return(nil)
	mockMovementRepo.On("Record", ctx, mock.MatchedBy(func(m *models.Movement) bool {
		return m.UserID == "alice" &&
			m.Direction == models.MovementCredit &&
			m.Amount == 500 &&
			m.Reference != nil && *m.Reference == "payout:10"
	})).Return(nil)

	// Completion phase
	mockRoomRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("Update", ctx, mock.MatchedBy(func(r *models.Room) bool {
		return r.Status == models.RoomStatusCompleted
	})).Return(nil)

	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		rs, ok := e.(events.RoomSettledEvent)
		return ok && rs.RoomID == 10 && rs.SettledCount == 2
	})).Return()
	mockPublisher.On("Publish", mock.AnythingOfType("events.RoomUpdatedEvent")).Return()

	standing := 1
	summary, err := service.Settle(ctx, 10, []models.SettlementEntry{
		{UserID: "alice", Outcome: models.MatchOutcomeWin, Payout: 500, Standing: &standing, Eliminations: 7},
		{UserID: "bob", Outcome: models.MatchOutcomeLoss, Payout: 0},
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.SettledCount)
	assert.Empty(t, summary.Rejected)
	assert.Equal(t, int64(500), aliceWallet.Balance)
	assert.Equal(t, int64(0), bobWallet.Balance)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockWalletRepo.AssertExpectations(t)
	mockMovementRepo.AssertExpectations(t)
	mockRoomRepo.AssertExpectations(t)
	mockMatchRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestSettlementService_Settle_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRoomRepo := new(MockRoomRepository)
	mockMatchRepo := new(MockMatchRepository)

	mockUoW.SetRepositories(nil, nil, mockRoomRepo, mockMatchRepo, nil)

	service := NewSettlementService(mockFactory)

	room := openRoom(10, 100, 2, 2)
	room.Status = models.RoomStatusCompleted

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRoomRepo.On("GetByID", ctx, int64(10)).Return(room, nil)

	summary, err := service.Settle(ctx, 10, []models.SettlementEntry{
		{UserID: "alice", Outcome: models.MatchOutcomeWin, Payout: 500},
	})

	assert.Nil(t, summary)
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	mockMatchRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_RejectsBadEntries(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWalletRepo := new(MockWalletRepository)
	mockMovementRepo := new(MockMovementRepository)
	mockRoomRepo := new(MockRoomRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockWalletRepo, mockMovementRepo, mockRoomRepo, mockMatchRepo, mockPublisher)

	service := NewSettlementService(mockFactory)

	room := openRoom(10, 100, 4, 1)
	room.Status = models.RoomStatusInProgress

	aliceWallet := &models.Wallet{ID: 1, UserID: "alice", Balance: 0}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRoomRepo.On("GetByID", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("ListMembers", ctx, int64(10)).Return([]*models.Membership{
		{ID: 1, RoomID: 10, UserID: "alice"},
	}, nil)

	mockWalletRepo.On("GetByUserIDForUpdate", ctx, "alice").Return(aliceWallet, nil)
	mockRoomRepo.On("GetMember", ctx, int64(10), "alice").Return(&models.Membership{ID: 1, RoomID: 10, UserID: "alice"}, nil)
	mockMatchRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockRoomRepo.On("UpdateMemberResult", ctx, mock.Anything).Return(nil)
	mockMovementRepo.On("GetCompletedCredit", ctx, int64(1), "payout:10").Return(nil, nil)
	mockWalletRepo.On("SetBalance", ctx, int64(1), int64(300)).Return(nil)
	mockMovementRepo.On("Record", ctx, mock.Anything).Return(nil)

	mockRoomRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.Anything).Return()

	summary, err := service.Settle(ctx, 10, []models.SettlementEntry{
		{UserID: "alice", Outcome: models.MatchOutcomeWin, Payout: 300},
		{UserID: "stranger", Outcome: models.MatchOutcomeLoss, Payout: 0},
		{UserID: "bob", Outcome: "banana", Payout: 0},
		{UserID: "", Outcome: models.MatchOutcomeDraw, Payout: 0},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.SettledCount)
	assert.Len(t, summary.Rejected, 3)

	reasons := make(map[string]string)
	for _, r := range summary.Rejected {
		reasons[r.UserID] = r.Reason
	}
	assert.Equal(t, "not a member of this room", reasons["stranger"])
	assert.Contains(t, reasons["bob"], "outcome")
	assert.NotEmpty(t, reasons[""])
}

func TestSettlementService_Settle_SkipsAlreadySettledMember(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWalletRepo := new(MockWalletRepository)
	mockRoomRepo := new(MockRoomRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockWalletRepo, nil, mockRoomRepo, mockMatchRepo, mockPublisher)

	service := NewSettlementService(mockFactory)

	room := openRoom(10, 100, 2, 1)
	room.Status = models.RoomStatusInProgress

	eliminations := 3
	settledMember := &models.Membership{
		ID:           1,
		RoomID:       10,
		UserID:       "alice",
		Eliminations: &eliminations,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRoomRepo.On("GetByID", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("ListMembers", ctx, int64(10)).Return([]*models.Membership{settledMember}, nil)

	// A previous attempt already wrote this member's results
	mockWalletRepo.On("GetByUserIDForUpdate", ctx, "alice").Return(&models.Wallet{ID: 1, UserID: "alice"}, nil)
	mockRoomRepo.On("GetMember", ctx, int64(10), "alice").Return(settledMember, nil)

	mockRoomRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.Anything).Return()

	summary, err := service.Settle(ctx, 10, []models.SettlementEntry{
		{UserID: "alice", Outcome: models.MatchOutcomeWin, Payout: 500},
	})

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.SettledCount)
	assert.Len(t, summary.Rejected, 1)
	assert.Equal(t, "already settled", summary.Rejected[0].Reason)
	mockMatchRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_ConcurrentCompletionConflicts(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWalletRepo := new(MockWalletRepository)
	mockMovementRepo := new(MockMovementRepository)
	mockRoomRepo := new(MockRoomRepository)
	mockMatchRepo := new(MockMatchRepository)

	mockUoW.SetRepositories(mockWalletRepo, mockMovementRepo, mockRoomRepo, mockMatchRepo, nil)

	service := NewSettlementService(mockFactory)

	room := openRoom(10, 100, 2, 1)
	room.Status = models.RoomStatusInProgress
	completedRoom := openRoom(10, 100, 2, 1)
	completedRoom.Status = models.RoomStatusCompleted

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRoomRepo.On("GetByID", ctx, int64(10)).Return(room, nil)
	mockRoomRepo.On("ListMembers", ctx, int64(10)).Return([]*models.Membership{
		{ID: 1, RoomID: 10, UserID: "alice"},
	}, nil)

	mockWalletRepo.On("GetByUserIDForUpdate", ctx, "alice").Return(&models.Wallet{ID: 1, UserID: "alice"}, nil)
	mockRoomRepo.On("GetMember", ctx, int64(10), "alice").Return(&models.Membership{ID: 1, RoomID: 10, UserID: "alice"}, nil)
	mockMatchRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockRoomRepo.On("UpdateMemberResult", ctx, mock.Anything).Return(nil)
	mockMovementRepo.On("GetCompletedCredit", ctx, int64(1), "payout:10").Return(nil, nil)
	mockWalletRepo.On("SetBalance", ctx, int64(1), int64(500)).Return(nil)
	mockMovementRepo.On("Record", ctx, mock.Anything).Return(nil)

	// Another settle flipped the room between our apply and completion phases
	mockRoomRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(completedRoom, nil)

	summary, err := service.Settle(ctx, 10, []models.SettlementEntry{
		{UserID: "alice", Outcome: models.MatchOutcomeWin, Payout: 500},
	})

	assert.Nil(t, summary)
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	mockRoomRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

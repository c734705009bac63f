package service

import (
	"context"
	"fmt"
	"time"

	"aurex/events"
	"aurex/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// Settle finalizes a room in three phases. Validation runs read-only and
// collects bad entries instead of failing the batch. Each member is then
// settled in its own transaction so payout credits never hold the room lock.
// The final phase locks the room, re-checks it has not been completed by a
// concurrent settle, and flips it to completed.
//
// The whole operation is retry-safe: a member whose stats are already written
// is skipped, and payout credits carry a per-room reference so replays are
// absorbed by the ledger.
func (s *settlementService) Settle(ctx context.Context, roomID int64, entries []models.SettlementEntry) (*models.SettlementSummary, error) {
	if len(entries) == 0 {
		return nil, &InvalidInputError{Reason: "no settlement entries"}
	}

	room, members, err := s.validateRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	accepted, rejected := splitEntries(entries, members)

	settledCount := 0
	for _, entry := range accepted {
		applied, err := s.settleMember(ctx, room, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to settle member %s: %w", entry.UserID, err)
		}
		if applied {
			settledCount++
		} else {
			rejected = append(rejected, models.RejectedEntry{
				UserID: entry.UserID,
				Reason: "already settled",
			})
		}
	}

	if err := s.completeRoom(ctx, roomID, settledCount); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"roomID":   roomID,
		"settled":  settledCount,
		"rejected": len(rejected),
	}).Info("Room settled")

	return &models.SettlementSummary{
		RoomID:       roomID,
		SettledCount: settledCount,
		Rejected:     rejected,
		SettledAt:    time.Now().UTC(),
	}, nil
}

// validateRoom loads the room and its member list in a read-only transaction
func (s *settlementService) validateRoom(ctx context.Context, roomID int64) (*models.Room, map[string]*models.Membership, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, nil, &NotFoundError{Resource: "room"}
	}
	if room.IsCompleted() {
		return nil, nil, &ConflictError{Reason: "room already settled"}
	}

	memberList, err := uow.RoomRepository().ListMembers(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	members := make(map[string]*models.Membership, len(memberList))
	for _, m := range memberList {
		members[m.UserID] = m
	}
	return room, members, nil
}

// splitEntries separates well-formed entries for known members from the rest
func splitEntries(entries []models.SettlementEntry, members map[string]*models.Membership) ([]models.SettlementEntry, []models.RejectedEntry) {
	var accepted []models.SettlementEntry
	var rejected []models.RejectedEntry
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			rejected = append(rejected, models.RejectedEntry{
				UserID: entry.UserID,
				Reason: err.Error(),
			})
			continue
		}
		if seen[entry.UserID] {
			rejected = append(rejected, models.RejectedEntry{
				UserID: entry.UserID,
				Reason: "duplicate entry",
			})
			continue
		}
		seen[entry.UserID] = true
		if _, ok := members[entry.UserID]; !ok {
			rejected = append(rejected, models.RejectedEntry{
				UserID: entry.UserID,
				Reason: "not a member of this room",
			})
			continue
		}
		accepted = append(accepted, entry)
	}
	return accepted, rejected
}

// settleMember writes one member's match record, stats and payout in its own
// transaction. Returns false without writing anything when the member was
// already settled by an earlier attempt.
func (s *settlementService) settleMember(ctx context.Context, room *models.Room, entry models.SettlementEntry) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := getOrCreateWalletForUpdate(ctx, uow, entry.UserID)
	if err != nil {
		return false, err
	}

	member, err := uow.RoomRepository().GetMember(ctx, room.ID, entry.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to get membership: %w", err)
	}
	if member == nil {
		// Left between validation and apply
		return false, nil
	}
	// Eliminations is written unconditionally at settle time, so a non-nil
	// value marks a member an earlier attempt already processed
	if member.Eliminations != nil {
		return false, nil
	}

	match := &models.Match{
		RoomID:       room.ID,
		UserID:       entry.UserID,
		RoomName:     room.Name,
		Outcome:      entry.Outcome,
		Payout:       entry.Payout,
		Standing:     entry.Standing,
		Eliminations: entry.Eliminations,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return false, fmt.Errorf("failed to create match record: %w", err)
	}

	eliminations := entry.Eliminations
	member.Standing = entry.Standing
	member.Eliminations = &eliminations
	if err := uow.RoomRepository().UpdateMemberResult(ctx, member); err != nil {
		return false, fmt.Errorf("failed to update membership: %w", err)
	}

	if entry.Payout > 0 {
		description := fmt.Sprintf("Payout for room %q", room.Name)
		reference := fmt.Sprintf("payout:%d", room.ID)
		if _, err := ApplyMovement(ctx, uow, wallet, models.MovementCredit, entry.Payout, description, reference); err != nil {
			return false, err
		}
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// completeRoom flips the room to its terminal status under the room lock
func (s *settlementService) completeRoom(ctx context.Context, roomID int64, settledCount int) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByIDForUpdate(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}
	if room == nil {
		return &NotFoundError{Resource: "room"}
	}
	if room.IsCompleted() {
		// A concurrent settle won the race; its payouts absorbed ours
		return &ConflictError{Reason: "room already settled"}
	}

	room.Status = models.RoomStatusCompleted
	if err := uow.RoomRepository().Update(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	uow.EventBus().Publish(events.RoomSettledEvent{
		RoomID:       roomID,
		SettledCount: settledCount,
	})
	uow.EventBus().Publish(events.RoomUpdatedEvent{Snapshot: room.Snapshot()})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *settlementService) ListMatches(ctx context.Context, userID string, limit int) ([]*models.Match, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return matches, nil
}

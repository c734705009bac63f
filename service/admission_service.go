package service

import (
	"context"
	"fmt"

	"aurex/events"
	"aurex/models"

	log "github.com/sirupsen/logrus"
)

type admissionService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdmissionService creates a new admission service
func NewAdmissionService(uowFactory UnitOfWorkFactory) AdmissionService {
	return &admissionService{
		uowFactory: uowFactory,
	}
}

// Join reserves a seat and collects the entry fee in one transaction.
// Lock order is wallet first, then room; every writer follows the same order
// so concurrent joins, leaves and settlements cannot deadlock.
func (s *admissionService) Join(ctx context.Context, roomID int64, userID, playerName string) (*models.Room, error) {
	if userID == "" {
		return nil, &InvalidInputError{Reason: "user id must not be empty"}
	}
	if playerName == "" {
		return nil, &InvalidInputError{Reason: "player name must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Unlocked fast path: reject obviously doomed joins before taking any lock
	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}
	if !room.IsOpen() {
		return nil, &RoomNotOpenError{Status: room.Status}
	}
	if room.IsFull() {
		return nil, &RoomFullError{RoomID: roomID}
	}

	member, err := uow.RoomRepository().GetMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member != nil {
		return nil, &ConflictError{Reason: "already a member of this room"}
	}

	wallet, err := getOrCreateWalletForUpdate(ctx, uow, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.CanAfford(room.EntryFee) {
		return nil, &InsufficientFundsError{Available: wallet.Balance, Required: room.EntryFee}
	}

	// Re-read under the room lock; everything checked above can have changed
	room, err = uow.RoomRepository().GetByIDForUpdate(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}
	if !room.IsOpen() {
		return nil, &RoomNotOpenError{Status: room.Status}
	}
	if room.IsFull() {
		return nil, &RoomFullError{RoomID: roomID}
	}
	member, err = uow.RoomRepository().GetMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member != nil {
		return nil, &ConflictError{Reason: "already a member of this room"}
	}

	if room.EntryFee > 0 {
		description := fmt.Sprintf("Entry fee for room %q", room.Name)
		reference := fmt.Sprintf("entry:%d", roomID)
		if _, err := ApplyMovement(ctx, uow, wallet, models.MovementDebit, room.EntryFee, description, reference); err != nil {
			return nil, err
		}
	}

	membership := &models.Membership{
		RoomID:     roomID,
		UserID:     userID,
		PlayerName: playerName,
	}
	if err := uow.RoomRepository().AddMember(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	room.CurrentOccupancy++
	if room.IsFull() {
		room.Status = models.RoomStatusClosed
	}
	if err := uow.RoomRepository().Update(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Snapshot: room.Snapshot()})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"roomID":    roomID,
		"userID":    userID,
		"occupancy": room.CurrentOccupancy,
		"status":    room.Status,
	}).Info("User joined room")

	return room, nil
}

// Leave removes a membership. The entry fee is refunded and occupancy
// decremented only while the room is still open; leaving a closed room
// forfeits the fee and never reopens the room.
func (s *admissionService) Leave(ctx context.Context, roomID int64, userID string) (*models.LeaveResult, error) {
	if userID == "" {
		return nil, &InvalidInputError{Reason: "user id must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Wallet lock is taken even on the no-refund path to keep the global
	// wallet-before-room lock order
	wallet, err := getOrCreateWalletForUpdate(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	room, err := uow.RoomRepository().GetByIDForUpdate(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}

	member, err := uow.RoomRepository().GetMember(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil {
		return nil, &NotFoundError{Resource: "membership"}
	}

	result := &models.LeaveResult{}
	if room.IsOpen() {
		if room.EntryFee > 0 {
			description := fmt.Sprintf("Refund for leaving room %q", room.Name)
			reference := fmt.Sprintf("refund:%d", roomID)
			if _, err := ApplyMovement(ctx, uow, wallet, models.MovementCredit, room.EntryFee, description, reference); err != nil {
				return nil, err
			}
			result.Refunded = true
			result.Amount = room.EntryFee
		}
		if room.CurrentOccupancy > 0 {
			room.CurrentOccupancy--
		}
		if err := uow.RoomRepository().Update(ctx, room); err != nil {
			return nil, fmt.Errorf("failed to update room: %w", err)
		}
	}

	if err := uow.RoomRepository().RemoveMember(ctx, roomID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Snapshot: room.Snapshot()})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"roomID":   roomID,
		"userID":   userID,
		"refunded": result.Refunded,
	}).Info("User left room")

	return result, nil
}

func (s *admissionService) IsMember(ctx context.Context, roomID int64, userID string) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.RoomRepository().GetMember(ctx, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return member != nil, nil
}

func (s *admissionService) CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error) {
	if params.Name == "" {
		return nil, &InvalidInputError{Reason: "room name must not be empty"}
	}
	if params.EntryFee < 0 {
		return nil, &InvalidInputError{Reason: "entry fee must not be negative"}
	}
	if params.Capacity < 1 {
		return nil, &InvalidInputError{Reason: "capacity must be at least 1"}
	}

	room := &models.Room{
		Name:     params.Name,
		EntryFee: params.EntryFee,
		Capacity: params.Capacity,
		Status:   models.RoomStatusOpen,
		StartsAt: params.StartsAt,
	}
	if params.AccessCode != "" {
		room.AccessCode = &params.AccessCode
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RoomRepository().Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Snapshot: room.Snapshot()})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"roomID":   room.ID,
		"name":     room.Name,
		"entryFee": room.EntryFee,
		"capacity": room.Capacity,
	}).Info("Room created")

	return room, nil
}

// UpdateStatus applies a manual status transition. Completed is reachable
// only through settlement.
func (s *admissionService) UpdateStatus(ctx context.Context, roomID int64, next models.RoomStatus) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByIDForUpdate(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}
	if !room.CanTransitionTo(next) {
		return nil, &ConflictError{Reason: fmt.Sprintf("cannot transition room from %s to %s", room.Status, next)}
	}

	room.Status = next
	if err := uow.RoomRepository().Update(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Snapshot: room.Snapshot()})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"roomID": roomID,
		"status": next,
	}).Info("Room status updated")

	return room, nil
}

func (s *admissionService) GetRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return room, nil
}

func (s *admissionService) ListRooms(ctx context.Context, status *models.RoomStatus, page, limit int) ([]*models.Room, error) {
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
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rooms, err := uow.RoomRepository().List(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rooms, nil
}

func (s *admissionService) ListMembers(ctx context.Context, roomID int64) ([]*models.Membership, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, &NotFoundError{Resource: "room"}
	}

	members, err := uow.RoomRepository().ListMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return members, nil
}

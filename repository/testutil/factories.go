package testutil

import (
	"time"

	"aurex/models"
)

// CreateTestRoom creates an open room with default values
func CreateTestRoom(name string, entryFee int64, capacity int) *models.Room {
	return &models.Room{
		Name:     name,
		EntryFee: entryFee,
		Capacity: capacity,
		Status:   models.RoomStatusOpen,
		StartsAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

// CreateTestRoomWithCode creates an open room carrying an access code
func CreateTestRoomWithCode(name string, entryFee int64, capacity int, accessCode string) *models.Room {
	room := CreateTestRoom(name, entryFee, capacity)
	room.AccessCode = &accessCode
	return room
}

// CreateTestMovement creates a completed movement for a wallet
func CreateTestMovement(walletID int64, userID string, direction models.MovementDirection, amount int64) *models.Movement {
	return &models.Movement{
		WalletID:    walletID,
		UserID:      userID,
		Direction:   direction,
		Amount:      amount,
		Description: "test movement",
		Status:      models.MovementStatusCompleted,
	}
}

// CreateTestMovementWithReference creates a completed movement carrying a reference
func CreateTestMovementWithReference(walletID int64, userID string, direction models.MovementDirection, amount int64, reference string) *models.Movement {
	movement := CreateTestMovement(walletID, userID, direction, amount)
	movement.Reference = &reference
	return movement
}

// CreateTestEntry creates a settlement entry with the given outcome
func CreateTestEntry(userID string, outcome models.MatchOutcome, payout int64) models.SettlementEntry {
	return models.SettlementEntry{
		UserID:  userID,
		Outcome: outcome,
		Payout:  payout,
	}
}

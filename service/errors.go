package service

import (
	"fmt"

	"aurex/models"
)

// The core reports failures through a small set of typed errors so callers
// can map them to stable, machine-readable kinds. Failures detected before
// any lock is taken return with no side effects; failures after a lock roll
// the whole unit of work back.

// NotFoundError indicates a wallet, room or membership does not exist
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ConflictError indicates the operation collides with existing state,
// e.g. joining twice or settling a settled room
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InsufficientFundsError carries the available and required amounts
type InsufficientFundsError struct {
	Available int64
	Required  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient coins: have %d available, need %d", e.Available, e.Required)
}

// RoomFullError indicates the room reached capacity before the caller
type RoomFullError struct {
	RoomID int64
}

func (e *RoomFullError) Error() string {
	return fmt.Sprintf("room %d is full", e.RoomID)
}

// RoomNotOpenError carries the room's current status
type RoomNotOpenError struct {
	Status models.RoomStatus
}

func (e *RoomNotOpenError) Error() string {
	return fmt.Sprintf("room is not open (current status: %s)", e.Status)
}

// InvalidInputError indicates a malformed request rejected before any mutation
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

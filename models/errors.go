package models

import "errors"

var (
	errEmptyUserID    = errors.New("settlement entry missing user id")
	errBadOutcome     = errors.New("settlement entry has unknown outcome")
	errNegativePayout = errors.New("settlement entry payout cannot be negative")
)

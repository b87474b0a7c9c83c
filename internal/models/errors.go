package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("already exists")
	ErrForbidden        = errors.New("access denied")
	ErrUnauthorized     = errors.New("not authorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrNoPayoutAccount  = errors.New("cleaner has no mpesa payout number")
)

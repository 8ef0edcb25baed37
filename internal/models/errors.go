package models

import "errors"

var (
	// ErrInvalidParameter covers invalid stakes, targets, seeds and strategy
	// configuration. It is always raised before a nonce is consumed.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientFunds is returned when a vault operation exceeds the
	// available balance. It is never silently clamped away.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

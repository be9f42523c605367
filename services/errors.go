// services/errors.go - Error taxonomy shared by the core services
package services

import (
	"errors"
)

var (
	// ErrValidation rejects missing or malformed input before any mutation.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an unknown account, wish, quest or event reference.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded is a business-rule rejection, not a fault.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInsufficientFunds rejects a debit that would overdraw a balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrIntegrity surfaces a persistent-store constraint violation. It is
	// a configuration bug and never retried.
	ErrIntegrity = errors.New("integrity violation")

	// ErrDeliveryFailed marks a failed outbound delivery attempt. Bounded
	// retries apply before an entry is marked failed.
	ErrDeliveryFailed = errors.New("delivery failed")
)

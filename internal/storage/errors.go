package storage

import (
	"errors"
	"fmt"

	"bridge-metrics/internal/domain"
)

// Storage errors for the event writers.
var (
	// ErrDuplicateKey is returned when inserting a transfer amount whose id
	// already exists.
	ErrDuplicateKey = errors.New("duplicate key: transfer amount id already exists")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidateTransfers checks the required fields of transfer rows.
func ValidateTransfers(transfers []*domain.BridgeTransfer) error {
	for i, t := range transfers {
		if t == nil || t.TxHash == "" || t.EventDate.IsZero() {
			return fmt.Errorf("transfer %d: %w", i, ErrInvalidInput)
		}
	}
	return nil
}

// ValidateAmounts checks the required fields of amount rows and rejects
// duplicate ids within the batch.
func ValidateAmounts(amounts []*domain.TransferAmount) error {
	seen := make(map[string]struct{}, len(amounts))
	for i, a := range amounts {
		if a == nil || a.ID == "" {
			return fmt.Errorf("amount %d: %w", i, ErrInvalidInput)
		}
		if _, ok := seen[a.ID]; ok {
			return ErrDuplicateKey
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity does not exist or is soft-deleted.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden is returned when the actor is not allowed to perform the operation.
	ErrForbidden = errors.New("operation not allowed for this user")
	// ErrInvalidInput is the base error for all validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSelfBid is returned when an owner bids on their own item.
	ErrSelfBid = errors.New("owner cannot bid on own item")
	// ErrAuctionEnded is returned when the item's end date has passed.
	ErrAuctionEnded = errors.New("auction has ended")
	// ErrOptimisticLock is returned when a versioned write loses a concurrent race.
	ErrOptimisticLock = errors.New("item was modified concurrently")
	// ErrRepository wraps unexpected storage failures.
	ErrRepository = errors.New("repository error")
)

// ValidationError carries per-field validation messages. It unwraps to
// ErrInvalidInput so callers can match the whole class with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %d field(s) failed validation", len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// BidTooLowError is returned when a bid does not exceed the current price.
// It carries the price the bidder lost to so the caller can report it.
type BidTooLowError struct {
	CurrentPrice Money
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be higher than the current price of %s", e.CurrentPrice)
}

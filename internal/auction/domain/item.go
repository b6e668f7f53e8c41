package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor identifies the authenticated user performing an operation.
// It is extracted from the gateway-issued JWT by the HTTP middleware.
type Actor struct {
	UserID   string
	Email    string
	Username string
}

// Item is an auction lot. While IsActive is true and EndDate has not
// passed, the item accepts bids; the closer flips it to inactive and
// (when bids exist) assigns a winner.
// Note: all bson mapping lives in the repository implementation.
type Item struct {
	ID            primitive.ObjectID
	OwnerID       string
	OwnerEmail    string
	OwnerUsername string
	Title         string
	Description   string
	StartingPrice Money
	CurrentPrice  Money
	PictureURL    string
	EndDate       time.Time
	IsActive      bool
	WinnerID      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64 // For optimistic locking
}

// NewItem creates an item with the invariants a fresh listing must hold:
// current price equals starting price, active, no winner, version 1.
func NewItem(owner Actor, title, description string, startingPrice Money, pictureURL string, endDate time.Time) (*Item, error) {
	fields := map[string]string{}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(description) == "" {
		fields["description"] = "description is required"
	}
	if startingPrice <= 0 {
		fields["starting_price"] = "starting price must be greater than zero"
	}
	if pictureURL == "" {
		fields["picture"] = "picture is required"
	}
	if !endDate.After(time.Now().UTC()) {
		fields["end_date"] = "end date must be in the future"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	now := time.Now().UTC()
	return &Item{
		ID:            primitive.NewObjectID(),
		OwnerID:       owner.UserID,
		OwnerEmail:    owner.Email,
		OwnerUsername: owner.Username,
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		PictureURL:    pictureURL,
		EndDate:       endDate.UTC(),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

// IsEnded reports whether the auction deadline has passed at the given instant.
func (i *Item) IsEnded(now time.Time) bool {
	return !now.Before(i.EndDate)
}

// IsOwnedBy reports whether the given user owns this item.
func (i *Item) IsOwnedBy(userID string) bool {
	return i.OwnerID == userID
}

// ItemFilter holds parameters for querying items.
type ItemFilter struct {
	Query      string // matches title or description, case-insensitive
	OnlyActive bool
	Page       int64
	Limit      int64
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bid is a single offer on an item. Bids are append-only: once written
// they are never updated or removed, which makes the bid collection a
// reliable audit trail for closure.
type Bid struct {
	ID          primitive.ObjectID
	ItemID      primitive.ObjectID
	BidderID    string
	BidderEmail string
	Amount      Money
	CreatedAt   time.Time
}

// NewBid creates a bid stamped with the current time.
func NewBid(itemID primitive.ObjectID, bidder Actor, amount Money) *Bid {
	return &Bid{
		ID:          primitive.NewObjectID(),
		ItemID:      itemID,
		BidderID:    bidder.UserID,
		BidderEmail: bidder.Email,
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
}

package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemRepository persists auction items.
//
// UpdateVersioned is a compare-and-swap: it applies the item's state only
// if the stored version still matches expectedVersion, incrementing the
// version on success. A miss against an existing document returns
// ErrOptimisticLock.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Item, error)
	Search(ctx context.Context, filter ItemFilter) ([]*Item, error)
	UpdateVersioned(ctx context.Context, item *Item, expectedVersion int64) error

	// FindExpired returns items that are still active with a deadline at
	// or before the given instant.
	FindExpired(ctx context.Context, now time.Time) ([]*Item, error)
	// CloseWithWinner claims an expired item for the given winner. The
	// update is guarded on {is_active: true, winner: null}; it reports
	// false when another sweep already claimed the item.
	CloseWithWinner(ctx context.Context, id primitive.ObjectID, winnerID string, finalPrice Money) (bool, error)
	// CloseWithoutWinner deactivates an expired item that drew no bids,
	// guarded the same way as CloseWithWinner.
	CloseWithoutWinner(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// BidRepository persists bids.
type BidRepository interface {
	// ApplyBid atomically inserts the bid and advances the item's current
	// price, guarded on the item's version. Returns ErrOptimisticLock when
	// a concurrent bid won the race.
	ApplyBid(ctx context.Context, bid *Bid, item *Item, expectedVersion int64) error
	HighestForItem(ctx context.Context, itemID primitive.ObjectID) (*Bid, error)
	ListByItem(ctx context.Context, itemID primitive.ObjectID, limit int64) ([]*Bid, error)
}

// QuestionRepository persists questions and answers.
type QuestionRepository interface {
	Create(ctx context.Context, question *Question) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Question, error)
	ListByItem(ctx context.Context, itemID primitive.ObjectID) ([]*Question, error)
	Update(ctx context.Context, question *Question) error
}

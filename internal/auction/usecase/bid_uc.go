package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxBidRetries bounds how many times a bid is retried after losing a
// version race before the conflict is surfaced to the caller.
const maxBidRetries = 3

// BidUsecase implements bid placement.
type BidUsecase struct {
	items   domain.ItemRepository
	bids    domain.BidRepository
	natsPub EventPublisher
	cache   ItemCache
	logger  *logger.Logger
	now     func() time.Time
}

// NewBidUsecase creates a new BidUsecase. cache may be nil.
func NewBidUsecase(items domain.ItemRepository, bids domain.BidRepository, natsPub EventPublisher, cache ItemCache, log *logger.Logger) *BidUsecase {
	return &BidUsecase{
		items:   items,
		bids:    bids,
		natsPub: natsPub,
		cache:   cache,
		logger:  log.Named("BidUsecase"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceBid validates and records a bid on an item.
//
// Preconditions are checked in a fixed order: item exists and is active,
// bidder is not the owner, auction has not ended, amount parses, amount
// exceeds the current price. On success the bid is inserted and the
// item's current price advanced atomically; a lost version race re-reads
// the item and re-validates, up to maxBidRetries attempts.
func (uc *BidUsecase) PlaceBid(ctx context.Context, itemID primitive.ObjectID, bidder domain.Actor, amountStr string) (*domain.Bid, error) {
	uc.logger.Info("Placing bid",
		zap.String("item_id", itemID.Hex()),
		zap.String("bidder_id", bidder.UserID),
		zap.String("amount", amountStr))

	var lastErr error
	for attempt := 0; attempt < maxBidRetries; attempt++ {
		bid, err := uc.tryPlaceBid(ctx, itemID, bidder, amountStr)
		if err == nil {
			return bid, nil
		}
		if !errors.Is(err, domain.ErrOptimisticLock) {
			return nil, err
		}
		lastErr = err
		uc.logger.Debug("Bid lost version race, retrying",
			zap.String("item_id", itemID.Hex()),
			zap.Int("attempt", attempt+1))
	}

	uc.logger.Warn("Bid exhausted retries on version conflicts",
		zap.String("item_id", itemID.Hex()),
		zap.String("bidder_id", bidder.UserID))
	return nil, lastErr
}

func (uc *BidUsecase) tryPlaceBid(ctx context.Context, itemID primitive.ObjectID, bidder domain.Actor, amountStr string) (*domain.Bid, error) {
	item, err := uc.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, domain.ErrNotFound
	}
	if item.IsOwnedBy(bidder.UserID) {
		return nil, domain.ErrSelfBid
	}
	if item.IsEnded(uc.now()) {
		return nil, domain.ErrAuctionEnded
	}

	amount, err := domain.ParseMoney(amountStr)
	if err != nil || amount <= 0 {
		return nil, domain.NewValidationError(map[string]string{
			"amount": "amount must be a valid positive price",
		})
	}
	if amount <= item.CurrentPrice {
		return nil, &domain.BidTooLowError{CurrentPrice: item.CurrentPrice}
	}

	bid := domain.NewBid(itemID, bidder, amount)

	expected := item.Version
	item.CurrentPrice = amount
	item.UpdatedAt = uc.now()
	item.Version++
	if err := uc.bids.ApplyBid(ctx, bid, item, expected); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.DeleteItem(ctx, itemID.Hex()); err != nil {
			uc.logger.Warn("Item cache invalidation failed", zap.Error(err), zap.String("item_id", itemID.Hex()))
		}
	}

	eventData := map[string]interface{}{
		"bid_id":     bid.ID.Hex(),
		"item_id":    itemID.Hex(),
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
		"created_at": bid.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "auction.bid.placed", eventData); err != nil {
		uc.logger.Warn("Failed to publish auction.bid.placed event to NATS",
			zap.Error(err), zap.String("bid_id", bid.ID.Hex()))
		// Non-critical, the bid is recorded. Log and continue.
	}

	uc.logger.Info("Bid placed successfully",
		zap.String("bid_id", bid.ID.Hex()),
		zap.String("item_id", itemID.Hex()),
		zap.String("new_price", bid.Amount.String()))
	return bid, nil
}

package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"go.uber.org/zap"
)

// WinnerMailer notifies the winning bidder, including the seller's
// contact details. Satisfied by the SMTP mailer.
type WinnerMailer interface {
	SendWinnerEmail(to, itemTitle, finalPrice, sellerUsername, sellerEmail string) error
}

// ClosureResult describes what happened to one expired item during a sweep.
type ClosureResult struct {
	ItemID     string
	Title      string
	WinnerID   string // empty when the auction drew no bids
	FinalPrice domain.Money
	HadBids    bool
	Notified   bool
}

// CloserUsecase sweeps expired auctions, assigns winners and fires
// notifications.
type CloserUsecase struct {
	items   domain.ItemRepository
	bids    domain.BidRepository
	mailer  WinnerMailer
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewCloserUsecase creates a new CloserUsecase.
func NewCloserUsecase(items domain.ItemRepository, bids domain.BidRepository, mailer WinnerMailer, natsPub EventPublisher, log *logger.Logger) *CloserUsecase {
	return &CloserUsecase{
		items:   items,
		bids:    bids,
		mailer:  mailer,
		natsPub: natsPub,
		logger:  log.Named("CloserUsecase"),
	}
}

// CloseExpiredAuctions finds every item whose deadline has passed while
// still active and closes it: the highest bid (ties broken by earliest
// bid) wins and the item is deactivated; items without bids are simply
// deactivated. The claim is a guarded update, so concurrent sweeps close
// each item exactly once. Email and event delivery are best-effort: a
// failure is logged and never rolls back the closure.
func (uc *CloserUsecase) CloseExpiredAuctions(ctx context.Context, now time.Time) ([]ClosureResult, error) {
	expired, err := uc.items.FindExpired(ctx, now)
	if err != nil {
		uc.logger.Error("Failed to query expired auctions", zap.Error(err))
		return nil, err
	}
	if len(expired) == 0 {
		uc.logger.Debug("No expired auctions to close")
		return nil, nil
	}

	uc.logger.Info("Closing expired auctions", zap.Int("count", len(expired)))

	results := make([]ClosureResult, 0, len(expired))
	for _, item := range expired {
		res, err := uc.closeOne(ctx, item)
		if err != nil {
			// One bad item must not stall the whole sweep.
			uc.logger.Error("Failed to close auction",
				zap.Error(err), zap.String("item_id", item.ID.Hex()))
			continue
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

// closeOne closes a single expired item. Returns nil when another sweep
// already claimed it.
func (uc *CloserUsecase) closeOne(ctx context.Context, item *domain.Item) (*ClosureResult, error) {
	highest, err := uc.bids.HighestForItem(ctx, item.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if highest == nil {
		claimed, err := uc.items.CloseWithoutWinner(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			uc.logger.Debug("Auction already closed by a concurrent sweep", zap.String("item_id", item.ID.Hex()))
			return nil, nil
		}
		uc.logger.Info("Auction closed without bids",
			zap.String("item_id", item.ID.Hex()),
			zap.String("title", item.Title))
		uc.publishClosed(ctx, item, "", domain.Money(0))
		return &ClosureResult{
			ItemID: item.ID.Hex(),
			Title:  item.Title,
		}, nil
	}

	claimed, err := uc.items.CloseWithWinner(ctx, item.ID, highest.BidderID, highest.Amount)
	if err != nil {
		return nil, err
	}
	if !claimed {
		uc.logger.Debug("Auction already closed by a concurrent sweep", zap.String("item_id", item.ID.Hex()))
		return nil, nil
	}

	uc.logger.Info("Auction closed with winner",
		zap.String("item_id", item.ID.Hex()),
		zap.String("title", item.Title),
		zap.String("winner_id", highest.BidderID),
		zap.String("final_price", highest.Amount.String()))

	notified := false
	if highest.BidderEmail != "" {
		if err := uc.mailer.SendWinnerEmail(highest.BidderEmail, item.Title, highest.Amount.String(), item.OwnerUsername, item.OwnerEmail); err != nil {
			uc.logger.Warn("Failed to send winner email",
				zap.Error(err),
				zap.String("item_id", item.ID.Hex()),
				zap.String("winner_id", highest.BidderID))
		} else {
			notified = true
		}
	}

	uc.publishClosed(ctx, item, highest.BidderID, highest.Amount)

	return &ClosureResult{
		ItemID:     item.ID.Hex(),
		Title:      item.Title,
		WinnerID:   highest.BidderID,
		FinalPrice: highest.Amount,
		HadBids:    true,
		Notified:   notified,
	}, nil
}

func (uc *CloserUsecase) publishClosed(ctx context.Context, item *domain.Item, winnerID string, finalPrice domain.Money) {
	eventData := map[string]interface{}{
		"item_id":   item.ID.Hex(),
		"title":     item.Title,
		"owner_id":  item.OwnerID,
		"winner_id": winnerID,
		"closed_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if winnerID != "" {
		eventData["final_price"] = finalPrice.String()
	}
	if err := uc.natsPub.Publish(ctx, "auction.closed", eventData); err != nil {
		uc.logger.Warn("Failed to publish auction.closed event to NATS",
			zap.Error(err), zap.String("item_id", item.ID.Hex()))
	}
}

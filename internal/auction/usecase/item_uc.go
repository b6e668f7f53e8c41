package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventPublisher publishes domain events. Satisfied by the NATS adapter.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// ItemCache is a read-through cache for item documents. Satisfied by the
// Redis adapter; a nil cache disables caching.
type ItemCache interface {
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	SetItem(ctx context.Context, item *domain.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// ItemUsecase implements the listing side of the auction lifecycle.
type ItemUsecase struct {
	items     domain.ItemRepository
	bids      domain.BidRepository
	questions domain.QuestionRepository
	cache     ItemCache
	logger    *logger.Logger
}

// NewItemUsecase creates a new ItemUsecase. cache may be nil.
func NewItemUsecase(items domain.ItemRepository, bids domain.BidRepository, questions domain.QuestionRepository, cache ItemCache, log *logger.Logger) *ItemUsecase {
	return &ItemUsecase{
		items:     items,
		bids:      bids,
		questions: questions,
		cache:     cache,
		logger:    log.Named("ItemUsecase"),
	}
}

// CreateItemInput holds the input parameters for creating an item.
type CreateItemInput struct {
	Title         string
	Description   string
	StartingPrice string
	PictureURL    string
	EndDate       time.Time
}

// UpdateItemInput holds the editable fields for an item. Nil means
// "leave unchanged". The starting price is deliberately absent: it is
// immutable once the item exists.
type UpdateItemInput struct {
	Title       *string
	Description *string
	PictureURL  *string
	EndDate     *time.Time
}

// ItemDetail bundles an item with its recent bids and all questions for
// the detail view.
type ItemDetail struct {
	Item      *domain.Item
	Bids      []*domain.Bid
	Questions []*domain.Question
}

// recentBidsLimit caps how many bids the detail view returns.
const recentBidsLimit = 20

// CreateItem validates the input and persists a new active item.
func (uc *ItemUsecase) CreateItem(ctx context.Context, owner domain.Actor, input CreateItemInput) (*domain.Item, error) {
	uc.logger.Info("Creating item",
		zap.String("owner_id", owner.UserID),
		zap.String("title", input.Title))

	price, parseErr := domain.ParseMoney(input.StartingPrice)

	item, err := domain.NewItem(owner, input.Title, input.Description, price, input.PictureURL, input.EndDate)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) && parseErr != nil {
			vErr.Fields["starting_price"] = "starting price must be a valid amount"
		}
		return nil, err
	}
	if parseErr != nil {
		return nil, domain.NewValidationError(map[string]string{
			"starting_price": "starting price must be a valid amount",
		})
	}

	if err := uc.items.Create(ctx, item); err != nil {
		uc.logger.Error("Failed to save item to repository", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Item created successfully", zap.String("item_id", item.ID.Hex()))
	return item, nil
}

// UpdateItem lets the owner edit an item that is still open for bidding.
func (uc *ItemUsecase) UpdateItem(ctx context.Context, itemID primitive.ObjectID, editor domain.Actor, input UpdateItemInput) (*domain.Item, error) {
	uc.logger.Info("Updating item",
		zap.String("item_id", itemID.Hex()),
		zap.String("editor_id", editor.UserID))

	item, err := uc.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(editor.UserID) {
		uc.logger.Warn("User forbidden to update item",
			zap.String("item_id", itemID.Hex()),
			zap.String("owner_id", item.OwnerID),
			zap.String("requesting_user", editor.UserID))
		return nil, domain.ErrForbidden
	}
	if !item.IsActive || item.IsEnded(time.Now().UTC()) {
		return nil, domain.ErrAuctionEnded
	}

	updated := false
	fields := map[string]string{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			fields["title"] = "title is required"
		} else if item.Title != title {
			item.Title = title
			updated = true
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			fields["description"] = "description is required"
		} else if item.Description != desc {
			item.Description = desc
			updated = true
		}
	}
	if input.PictureURL != nil && *input.PictureURL != item.PictureURL {
		item.PictureURL = *input.PictureURL
		updated = true
	}
	if input.EndDate != nil {
		end := input.EndDate.UTC()
		if !end.After(time.Now().UTC()) {
			fields["end_date"] = "end date must be in the future"
		} else if !item.EndDate.Equal(end) {
			item.EndDate = end
			updated = true
		}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}
	if !updated {
		uc.logger.Info("No changes detected for item update", zap.String("item_id", itemID.Hex()))
		return item, nil
	}

	expected := item.Version
	item.UpdatedAt = time.Now().UTC()
	item.Version++
	if err := uc.items.UpdateVersioned(ctx, item, expected); err != nil {
		uc.logger.Error("Failed to update item in repository", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, err
	}
	uc.invalidateCache(ctx, itemID)

	uc.logger.Info("Item updated successfully", zap.String("item_id", item.ID.Hex()))
	return item, nil
}

func (uc *ItemUsecase) invalidateCache(ctx context.Context, itemID primitive.ObjectID) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteItem(ctx, itemID.Hex()); err != nil {
		uc.logger.Warn("Item cache invalidation failed", zap.Error(err), zap.String("item_id", itemID.Hex()))
	}
}

// SoftDeleteItem deactivates an item so it disappears from listings and
// stops accepting bids. The document and its bid history stay in place.
func (uc *ItemUsecase) SoftDeleteItem(ctx context.Context, itemID primitive.ObjectID, editor domain.Actor) error {
	uc.logger.Info("Soft-deleting item",
		zap.String("item_id", itemID.Hex()),
		zap.String("editor_id", editor.UserID))

	item, err := uc.items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.IsOwnedBy(editor.UserID) {
		return domain.ErrForbidden
	}
	if !item.IsActive {
		return nil // already inactive, nothing to do
	}

	expected := item.Version
	item.IsActive = false
	item.UpdatedAt = time.Now().UTC()
	item.Version++
	if err := uc.items.UpdateVersioned(ctx, item, expected); err != nil {
		uc.logger.Error("Failed to deactivate item", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return err
	}
	uc.invalidateCache(ctx, itemID)

	uc.logger.Info("Item deactivated", zap.String("item_id", item.ID.Hex()))
	return nil
}

// GetItem returns the item detail view: the item, its latest bids
// (newest first, capped) and all of its questions. The item document is
// served read-through from the cache when one is configured.
func (uc *ItemUsecase) GetItem(ctx context.Context, itemID primitive.ObjectID) (*ItemDetail, error) {
	var item *domain.Item
	if uc.cache != nil {
		cached, err := uc.cache.GetItem(ctx, itemID.Hex())
		if err != nil {
			uc.logger.Warn("Item cache read failed", zap.Error(err), zap.String("item_id", itemID.Hex()))
		} else if cached != nil {
			item = cached
		}
	}
	if item == nil {
		var err error
		item, err = uc.items.FindByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.SetItem(ctx, item); err != nil {
				uc.logger.Warn("Item cache write failed", zap.Error(err), zap.String("item_id", itemID.Hex()))
			}
		}
	}

	bids, err := uc.bids.ListByItem(ctx, itemID, recentBidsLimit)
	if err != nil {
		uc.logger.Error("Failed to list bids for item", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, err
	}
	questions, err := uc.questions.ListByItem(ctx, itemID)
	if err != nil {
		uc.logger.Error("Failed to list questions for item", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, err
	}

	return &ItemDetail{Item: item, Bids: bids, Questions: questions}, nil
}

// SearchItems returns active items matching the optional text query,
// newest first.
func (uc *ItemUsecase) SearchItems(ctx context.Context, query string, page, limit int64) ([]*domain.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return uc.items.Search(ctx, domain.ItemFilter{
		Query:      strings.TrimSpace(query),
		OnlyActive: true,
		Page:       page,
		Limit:      limit,
	})
}

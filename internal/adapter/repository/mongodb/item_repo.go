package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	zap "go.uber.org/zap"
)

const itemCollectionName = "items"

// ItemRepository implements domain.ItemRepository using MongoDB.
type ItemRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewItemRepository creates a new MongoDB item repository and ensures its indexes.
func NewItemRepository(db *mongo.Database, log *logger.Logger) (*ItemRepository, error) {
	collection := db.Collection(itemCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "end_date", Value: 1}}}, // Closer sweep query
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}}, // Listing query
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for items collection", zap.Error(err))
		// Don't fail startup, indexes might already exist or be created manually.
	} else {
		log.Info("Successfully ensured indexes for items collection")
	}

	return &ItemRepository{
		collection: collection,
		logger:     log.Named("ItemRepository"),
	}, nil
}

// Create inserts a new item into the database.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	r.logger.Info("Creating item in DB", zap.String("owner_id", item.OwnerID), zap.String("title", item.Title))

	doc := fromDomainItem(item)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	item.ID = doc.ID

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("Failed to insert item into DB", zap.Error(err))
		return fmt.Errorf("%w: db insert failed: %v", domain.ErrRepository, err)
	}
	r.logger.Info("Item created successfully in DB", zap.String("item_id", doc.ID.Hex()))
	return nil
}

// FindByID retrieves an item by its ID.
func (r *ItemRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Item, error) {
	r.logger.Debug("Getting item by ID from DB", zap.String("item_id", id.Hex()))
	var doc itemDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Item not found in DB", zap.String("item_id", id.Hex()))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get item by ID from DB", zap.Error(err), zap.String("item_id", id.Hex()))
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomainItem(), nil
}

// Search retrieves items matching the filter, newest first.
func (r *ItemRepository) Search(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	r.logger.Debug("Searching items in DB", zap.String("query", filter.Query))

	mongoQuery := bson.M{}
	if filter.OnlyActive {
		mongoQuery["is_active"] = true
	}
	if filter.Query != "" {
		regex := primitive.Regex{Pattern: filter.Query, Options: "i"}
		mongoQuery["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"description": regex},
		}
	}

	findOptions := options.Find()
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
		if filter.Page > 0 {
			findOptions.SetSkip((filter.Page - 1) * filter.Limit)
		}
	}
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}}) // Newest first

	cursor, err := r.collection.Find(ctx, mongoQuery, findOptions)
	if err != nil {
		r.logger.Error("Failed to search items in DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrRepository, err)
	}
	defer cursor.Close(ctx)

	var docs []*itemDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode items from DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrRepository, err)
	}

	items := make([]*domain.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomainItem())
	}
	return items, nil
}

// UpdateVersioned writes the item's full state, guarded on the expected
// version. The filter only matches when nobody else has written since
// the caller's read; a miss against an existing document means a
// concurrent writer won.
func (r *ItemRepository) UpdateVersioned(ctx context.Context, item *domain.Item, expectedVersion int64) error {
	r.logger.Debug("Updating item with version check",
		zap.String("item_id", item.ID.Hex()),
		zap.Int64("expected_version", expectedVersion))

	doc := fromDomainItem(item)
	updatePayload := bson.M{
		"$set": bson.M{
			"title":                doc.Title,
			"description":          doc.Description,
			"current_price_cents":  doc.CurrentPrice,
			"picture_url":          doc.PictureURL,
			"end_date":             doc.EndDate,
			"is_active":            doc.IsActive,
			"winner_id":            doc.WinnerID,
			"updated_at":           doc.UpdatedAt,
			"version":              doc.Version,
		},
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "version": expectedVersion},
		updatePayload)
	if err != nil {
		r.logger.Error("Failed to update item in DB", zap.Error(err), zap.String("item_id", doc.ID.Hex()))
		return fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing document from a lost version race.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if countErr == nil && count == 0 {
			return domain.ErrNotFound
		}
		r.logger.Warn("Optimistic lock conflict on item update",
			zap.String("item_id", doc.ID.Hex()),
			zap.Int64("expected_version", expectedVersion))
		return domain.ErrOptimisticLock
	}
	return nil
}

// FindExpired returns active items whose deadline is at or before now.
func (r *ItemRepository) FindExpired(ctx context.Context, now time.Time) ([]*domain.Item, error) {
	r.logger.Debug("Finding expired auctions", zap.Time("now", now))

	cursor, err := r.collection.Find(ctx, bson.M{
		"is_active": true,
		"end_date":  bson.M{"$lte": now},
	})
	if err != nil {
		r.logger.Error("Failed to find expired auctions in DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrRepository, err)
	}
	defer cursor.Close(ctx)

	var docs []*itemDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode expired auctions from DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrRepository, err)
	}

	items := make([]*domain.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomainItem())
	}
	return items, nil
}

// CloseWithWinner claims an expired item for the winner. The guard on
// is_active and winner_id makes the claim exclusive: only one sweep can
// match, so double notification is impossible.
func (r *ItemRepository) CloseWithWinner(ctx context.Context, id primitive.ObjectID, winnerID string, finalPrice domain.Money) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true, "winner_id": nil},
		bson.M{
			"$set": bson.M{
				"is_active":           false,
				"winner_id":           winnerID,
				"current_price_cents": finalPrice.Cents(),
				"updated_at":          time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		r.logger.Error("Failed to close auction with winner in DB", zap.Error(err), zap.String("item_id", id.Hex()))
		return false, fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	return result.ModifiedCount > 0, nil
}

// CloseWithoutWinner deactivates an expired item that drew no bids.
func (r *ItemRepository) CloseWithoutWinner(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true, "winner_id": nil},
		bson.M{
			"$set": bson.M{
				"is_active":  false,
				"updated_at": time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		r.logger.Error("Failed to close auction without winner in DB", zap.Error(err), zap.String("item_id", id.Hex()))
		return false, fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	return result.ModifiedCount > 0, nil
}

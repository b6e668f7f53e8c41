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

const bidCollectionName = "bids"

// BidRepository implements domain.BidRepository using MongoDB.
type BidRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	items      *mongo.Collection
	logger     *logger.Logger
}

// NewBidRepository creates a new MongoDB bid repository and ensures its indexes.
func NewBidRepository(db *mongo.Database, log *logger.Logger) (*BidRepository, error) {
	collection := db.Collection(bidCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "amount_cents", Value: -1}, {Key: "created_at", Value: 1}}}, // Winner query
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "created_at", Value: -1}}},                                  // Recent-bids query
		{Keys: bson.D{{Key: "bidder_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for bids collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for bids collection")
	}

	return &BidRepository{
		client:     db.Client(),
		collection: collection,
		items:      db.Collection(itemCollectionName),
		logger:     log.Named("BidRepository"),
	}, nil
}

// ApplyBid inserts the bid and advances the item's price in a single
// transaction, guarded on the item's version. The guard fails when a
// concurrent bid already advanced the version, in which case the whole
// transaction aborts with ErrOptimisticLock and nothing is written.
func (r *BidRepository) ApplyBid(ctx context.Context, bid *domain.Bid, item *domain.Item, expectedVersion int64) error {
	r.logger.Debug("Applying bid",
		zap.String("item_id", item.ID.Hex()),
		zap.String("bidder_id", bid.BidderID),
		zap.Int64("expected_version", expectedVersion))

	session, err := r.client.StartSession()
	if err != nil {
		r.logger.Error("Failed to start mongo session for bid", zap.Error(err))
		return fmt.Errorf("%w: start session failed: %v", domain.ErrRepository, err)
	}
	defer session.EndSession(ctx)

	bidDoc := fromDomainBid(bid)
	if bidDoc.ID.IsZero() {
		bidDoc.ID = primitive.NewObjectID()
	}
	bid.ID = bidDoc.ID

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.InsertOne(sessCtx, bidDoc); err != nil {
			return nil, fmt.Errorf("%w: bid insert failed: %v", domain.ErrRepository, err)
		}

		result, err := r.items.UpdateOne(sessCtx,
			bson.M{"_id": item.ID, "version": expectedVersion, "is_active": true},
			bson.M{"$set": bson.M{
				"current_price_cents": item.CurrentPrice.Cents(),
				"updated_at":          item.UpdatedAt,
				"version":             item.Version,
			}})
		if err != nil {
			return nil, fmt.Errorf("%w: item price update failed: %v", domain.ErrRepository, err)
		}
		if result.MatchedCount == 0 {
			return nil, domain.ErrOptimisticLock
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOptimisticLock) {
			r.logger.Debug("Bid transaction aborted on version conflict",
				zap.String("item_id", item.ID.Hex()))
			return domain.ErrOptimisticLock
		}
		r.logger.Error("Bid transaction failed", zap.Error(err), zap.String("item_id", item.ID.Hex()))
		return err
	}

	r.logger.Info("Bid applied in DB",
		zap.String("bid_id", bidDoc.ID.Hex()),
		zap.String("item_id", item.ID.Hex()))
	return nil
}

// HighestForItem returns the winning candidate: highest amount, ties
// broken by the earliest bid. Returns ErrNotFound when the item has no bids.
func (r *BidRepository) HighestForItem(ctx context.Context, itemID primitive.ObjectID) (*domain.Bid, error) {
	findOptions := options.FindOne().
		SetSort(bson.D{{Key: "amount_cents", Value: -1}, {Key: "created_at", Value: 1}})

	var doc bidDocument
	err := r.collection.FindOne(ctx, bson.M{"item_id": itemID}, findOptions).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to find highest bid in DB", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomainBid(), nil
}

// ListByItem returns the item's bids, newest first, capped at limit.
func (r *BidRepository) ListByItem(ctx context.Context, itemID primitive.ObjectID, limit int64) ([]*domain.Bid, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"item_id": itemID}, findOptions)
	if err != nil {
		r.logger.Error("Failed to list bids in DB", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrRepository, err)
	}
	defer cursor.Close(ctx)

	var docs []*bidDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode bids from DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrRepository, err)
	}

	bids := make([]*domain.Bid, 0, len(docs))
	for _, doc := range docs {
		bids = append(bids, doc.toDomainBid())
	}
	return bids, nil
}

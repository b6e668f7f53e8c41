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

const questionCollectionName = "questions"

// QuestionRepository implements domain.QuestionRepository using MongoDB.
type QuestionRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewQuestionRepository creates a new MongoDB question repository and ensures its indexes.
func NewQuestionRepository(db *mongo.Database, log *logger.Logger) (*QuestionRepository, error) {
	collection := db.Collection(questionCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "asked_at", Value: 1}}},
		{Keys: bson.D{{Key: "asker_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for questions collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for questions collection")
	}

	return &QuestionRepository{
		collection: collection,
		logger:     log.Named("QuestionRepository"),
	}, nil
}

// Create inserts a new question into the database.
func (r *QuestionRepository) Create(ctx context.Context, question *domain.Question) error {
	r.logger.Info("Creating question in DB",
		zap.String("item_id", question.ItemID.Hex()),
		zap.String("asker_id", question.AskerID))

	doc := fromDomainQuestion(question)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	question.ID = doc.ID

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("Failed to insert question into DB", zap.Error(err))
		return fmt.Errorf("%w: db insert failed: %v", domain.ErrRepository, err)
	}
	return nil
}

// FindByID retrieves a question by its ID.
func (r *QuestionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Question, error) {
	var doc questionDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Question not found in DB", zap.String("question_id", id.Hex()))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get question by ID from DB", zap.Error(err), zap.String("question_id", id.Hex()))
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomainQuestion(), nil
}

// ListByItem returns all questions on an item, oldest first.
func (r *QuestionRepository) ListByItem(ctx context.Context, itemID primitive.ObjectID) ([]*domain.Question, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "asked_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"item_id": itemID}, findOptions)
	if err != nil {
		r.logger.Error("Failed to list questions in DB", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrRepository, err)
	}
	defer cursor.Close(ctx)

	var docs []*questionDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode questions from DB", zap.Error(err))
		return nil, fmt.Errorf("%w: db cursor all failed: %v", domain.ErrRepository, err)
	}

	questions := make([]*domain.Question, 0, len(docs))
	for _, doc := range docs {
		questions = append(questions, doc.toDomainQuestion())
	}
	return questions, nil
}

// Update writes the answer fields of an existing question.
func (r *QuestionRepository) Update(ctx context.Context, question *domain.Question) error {
	r.logger.Info("Updating question in DB", zap.String("question_id", question.ID.Hex()))

	doc := fromDomainQuestion(question)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"answer_text": doc.AnswerText,
			"answered_at": doc.AnsweredAt,
		}})
	if err != nil {
		r.logger.Error("Failed to update question in DB", zap.Error(err), zap.String("question_id", doc.ID.Hex()))
		return fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// QuestionUsecase implements the public Q&A thread on items.
type QuestionUsecase struct {
	items     domain.ItemRepository
	questions domain.QuestionRepository
	natsPub   EventPublisher
	logger    *logger.Logger
}

// NewQuestionUsecase creates a new QuestionUsecase.
func NewQuestionUsecase(items domain.ItemRepository, questions domain.QuestionRepository, natsPub EventPublisher, log *logger.Logger) *QuestionUsecase {
	return &QuestionUsecase{
		items:     items,
		questions: questions,
		natsPub:   natsPub,
		logger:    log.Named("QuestionUsecase"),
	}
}

// AskQuestion records a question on an item. Any authenticated user may
// ask, the owner included; the item must exist and still be active.
func (uc *QuestionUsecase) AskQuestion(ctx context.Context, itemID primitive.ObjectID, asker domain.Actor, text string) (*domain.Question, error) {
	uc.logger.Info("Asking question",
		zap.String("item_id", itemID.Hex()),
		zap.String("asker_id", asker.UserID))

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError(map[string]string{
			"question_text": "question text is required",
		})
	}

	item, err := uc.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, domain.ErrNotFound
	}

	question := domain.NewQuestion(itemID, asker, text)
	if err := uc.questions.Create(ctx, question); err != nil {
		uc.logger.Error("Failed to save question", zap.Error(err), zap.String("item_id", itemID.Hex()))
		return nil, err
	}

	eventData := map[string]interface{}{
		"question_id": question.ID.Hex(),
		"item_id":     itemID.Hex(),
		"asker_id":    question.AskerID,
		"asked_at":    question.AskedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "auction.question.asked", eventData); err != nil {
		uc.logger.Warn("Failed to publish auction.question.asked event to NATS",
			zap.Error(err), zap.String("question_id", question.ID.Hex()))
	}

	uc.logger.Info("Question asked", zap.String("question_id", question.ID.Hex()))
	return question, nil
}

// AnswerQuestion records the owner's answer. Only the item owner may
// answer; answering again replaces the previous answer.
func (uc *QuestionUsecase) AnswerQuestion(ctx context.Context, questionID primitive.ObjectID, answerer domain.Actor, text string) (*domain.Question, error) {
	uc.logger.Info("Answering question",
		zap.String("question_id", questionID.Hex()),
		zap.String("answerer_id", answerer.UserID))

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError(map[string]string{
			"answer_text": "answer text is required",
		})
	}

	question, err := uc.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	item, err := uc.items.FindByID(ctx, question.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(answerer.UserID) {
		uc.logger.Warn("User forbidden to answer question",
			zap.String("question_id", questionID.Hex()),
			zap.String("owner_id", item.OwnerID),
			zap.String("requesting_user", answerer.UserID))
		return nil, domain.ErrForbidden
	}

	question.Answer(text, time.Now())
	if err := uc.questions.Update(ctx, question); err != nil {
		uc.logger.Error("Failed to save answer", zap.Error(err), zap.String("question_id", questionID.Hex()))
		return nil, err
	}

	eventData := map[string]interface{}{
		"question_id": question.ID.Hex(),
		"item_id":     question.ItemID.Hex(),
		"answered_at": question.AnsweredAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "auction.question.answered", eventData); err != nil {
		uc.logger.Warn("Failed to publish auction.question.answered event to NATS",
			zap.Error(err), zap.String("question_id", question.ID.Hex()))
	}

	uc.logger.Info("Question answered", zap.String("question_id", question.ID.Hex()))
	return question, nil
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is a public question on an item, optionally answered by the
// item's owner. AnsweredAt stays nil until the first answer lands.
type Question struct {
	ID           primitive.ObjectID
	ItemID       primitive.ObjectID
	AskerID      string
	QuestionText string
	AnswerText   string
	AskedAt      time.Time
	AnsweredAt   *time.Time
}

// NewQuestion creates an unanswered question stamped with the current time.
func NewQuestion(itemID primitive.ObjectID, asker Actor, text string) *Question {
	return &Question{
		ID:           primitive.NewObjectID(),
		ItemID:       itemID,
		AskerID:      asker.UserID,
		QuestionText: text,
		AskedAt:      time.Now().UTC(),
	}
}

// IsAnswered reports whether the owner has answered this question.
func (q *Question) IsAnswered() bool {
	return q.AnswerText != ""
}

// Answer records (or replaces) the owner's answer and refreshes AnsweredAt.
func (q *Question) Answer(text string, now time.Time) {
	q.AnswerText = text
	t := now.UTC()
	q.AnsweredAt = &t
}

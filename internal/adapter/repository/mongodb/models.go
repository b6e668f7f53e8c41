package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// itemDocument is the MongoDB representation of a domain.Item. Prices
// are stored as raw cents.
type itemDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"owner_id"`
	OwnerEmail    string             `bson:"owner_email"`
	OwnerUsername string             `bson:"owner_username"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	StartingPrice int64              `bson:"starting_price_cents"`
	CurrentPrice  int64              `bson:"current_price_cents"`
	PictureURL    string             `bson:"picture_url,omitempty"`
	EndDate       time.Time          `bson:"end_date"`
	IsActive      bool               `bson:"is_active"`
	WinnerID      *string            `bson:"winner_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
	Version       int64              `bson:"version"`
}

type bidDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ItemID      primitive.ObjectID `bson:"item_id"`
	BidderID    string             `bson:"bidder_id"`
	BidderEmail string             `bson:"bidder_email,omitempty"`
	Amount      int64              `bson:"amount_cents"`
	CreatedAt   time.Time          `bson:"created_at"`
}

type questionDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ItemID       primitive.ObjectID `bson:"item_id"`
	AskerID      string             `bson:"asker_id"`
	QuestionText string             `bson:"question_text"`
	AnswerText   string             `bson:"answer_text,omitempty"`
	AskedAt      time.Time          `bson:"asked_at"`
	AnsweredAt   *time.Time         `bson:"answered_at,omitempty"`
}

func fromDomainItem(i *domain.Item) *itemDocument {
	if i == nil {
		return nil
	}
	return &itemDocument{
		ID:            i.ID,
		OwnerID:       i.OwnerID,
		OwnerEmail:    i.OwnerEmail,
		OwnerUsername: i.OwnerUsername,
		Title:         i.Title,
		Description:   i.Description,
		StartingPrice: i.StartingPrice.Cents(),
		CurrentPrice:  i.CurrentPrice.Cents(),
		PictureURL:    i.PictureURL,
		EndDate:       i.EndDate,
		IsActive:      i.IsActive,
		WinnerID:      i.WinnerID,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
		Version:       i.Version,
	}
}

func (d *itemDocument) toDomainItem() *domain.Item {
	if d == nil {
		return nil
	}
	return &domain.Item{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		OwnerEmail:    d.OwnerEmail,
		OwnerUsername: d.OwnerUsername,
		Title:         d.Title,
		Description:   d.Description,
		StartingPrice: domain.Money(d.StartingPrice),
		CurrentPrice:  domain.Money(d.CurrentPrice),
		PictureURL:    d.PictureURL,
		EndDate:       d.EndDate,
		IsActive:      d.IsActive,
		WinnerID:      d.WinnerID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
}

func fromDomainBid(b *domain.Bid) *bidDocument {
	if b == nil {
		return nil
	}
	return &bidDocument{
		ID:          b.ID,
		ItemID:      b.ItemID,
		BidderID:    b.BidderID,
		BidderEmail: b.BidderEmail,
		Amount:      b.Amount.Cents(),
		CreatedAt:   b.CreatedAt,
	}
}

func (d *bidDocument) toDomainBid() *domain.Bid {
	if d == nil {
		return nil
	}
	return &domain.Bid{
		ID:          d.ID,
		ItemID:      d.ItemID,
		BidderID:    d.BidderID,
		BidderEmail: d.BidderEmail,
		Amount:      domain.Money(d.Amount),
		CreatedAt:   d.CreatedAt,
	}
}

func fromDomainQuestion(q *domain.Question) *questionDocument {
	if q == nil {
		return nil
	}
	return &questionDocument{
		ID:           q.ID,
		ItemID:       q.ItemID,
		AskerID:      q.AskerID,
		QuestionText: q.QuestionText,
		AnswerText:   q.AnswerText,
		AskedAt:      q.AskedAt,
		AnsweredAt:   q.AnsweredAt,
	}
}

func (d *questionDocument) toDomainQuestion() *domain.Question {
	if d == nil {
		return nil
	}
	return &domain.Question{
		ID:           d.ID,
		ItemID:       d.ItemID,
		AskerID:      d.AskerID,
		QuestionText: d.QuestionText,
		AnswerText:   d.AnswerText,
		AskedAt:      d.AskedAt,
		AnsweredAt:   d.AnsweredAt,
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCloserFixture(t *testing.T) (*fakeItemRepo, *fakeBidRepo, *fakeMailer, *fakePublisher, *CloserUsecase) {
	t.Helper()
	items := newFakeItemRepo()
	bids := newFakeBidRepo(items)
	mail := &fakeMailer{}
	pub := &fakePublisher{}
	uc := NewCloserUsecase(items, bids, mail, pub, logger.NewLogger())
	return items, bids, mail, pub, uc
}

func expiredItem(t *testing.T, owner domain.Actor) *domain.Item {
	t.Helper()
	item := newTestItem(t, owner, "100.00", time.Hour)
	item.EndDate = time.Now().UTC().Add(-time.Minute)
	return item
}

func addBid(t *testing.T, bids *fakeBidRepo, item *domain.Item, bidder domain.Actor, amount string, at time.Time) *domain.Bid {
	t.Helper()
	money, err := domain.ParseMoney(amount)
	require.NoError(t, err)
	bid := domain.NewBid(item.ID, bidder, money)
	bid.CreatedAt = at
	bids.bids = append(bids.bids, bid)
	return bid
}

func TestCloseExpiredAuctions_AssignsHighestBidder(t *testing.T) {
	items, bids, mail, pub, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1", Email: "seller@example.com", Username: "seller"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))

	base := time.Now().UTC().Add(-time.Hour)
	addBid(t, bids, item, domain.Actor{UserID: "buyer-1", Email: "one@example.com"}, "120.00", base)
	addBid(t, bids, item, domain.Actor{UserID: "buyer-2", Email: "two@example.com"}, "140.00", base.Add(time.Minute))

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "buyer-2", res.WinnerID)
	assert.Equal(t, "140.00", res.FinalPrice.String())
	assert.True(t, res.HadBids)
	assert.True(t, res.Notified)

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, "buyer-2", *stored.WinnerID)
	assert.Equal(t, "140.00", stored.CurrentPrice.String())

	// The winner mail carries the seller's contact details.
	assert.Equal(t, []string{"two@example.com"}, mail.sent)
	assert.Equal(t, []string{"seller"}, mail.sellers)
	assert.Equal(t, []string{"seller@example.com"}, mail.sellerMails)
	assert.Equal(t, []string{"auction.closed"}, pub.subjects())
}

func TestCloseExpiredAuctions_TieGoesToEarliestBid(t *testing.T) {
	items, bids, _, _, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))

	base := time.Now().UTC().Add(-time.Hour)
	addBid(t, bids, item, domain.Actor{UserID: "late", Email: "late@example.com"}, "140.00", base.Add(time.Minute))
	addBid(t, bids, item, domain.Actor{UserID: "early", Email: "early@example.com"}, "140.00", base)

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "early", results[0].WinnerID)
}

func TestCloseExpiredAuctions_NoBidsDeactivatesWithoutWinner(t *testing.T) {
	items, _, mail, pub, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].WinnerID)
	assert.False(t, results[0].HadBids)

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.WinnerID)

	assert.Equal(t, 0, mail.calls)
	assert.Equal(t, []string{"auction.closed"}, pub.subjects())
}

func TestCloseExpiredAuctions_DoubleSweepIsIdempotent(t *testing.T) {
	items, bids, mail, _, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))
	addBid(t, bids, item, domain.Actor{UserID: "buyer-1", Email: "one@example.com"}, "120.00", time.Now().UTC().Add(-time.Hour))

	first, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, 1, mail.calls)
}

func TestCloseExpiredAuctions_MailFailureDoesNotAbortClosure(t *testing.T) {
	items, bids, mail, pub, uc := newCloserFixture(t)
	mail.err = errors.New("smtp down")

	owner := domain.Actor{UserID: "seller-1"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))
	addBid(t, bids, item, domain.Actor{UserID: "buyer-1", Email: "one@example.com"}, "120.00", time.Now().UTC().Add(-time.Hour))

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Notified)

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.WinnerID)

	assert.Equal(t, []string{"auction.closed"}, pub.subjects())
}

func TestCloseExpiredAuctions_ActiveAuctionsAreLeftAlone(t *testing.T) {
	items, _, _, _, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "100.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, results)

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestCloseExpiredAuctions_WinnerWithoutEmailSkipsMail(t *testing.T) {
	items, bids, mail, _, uc := newCloserFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := expiredItem(t, owner)
	require.NoError(t, items.Create(context.Background(), item))
	addBid(t, bids, item, domain.Actor{UserID: "buyer-1"}, "120.00", time.Now().UTC().Add(-time.Hour))

	results, err := uc.CloseExpiredAuctions(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "buyer-1", results[0].WinnerID)
	assert.False(t, results[0].Notified)
	assert.Equal(t, 0, mail.calls)
}

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

func newTestItem(t *testing.T, owner domain.Actor, startingPrice string, endsIn time.Duration) *domain.Item {
	t.Helper()
	price, err := domain.ParseMoney(startingPrice)
	require.NoError(t, err)
	item, err := domain.NewItem(owner, "Vintage Road Bike", "A 1980s steel frame in good shape.", price, "http://pictures/bike.jpg", time.Now().UTC().Add(endsIn))
	require.NoError(t, err)
	return item
}

func newBidFixture(t *testing.T) (*fakeItemRepo, *fakeBidRepo, *fakePublisher, *BidUsecase) {
	t.Helper()
	items := newFakeItemRepo()
	bids := newFakeBidRepo(items)
	pub := &fakePublisher{}
	uc := NewBidUsecase(items, bids, pub, nil, logger.NewLogger())
	return items, bids, pub, uc
}

func TestPlaceBid_AcceptsHigherBidAndAdvancesPrice(t *testing.T) {
	items, bids, pub, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1", Email: "seller@example.com"}
	bidder := domain.Actor{UserID: "buyer-1", Email: "buyer@example.com"}

	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	bid, err := uc.PlaceBid(context.Background(), item.ID, bidder, "160.00")
	require.NoError(t, err)
	assert.Equal(t, "160.00", bid.Amount.String())
	assert.Equal(t, bidder.UserID, bid.BidderID)

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "160.00", stored.CurrentPrice.String())
	assert.Equal(t, item.Version+1, stored.Version)
	assert.Len(t, bids.bids, 1)
	assert.Equal(t, []string{"auction.bid.placed"}, pub.subjects())
}

func TestPlaceBid_RejectsBidNotAboveCurrentPrice(t *testing.T) {
	items, _, pub, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	first := domain.Actor{UserID: "buyer-1", Email: "one@example.com"}
	second := domain.Actor{UserID: "buyer-2", Email: "two@example.com"}

	_, err := uc.PlaceBid(context.Background(), item.ID, first, "160.00")
	require.NoError(t, err)

	_, err = uc.PlaceBid(context.Background(), item.ID, second, "155.00")
	var lowErr *domain.BidTooLowError
	require.ErrorAs(t, err, &lowErr)
	assert.Equal(t, "160.00", lowErr.CurrentPrice.String())
	assert.Contains(t, lowErr.Error(), "160.00")

	// Equal to current price is rejected too.
	_, err = uc.PlaceBid(context.Background(), item.ID, second, "160.00")
	require.ErrorAs(t, err, &lowErr)

	assert.Equal(t, []string{"auction.bid.placed"}, pub.subjects())
}

func TestPlaceBid_RejectsOwner(t *testing.T) {
	items, _, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	_, err := uc.PlaceBid(context.Background(), item.ID, owner, "200.00")
	assert.ErrorIs(t, err, domain.ErrSelfBid)
}

func TestPlaceBid_RejectsEndedAuction(t *testing.T) {
	items, _, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	uc.now = func() time.Time { return item.EndDate.Add(time.Second) }

	_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "200.00")
	assert.ErrorIs(t, err, domain.ErrAuctionEnded)
}

func TestPlaceBid_BidAtExactDeadlineIsRejected(t *testing.T) {
	items, _, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	uc.now = func() time.Time { return item.EndDate }

	_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "200.00")
	assert.ErrorIs(t, err, domain.ErrAuctionEnded)
}

func TestPlaceBid_InactiveItemLooksMissing(t *testing.T) {
	items, _, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	item.IsActive = false
	require.NoError(t, items.Create(context.Background(), item))

	_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "200.00")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceBid_RejectsInvalidAmount(t *testing.T) {
	items, _, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	for _, amount := range []string{"", "abc", "-5.00", "10.123"} {
		_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, amount)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "amount %q", amount)
	}
}

func TestPlaceBid_RetriesOnVersionConflict(t *testing.T) {
	items, bids, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	// Two lost races, the third attempt lands.
	bids.conflicts = 2

	bid, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "160.00")
	require.NoError(t, err)
	assert.Equal(t, "160.00", bid.Amount.String())

	stored, err := items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "160.00", stored.CurrentPrice.String())
}

func TestPlaceBid_SurfacesConflictAfterExhaustedRetries(t *testing.T) {
	items, bids, _, uc := newBidFixture(t)

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	bids.conflicts = maxBidRetries

	_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "160.00")
	assert.ErrorIs(t, err, domain.ErrOptimisticLock)
	assert.Empty(t, bids.bids)
}

func TestPlaceBid_PublishFailureDoesNotFailBid(t *testing.T) {
	items, _, pub, uc := newBidFixture(t)
	pub.err = errors.New("nats down")

	owner := domain.Actor{UserID: "seller-1"}
	item := newTestItem(t, owner, "150.00", time.Hour)
	require.NoError(t, items.Create(context.Background(), item))

	_, err := uc.PlaceBid(context.Background(), item.ID, domain.Actor{UserID: "buyer-1"}, "160.00")
	assert.NoError(t, err)
}

package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes mirroring the MongoDB adapter's semantics,
// including the version guard and the closer's exclusive claim.

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[primitive.ObjectID]*domain.Item)}
}

func copyItem(i *domain.Item) *domain.Item {
	cp := *i
	if i.WinnerID != nil {
		w := *i.WinnerID
		cp.WinnerID = &w
	}
	return &cp
}

func (r *fakeItemRepo) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = copyItem(item)
	return nil
}

func (r *fakeItemRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyItem(item), nil
}

func (r *fakeItemRepo) Search(_ context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Item
	for _, item := range r.items {
		if filter.OnlyActive && !item.IsActive {
			continue
		}
		out = append(out, copyItem(item))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *fakeItemRepo) UpdateVersioned(_ context.Context, item *domain.Item, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrOptimisticLock
	}
	r.items[item.ID] = copyItem(item)
	return nil
}

func (r *fakeItemRepo) FindExpired(_ context.Context, now time.Time) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Item
	for _, item := range r.items {
		if item.IsActive && !now.Before(item.EndDate) {
			out = append(out, copyItem(item))
		}
	}
	return out, nil
}

func (r *fakeItemRepo) CloseWithWinner(_ context.Context, id primitive.ObjectID, winnerID string, finalPrice domain.Money) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || !stored.IsActive || stored.WinnerID != nil {
		return false, nil
	}
	stored.IsActive = false
	stored.WinnerID = &winnerID
	stored.CurrentPrice = finalPrice
	stored.Version++
	return true, nil
}

func (r *fakeItemRepo) CloseWithoutWinner(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || !stored.IsActive || stored.WinnerID != nil {
		return false, nil
	}
	stored.IsActive = false
	stored.Version++
	return true, nil
}

type fakeBidRepo struct {
	mu    sync.Mutex
	bids  []*domain.Bid
	items *fakeItemRepo

	// conflicts makes the next N ApplyBid calls lose the version race,
	// bumping the stored item's version like a concurrent bidder would.
	conflicts int
}

func newFakeBidRepo(items *fakeItemRepo) *fakeBidRepo {
	return &fakeBidRepo{items: items}
}

func (r *fakeBidRepo) ApplyBid(_ context.Context, bid *domain.Bid, item *domain.Item, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.mu.Lock()
	defer r.items.mu.Unlock()

	stored, ok := r.items.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
		return domain.ErrOptimisticLock
	}
	if stored.Version != expectedVersion || !stored.IsActive {
		return domain.ErrOptimisticLock
	}
	r.bids = append(r.bids, bid)
	stored.CurrentPrice = item.CurrentPrice
	stored.UpdatedAt = item.UpdatedAt
	stored.Version = item.Version
	return nil
}

func (r *fakeBidRepo) HighestForItem(_ context.Context, itemID primitive.ObjectID) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Bid
	for _, b := range r.bids {
		if b.ItemID != itemID {
			continue
		}
		if best == nil || b.Amount > best.Amount || (b.Amount == best.Amount && b.CreatedAt.Before(best.CreatedAt)) {
			best = b
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *fakeBidRepo) ListByItem(_ context.Context, itemID primitive.ObjectID, limit int64) ([]*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Bid
	for _, b := range r.bids {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions map[primitive.ObjectID]*domain.Question
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[primitive.ObjectID]*domain.Question)}
}

func (r *fakeQuestionRepo) Create(_ context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	r.questions[q.ID] = &cp
	return nil
}

func (r *fakeQuestionRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuestionRepo) ListByItem(_ context.Context, itemID primitive.ObjectID) ([]*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Question
	for _, q := range r.questions {
		if q.ItemID == itemID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].AskedAt.Before(out[b].AskedAt) })
	return out, nil
}

func (r *fakeQuestionRepo) Update(_ context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *q
	r.questions[q.ID] = &cp
	return nil
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

type fakeMailer struct {
	mu          sync.Mutex
	sent        []string
	sellers     []string
	sellerMails []string
	err         error
	calls       int
}

func (m *fakeMailer) SendWinnerEmail(to, itemTitle, finalPrice, sellerUsername, sellerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	m.sellers = append(m.sellers, sellerUsername)
	m.sellerMails = append(m.sellerMails, sellerEmail)
	return nil
}

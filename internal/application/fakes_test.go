package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	businessDomain "github.com/punchly/service-loyalty/internal/domain/business"
	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
	punchcardDomain "github.com/punchly/service-loyalty/internal/domain/punchcard"
	tokenDomain "github.com/punchly/service-loyalty/internal/domain/token"
	userDomain "github.com/punchly/service-loyalty/internal/domain/user"
	"github.com/punchly/service-loyalty/internal/platform/domain"
	platformkafka "github.com/punchly/service-loyalty/internal/platform/kafka"
)

// fakeTokenRepo is an in-memory token.Repository. MarkUsed takes the same
// compare-and-set decision under a mutex that the SQL filter takes in the row
// lock, so concurrency tests exercise the real arbitration shape.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*tokenDomain.RedemptionToken

	saveErr      error
	findErr      error
	markUsedErr  error
	loseMarkUsed bool

	deletedUsers []uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*tokenDomain.RedemptionToken)}
}

func (r *fakeTokenRepo) Save(_ context.Context, t *tokenDomain.RedemptionToken) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Value()] = t
	return nil
}

func (r *fakeTokenRepo) FindByValue(_ context.Context, value string) (*tokenDomain.RedemptionToken, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[value]
	if !ok {
		return nil, domain.NewNotFoundError("RedemptionToken", value)
	}
	// Return a snapshot, as a row read would.
	return tokenDomain.Reconstruct(
		t.ID(), t.Value(), t.UserID(), t.BusinessID(), t.PunchcardID(),
		t.Reward(), t.IssuedAt(), t.ExpiresAt(), t.IsUsed(), t.UsedAt(),
	), nil
}

func (r *fakeTokenRepo) MarkUsed(_ context.Context, value string, usedAt time.Time) (bool, error) {
	if r.markUsedErr != nil {
		return false, r.markUsedErr
	}
	if r.loseMarkUsed {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[value]
	if !ok || t.IsUsed() {
		return false, nil
	}
	_ = t.MarkUsed(usedAt)
	return true, nil
}

func (r *fakeTokenRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedUsers = append(r.deletedUsers, userID)
	for value, t := range r.tokens {
		if t.UserID() == userID {
			delete(r.tokens, value)
		}
	}
	return nil
}

func (r *fakeTokenRepo) stored(value string) *tokenDomain.RedemptionToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[value]
}

// fakePunchcardRepo is an in-memory punchcard.Repository.
type fakePunchcardRepo struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*punchcardDomain.Punchcard

	applyErr       error
	forceNotApply  bool
	findErr        error
	findByOwnerErr error
	redemptionHits int

	deletedUsers []uuid.UUID
}

func newFakePunchcardRepo() *fakePunchcardRepo {
	return &fakePunchcardRepo{cards: make(map[uuid.UUID]*punchcardDomain.Punchcard)}
}

func (r *fakePunchcardRepo) put(p *punchcardDomain.Punchcard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[p.ID()] = p
}

func (r *fakePunchcardRepo) Save(_ context.Context, p *punchcardDomain.Punchcard) error {
	r.put(p)
	return nil
}

func (r *fakePunchcardRepo) FindByID(_ context.Context, id uuid.UUID) (*punchcardDomain.Punchcard, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cards[id]
	if !ok {
		return nil, domain.NewNotFoundError("Punchcard", id.String())
	}
	return snapshotCard(p), nil
}

func (r *fakePunchcardRepo) FindByUserAndBusiness(_ context.Context, userID, businessID uuid.UUID) (*punchcardDomain.Punchcard, error) {
	if r.findByOwnerErr != nil {
		return nil, r.findByOwnerErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.cards {
		if p.UserID() == userID && p.BusinessID() == businessID {
			return snapshotCard(p), nil
		}
	}
	return nil, domain.NewNotFoundError("Punchcard", userID.String())
}

func (r *fakePunchcardRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*punchcardDomain.Punchcard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*punchcardDomain.Punchcard
	for _, p := range r.cards {
		if p.UserID() == userID {
			out = append(out, snapshotCard(p))
		}
	}
	return out, nil
}

func (r *fakePunchcardRepo) AddPunch(_ context.Context, id uuid.UUID, _ time.Time) (*punchcardDomain.Punchcard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cards[id]
	if !ok {
		return nil, domain.NewNotFoundError("Punchcard", id.String())
	}
	p.AddPunch()
	return snapshotCard(p), nil
}

func (r *fakePunchcardRepo) ApplyRedemption(_ context.Context, id uuid.UUID, punchesRequired int, _ time.Time) (*punchcardDomain.Punchcard, bool, error) {
	if r.applyErr != nil {
		return nil, false, r.applyErr
	}
	if r.forceNotApply {
		return nil, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cards[id]
	if !ok {
		return nil, false, domain.NewNotFoundError("Punchcard", id.String())
	}
	if !p.CanRedeem(punchesRequired) {
		return nil, false, nil
	}
	if err := p.Redeem(punchesRequired); err != nil {
		return nil, false, err
	}
	r.redemptionHits++
	return snapshotCard(p), true, nil
}

func (r *fakePunchcardRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedUsers = append(r.deletedUsers, userID)
	for id, p := range r.cards {
		if p.UserID() == userID {
			delete(r.cards, id)
		}
	}
	return nil
}

func (r *fakePunchcardRepo) punches(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cards[id]; ok {
		return p.Punches()
	}
	return -1
}

func snapshotCard(p *punchcardDomain.Punchcard) *punchcardDomain.Punchcard {
	return punchcardDomain.Reconstruct(
		p.ID(), p.UserID(), p.BusinessID(),
		p.Punches(), p.IsFavorite(),
		p.LastPunchAt(), p.LastRedemptionAt(),
		p.CreatedAt(), p.UpdatedAt(),
	)
}

// fakeBusinessRepo is an in-memory business.Repository.
type fakeBusinessRepo struct {
	mu         sync.Mutex
	businesses map[uuid.UUID]*businessDomain.Business
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: make(map[uuid.UUID]*businessDomain.Business)}
}

func (r *fakeBusinessRepo) Save(_ context.Context, b *businessDomain.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.businesses[b.ID()] = b
	return nil
}

func (r *fakeBusinessRepo) Update(ctx context.Context, b *businessDomain.Business) error {
	return r.Save(ctx, b)
}

func (r *fakeBusinessRepo) FindByID(_ context.Context, id uuid.UUID) (*businessDomain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.businesses[id]
	if !ok {
		return nil, domain.NewNotFoundError("Business", id.String())
	}
	return b, nil
}

// fakeUserRepo is an in-memory user.Repository.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*userDomain.User
	deleted []uuid.UUID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	delete(r.users, id)
	return nil
}

// fakeHistoryRepo is an in-memory history.Repository.
type fakeHistoryRepo struct {
	mu          sync.Mutex
	punchRecs   []*historyDomain.PunchRecord
	redeemRecs  []*historyDomain.RedemptionRecord
	savePunch   error
	saveRedeem  error
	deleteUsers []uuid.UUID
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) SavePunch(_ context.Context, rec *historyDomain.PunchRecord) error {
	if r.savePunch != nil {
		return r.savePunch
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.punchRecs = append(r.punchRecs, rec)
	return nil
}

func (r *fakeHistoryRepo) SaveRedemption(_ context.Context, rec *historyDomain.RedemptionRecord) error {
	if r.saveRedeem != nil {
		return r.saveRedeem
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redeemRecs = append(r.redeemRecs, rec)
	return nil
}

func (r *fakeHistoryRepo) StatsByBusiness(_ context.Context, businessID uuid.UUID) (*historyDomain.BusinessStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &historyDomain.BusinessStats{}
	customers := make(map[uuid.UUID]struct{})
	for _, rec := range r.punchRecs {
		if rec.BusinessID == businessID {
			stats.TotalPunches++
			customers[rec.UserID] = struct{}{}
		}
	}
	for _, rec := range r.redeemRecs {
		if rec.BusinessID == businessID {
			stats.TotalRedemptions++
		}
	}
	stats.TotalCustomers = int64(len(customers))
	return stats, nil
}

func (r *fakeHistoryRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteUsers = append(r.deleteUsers, userID)
	return nil
}

func (r *fakeHistoryRepo) redemptionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redeemRecs)
}

// fakePublisher records published CloudEvents.
type fakePublisher struct {
	mu     sync.Mutex
	events []platformkafka.CloudEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event platformkafka.CloudEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []platformkafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platformkafka.CloudEvent(nil), p.events...)
}

//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Transaction manager
// =============================

// MockTxManager runs the callback without a real transaction; the
// in-memory repos below are their own unit of atomicity.
type MockTxManager struct{}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// =============================
// Subscriptions
// =============================

// MockSubscriptionRepo is an in-memory SubscriptionRepository that
// emulates the storage constraints: one active record per (user, scope)
// and one record per external payment id.
type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // by ID

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.ID == s.ID {
			continue
		}
		if s.IsActive && other.IsActive && other.UserID == s.UserID && other.Scope == s.Scope {
			return domain.ErrDuplicateActiveSubscription
		}
		if other.ExternalPaymentID == s.ExternalPaymentID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindActive(ctx context.Context, tx repository.Tx, userID string, scope model.SubscriptionScope) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.IsActive && s.UserID == userID && s.Scope == scope {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindByExternalPaymentID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.ExternalPaymentID == externalPaymentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) DeactivateForScope(ctx context.Context, tx repository.Tx, userID string, scope model.SubscriptionScope, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.IsActive && s.UserID == userID && s.Scope == scope {
			s.IsActive = false
			s.UpdatedAt = now
		}
	}
	return nil
}

func (m *MockSubscriptionRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.IsActive && s.ExpiryDate.Before(now) {
			s.IsActive = false
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepo) CountActiveByTier(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.PlanTier]int)
	for _, s := range m.store {
		if s.IsActive {
			out[s.PlanType]++
		}
	}
	return out, nil
}

// ActiveCount reports how many active records exist for (userID, scope).
func (m *MockSubscriptionRepo) ActiveCount(userID string, scope model.SubscriptionScope) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.IsActive && s.UserID == userID && s.Scope == scope {
			n++
		}
	}
	return n
}

// =============================
// Usage counters
// =============================

type dailyKey struct{ userID, chapterID string }

// MockUsageRepo emulates the conditional-upsert semantics of the Postgres
// repo: check and increment happen under one lock, so concurrent callers
// cannot over-admit.
type MockUsageRepo struct {
	mu      sync.Mutex
	daily   map[dailyKey]*model.DailyCounter
	monthly map[dailyKey]*model.MonthlyCounter
}

func NewMockUsageRepo() *MockUsageRepo {
	return &MockUsageRepo{
		daily:   make(map[dailyKey]*model.DailyCounter),
		monthly: make(map[dailyKey]*model.MonthlyCounter),
	}
}

func (m *MockUsageRepo) ConsumeDailyChat(ctx context.Context, tx repository.Tx, userID, chapterID, dayKey string, limit int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dailyKey{userID, chapterID}
	c, ok := m.daily[k]
	if !ok || c.DayKey != dayKey {
		m.daily[k] = &model.DailyCounter{Count: 1, DayKey: dayKey}
		return 1, true, nil
	}
	if c.Count >= limit {
		return 0, false, nil
	}
	c.Count++
	return c.Count, true, nil
}

func (m *MockUsageRepo) ConsumeMonthlyMCQ(ctx context.Context, tx repository.Tx, userID, chapterID string, year, month, limit int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dailyKey{userID, chapterID}
	c, ok := m.monthly[k]
	if !ok || c.Year != year || c.Month != month {
		m.monthly[k] = &model.MonthlyCounter{Count: 1, Year: year, Month: month}
		return 1, true, nil
	}
	if c.Count >= limit {
		return 0, false, nil
	}
	c.Count++
	return c.Count, true, nil
}

func (m *MockUsageRepo) PeekDailyChat(ctx context.Context, tx repository.Tx, userID, chapterID, dayKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.daily[dailyKey{userID, chapterID}]
	if !ok || c.DayKey != dayKey {
		return 0, nil
	}
	return c.Count, nil
}

func (m *MockUsageRepo) PeekMonthlyMCQ(ctx context.Context, tx repository.Tx, userID, chapterID string, year, month int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.monthly[dailyKey{userID, chapterID}]
	if !ok || c.Year != year || c.Month != month {
		return 0, nil
	}
	return c.Count, nil
}

// =============================
// Progress facts
// =============================

type MockProgressRepo struct {
	mu    sync.Mutex
	paths map[string]*model.LearningPath
	facts map[string]*model.ProgressFacts // key userID + "/" + pathID
}

func NewMockProgressRepo() *MockProgressRepo {
	return &MockProgressRepo{
		paths: make(map[string]*model.LearningPath),
		facts: make(map[string]*model.ProgressFacts),
	}
}

func (m *MockProgressRepo) AddPath(p *model.LearningPath) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[p.ID] = p
}

func (m *MockProgressRepo) SetFacts(f *model.ProgressFacts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts[f.UserID+"/"+f.PathID] = f
}

func (m *MockProgressRepo) FindPath(ctx context.Context, tx repository.Tx, pathID string) (*model.LearningPath, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.paths[pathID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *MockProgressRepo) FindFacts(ctx context.Context, tx repository.Tx, userID, pathID string) (*model.ProgressFacts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[userID+"/"+pathID]
	if !ok {
		return model.NewProgressFacts(userID, pathID), nil
	}
	return f, nil
}

// =============================
// Payment events
// =============================

type MockPaymentEventRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentEvent // by external payment id
}

func NewMockPaymentEventRepo() *MockPaymentEventRepo {
	return &MockPaymentEventRepo{store: make(map[string]*model.PaymentEvent)}
}

func (m *MockPaymentEventRepo) Save(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[e.ExternalPaymentID]; ok {
		return false, nil
	}
	cp := *e
	m.store[e.ExternalPaymentID] = &cp
	return true, nil
}

func (m *MockPaymentEventRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[externalPaymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockPaymentEventRepo) MarkApplied(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.store {
		if e.ID == id {
			e.Applied = true
		}
	}
	return nil
}

func (m *MockPaymentEventRepo) ListUnapplied(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentEvent
	for _, e := range m.store {
		if !e.Applied && !e.ReceivedAt.After(olderThan) {
			cp := *e
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

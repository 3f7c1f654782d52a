//go:build !integration

package web_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Use-case mocks
// =============================

type MockEntitlementGate struct {
	AuthorizeFunc func(ctx context.Context, userID, pathID, chapterID string, action model.ActionKind) (model.Decision, error)
}

func (m *MockEntitlementGate) Authorize(ctx context.Context, userID, pathID, chapterID string, action model.ActionKind) (model.Decision, error) {
	return m.AuthorizeFunc(ctx, userID, pathID, chapterID, action)
}

type MockUnlockResolver struct {
	ModuleAccessFunc  func(ctx context.Context, userID, pathID string, moduleIndex int) (model.ModuleAccess, error)
	ChapterAccessFunc func(ctx context.Context, userID, pathID string, moduleIndex, chapterIndex int) (model.ModuleAccess, error)
}

func (m *MockUnlockResolver) ModuleAccess(ctx context.Context, userID, pathID string, moduleIndex int) (model.ModuleAccess, error) {
	return m.ModuleAccessFunc(ctx, userID, pathID, moduleIndex)
}

func (m *MockUnlockResolver) ChapterAccess(ctx context.Context, userID, pathID string, moduleIndex, chapterIndex int) (model.ModuleAccess, error) {
	return m.ChapterAccessFunc(ctx, userID, pathID, moduleIndex, chapterIndex)
}

type MockUsageLedger struct {
	PeekUsageFunc func(ctx context.Context, userID, chapterID string, now time.Time) (model.UsageSnapshot, error)
}

func (m *MockUsageLedger) CheckAndConsumeDailyChat(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error) {
	return model.QuotaResult{}, nil
}

func (m *MockUsageLedger) CheckAndConsumeMonthlyMCQ(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error) {
	return model.QuotaResult{}, nil
}

func (m *MockUsageLedger) PeekUsage(ctx context.Context, userID, chapterID string, now time.Time) (model.UsageSnapshot, error) {
	return m.PeekUsageFunc(ctx, userID, chapterID, now)
}

type MockPaymentReconciler struct {
	ApplyFunc func(ctx context.Context, ev *model.PaymentEvent) (*model.Subscription, error)
}

func (m *MockPaymentReconciler) ApplyCompletedPayment(ctx context.Context, ev *model.PaymentEvent) (*model.Subscription, error) {
	return m.ApplyFunc(ctx, ev)
}

func (m *MockPaymentReconciler) RepairMismatch(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	return sub, nil
}

func (m *MockPaymentReconciler) ReplayUnapplied(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// =============================
// Redis fake
// =============================

// FakeRedisClient backs the rate limiter with an in-memory counter.
type FakeRedisClient struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewFakeRedisClient() *FakeRedisClient {
	return &FakeRedisClient{counts: make(map[string]int64)}
}

func (f *FakeRedisClient) Ping(ctx context.Context) error { return nil }

func (f *FakeRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (f *FakeRedisClient) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (f *FakeRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *FakeRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func (f *FakeRedisClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.counts, k)
	}
	return nil
}

func (f *FakeRedisClient) Close() error { return nil }

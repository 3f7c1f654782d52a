//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
)

func TestPeriodClock_Keys(t *testing.T) {
	t.Run("day key is date only in the clock's zone", func(t *testing.T) {
		clock := model.NewPeriodClock(time.UTC)
		at := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
		if got := clock.DayKey(at); got != "2026-03-15" {
			t.Fatalf("expected 2026-03-15, got %s", got)
		}
	})

	t.Run("same instant maps to different day keys across zones", func(t *testing.T) {
		tehran, err := time.LoadLocation("Asia/Tehran")
		if err != nil {
			t.Skip("tzdata not available")
		}
		at := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)
		utcKey := model.NewPeriodClock(time.UTC).DayKey(at)
		localKey := model.NewPeriodClock(tehran).DayKey(at)
		if utcKey == localKey {
			t.Fatalf("expected distinct keys, both %s", utcKey)
		}
	})

	t.Run("nil location falls back to UTC", func(t *testing.T) {
		clock := model.NewPeriodClock(nil)
		at := time.Date(2026, 12, 31, 23, 30, 0, 0, time.UTC)
		if got := clock.DayKey(at); got != "2026-12-31" {
			t.Fatalf("expected 2026-12-31, got %s", got)
		}
		year, month := clock.MonthKey(at)
		if year != 2026 || month != 12 {
			t.Fatalf("expected (2026, 12), got (%d, %d)", year, month)
		}
	})
}

func TestTierForAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		wantTier model.PlanTier
		wantErr  error
	}{
		{"premium price point", 199, model.PlanTierPremium, nil},
		{"above premium", 500, model.PlanTierPremium, nil},
		{"basic price point", 99, model.PlanTierBasic, nil},
		{"between price points", 150, model.PlanTierBasic, nil},
		{"below basic", 50, "", domain.ErrUnknownAmount},
		{"zero", 0, "", domain.ErrUnknownAmount},
		{"negative", -10, "", domain.ErrUnknownAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, limits, err := model.TierForAmount(tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tier != tt.wantTier {
				t.Fatalf("expected tier %s, got %s", tt.wantTier, tier)
			}
			want, _ := model.LimitsForTier(tt.wantTier)
			if limits != want {
				t.Fatalf("expected limits %+v, got %+v", want, limits)
			}
		})
	}
}

func TestNewSubscription(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("derives tier and window from amount", func(t *testing.T) {
		sub, err := model.NewSubscription("sub-1", "u1", model.ScopeGlobal, 199, "pay-1", now, 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.PlanType != model.PlanTierPremium {
			t.Fatalf("expected premium, got %s", sub.PlanType)
		}
		if sub.DailyChatLimit != 5 || sub.MonthlyMCQLimit != 5 || sub.MaxLearningPaths != 3 {
			t.Fatalf("unexpected ceilings: %+v", sub.Limits())
		}
		if !sub.IsActive {
			t.Fatal("expected active record")
		}
		if want := now.AddDate(0, 0, 30); !sub.ExpiryDate.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, sub.ExpiryDate)
		}
	})

	t.Run("rejects unknown amount", func(t *testing.T) {
		if _, err := model.NewSubscription("sub-1", "u1", model.ScopeGlobal, 10, "pay-1", now, 30); !errors.Is(err, domain.ErrUnknownAmount) {
			t.Fatalf("expected ErrUnknownAmount, got %v", err)
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		if _, err := model.NewSubscription("", "u1", model.ScopeGlobal, 99, "pay-1", now, 30); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := model.NewSubscription("sub-1", "u1", model.ScopeGlobal, 99, "", now, 30); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("expiry is flag independent", func(t *testing.T) {
		sub, err := model.NewSubscription("sub-1", "u1", model.ScopeGlobal, 99, "pay-1", now, 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.ExpiredAt(now.AddDate(0, 0, 29)) {
			t.Fatal("should not be expired inside the window")
		}
		if !sub.ExpiredAt(now.AddDate(0, 0, 31)) {
			t.Fatal("should be expired past the window")
		}
	})
}

func TestSubscription_RepairFromAmount(t *testing.T) {
	t.Run("diverged label rewritten from amount", func(t *testing.T) {
		sub := &model.Subscription{ID: "sub-1", PlanAmount: 199, PlanType: model.PlanTierBasic,
			DailyChatLimit: 3, MonthlyMCQLimit: 3, MaxLearningPaths: 1}
		changed, err := sub.RepairFromAmount()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !changed {
			t.Fatal("expected a repair")
		}
		if sub.PlanType != model.PlanTierPremium || sub.DailyChatLimit != 5 {
			t.Fatalf("repair produced %s / %+v", sub.PlanType, sub.Limits())
		}
	})

	t.Run("consistent record untouched", func(t *testing.T) {
		sub := &model.Subscription{ID: "sub-1", PlanAmount: 99, PlanType: model.PlanTierBasic,
			DailyChatLimit: 3, MonthlyMCQLimit: 3, MaxLearningPaths: 1}
		changed, err := sub.RepairFromAmount()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if changed {
			t.Fatal("expected no-op")
		}
	})

	t.Run("unknown stored amount is an error", func(t *testing.T) {
		sub := &model.Subscription{ID: "sub-1", PlanAmount: 1}
		if _, err := sub.RepairFromAmount(); !errors.Is(err, domain.ErrUnknownAmount) {
			t.Fatalf("expected ErrUnknownAmount, got %v", err)
		}
	})
}

func TestNewPaymentEvent(t *testing.T) {
	now := time.Now()
	pathID := "path-1"

	t.Run("save purpose requires a path id", func(t *testing.T) {
		if _, err := model.NewPaymentEvent("ev1", "pay-1", "u1", 99, "USD", model.PurposeLearningPathSave, nil, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown purpose rejected", func(t *testing.T) {
		if _, err := model.NewPaymentEvent("ev1", "pay-1", "u1", 99, "USD", "gift_card", nil, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("scope follows purpose", func(t *testing.T) {
		global, err := model.NewPaymentEvent("ev1", "pay-1", "u1", 99, "USD", model.PurposeCareerAccess, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if global.Scope() != model.ScopeGlobal {
			t.Fatalf("expected global scope, got %s", global.Scope())
		}
		scoped, err := model.NewPaymentEvent("ev2", "pay-2", "u1", 99, "USD", model.PurposeLearningPathSave, &pathID, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scoped.Scope() != model.ScopeForPath(pathID) {
			t.Fatalf("expected path scope, got %s", scoped.Scope())
		}
	})
}

func TestLearningPath_Locate(t *testing.T) {
	path := &model.LearningPath{
		ID: "p1",
		Modules: []model.Module{
			{ID: "m0", Chapters: []model.Chapter{{ID: "c0"}, {ID: "c1"}}},
			{ID: "m1", Chapters: []model.Chapter{{ID: "c2"}}},
		},
	}

	mi, ci, ok := path.Locate("c2")
	if !ok || mi != 1 || ci != 0 {
		t.Fatalf("expected (1, 0, true), got (%d, %d, %v)", mi, ci, ok)
	}
	if _, _, ok := path.Locate("missing"); ok {
		t.Fatal("expected not found")
	}
}

func TestPassingScorePredicate(t *testing.T) {
	score := func(n int) *int { return &n }
	mod := model.Module{ID: "m0", Chapters: []model.Chapter{
		{ID: "c0"},
		{ID: "c1", HasAssessment: true},
	}}

	tests := []struct {
		name  string
		facts map[string]model.ChapterProgress
		want  bool
	}{
		{"all complete with passing score", map[string]model.ChapterProgress{
			"c0": {ChapterID: "c0", Completed: true},
			"c1": {ChapterID: "c1", Completed: true, AssessmentScore: score(85)},
		}, true},
		{"assessment below passing score", map[string]model.ChapterProgress{
			"c0": {ChapterID: "c0", Completed: true},
			"c1": {ChapterID: "c1", Completed: true, AssessmentScore: score(60)},
		}, false},
		{"assessment never taken", map[string]model.ChapterProgress{
			"c0": {ChapterID: "c0", Completed: true},
			"c1": {ChapterID: "c1", Completed: true},
		}, false},
		{"chapter incomplete", map[string]model.ChapterProgress{
			"c1": {ChapterID: "c1", Completed: true, AssessmentScore: score(100)},
		}, false},
		{"no facts at all", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := model.NewProgressFacts("u1", "p1")
			for k, v := range tt.facts {
				facts.Chapters[k] = v
			}
			pred := model.PassingScorePredicate(70)
			if got := pred(mod, facts); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

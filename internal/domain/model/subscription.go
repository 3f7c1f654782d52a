package model

import (
	"time"

	"learning-entitlement/internal/domain"
)

// SubscriptionScope is either the literal "global" or a learning-path id.
// A global scope and a path scope coexist independently for the same user.
type SubscriptionScope string

const ScopeGlobal SubscriptionScope = "global"

func ScopeForPath(pathID string) SubscriptionScope { return SubscriptionScope(pathID) }

func (s SubscriptionScope) IsGlobal() bool { return s == ScopeGlobal }

// Subscription is the authoritative entitlement record for a (user, scope)
// pair. At most one active record exists per pair at any instant; records
// are deactivated, never deleted.
type Subscription struct {
	ID         string // UUID
	UserID     string
	PlanType   PlanTier
	PlanAmount int64 // amount actually paid; source of truth for PlanType
	Scope      SubscriptionScope

	DailyChatLimit     int
	MonthlyMCQLimit    int
	MaxLearningPaths   int
	LearningPathsSaved int

	StartDate  time.Time
	ExpiryDate time.Time
	IsActive   bool

	ExternalPaymentID string // provider id of the payment that created this record

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSubscription derives tier and ceilings from the paid amount and builds
// an active record covering [now, now+durationDays).
func NewSubscription(id, userID string, scope SubscriptionScope, amount int64, externalPaymentID string, now time.Time, durationDays int) (*Subscription, error) {
	if id == "" || userID == "" || scope == "" || externalPaymentID == "" || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	tier, limits, err := TierForAmount(amount)
	if err != nil {
		return nil, err
	}
	return &Subscription{
		ID:                id,
		UserID:            userID,
		PlanType:          tier,
		PlanAmount:        amount,
		Scope:             scope,
		DailyChatLimit:    limits.DailyChat,
		MonthlyMCQLimit:   limits.MonthlyMCQ,
		MaxLearningPaths:  limits.MaxLearningPaths,
		StartDate:         now,
		ExpiryDate:        now.AddDate(0, 0, durationDays),
		IsActive:          true,
		ExternalPaymentID: externalPaymentID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (s *Subscription) IsZero() bool { return s == nil || s.ID == "" }

// ExpiredAt reports whether the validity window has passed, independent of
// the IsActive flag (the expiry sweep may not have run yet).
func (s *Subscription) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiryDate)
}

// Limits returns the ceilings currently recorded on the subscription.
func (s *Subscription) Limits() PlanLimits {
	return PlanLimits{
		DailyChat:        s.DailyChatLimit,
		MonthlyMCQ:       s.MonthlyMCQLimit,
		MaxLearningPaths: s.MaxLearningPaths,
	}
}

// RepairFromAmount overwrites the tier label and ceilings to match the paid
// amount. Returns true when anything changed. The amount is authoritative;
// a diverging label is a stored defect, not a pricing signal.
func (s *Subscription) RepairFromAmount() (bool, error) {
	tier, limits, err := TierForAmount(s.PlanAmount)
	if err != nil {
		return false, err
	}
	if s.PlanType == tier &&
		s.DailyChatLimit == limits.DailyChat &&
		s.MonthlyMCQLimit == limits.MonthlyMCQ &&
		s.MaxLearningPaths == limits.MaxLearningPaths {
		return false, nil
	}
	s.PlanType = tier
	s.DailyChatLimit = limits.DailyChat
	s.MonthlyMCQLimit = limits.MonthlyMCQ
	s.MaxLearningPaths = limits.MaxLearningPaths
	return true, nil
}

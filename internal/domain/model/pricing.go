package model

import "learning-entitlement/internal/domain"

type PlanTier string

const (
	PlanTierBasic   PlanTier = "basic"
	PlanTierPremium PlanTier = "premium"
)

// Fixed price points. The paid amount is the single source of truth for
// the tier; the stored tier label is derived, never authoritative.
const (
	PriceBasic   int64 = 99
	PricePremium int64 = 199
)

// PlanLimits are the quota ceilings attached to a tier. Ceilings, not
// counters: consumption lives in the usage ledger.
type PlanLimits struct {
	DailyChat        int
	MonthlyMCQ       int
	MaxLearningPaths int
}

var tierLimits = map[PlanTier]PlanLimits{
	PlanTierBasic:   {DailyChat: 3, MonthlyMCQ: 3, MaxLearningPaths: 1},
	PlanTierPremium: {DailyChat: 5, MonthlyMCQ: 5, MaxLearningPaths: 3},
}

// TierForAmount maps a paid amount to its canonical tier and ceilings.
// Amounts below the basic price point (including zero and negatives) are
// rejected: reconciliation must never default to a tier.
func TierForAmount(amount int64) (PlanTier, PlanLimits, error) {
	switch {
	case amount >= PricePremium:
		return PlanTierPremium, tierLimits[PlanTierPremium], nil
	case amount >= PriceBasic:
		return PlanTierBasic, tierLimits[PlanTierBasic], nil
	default:
		return "", PlanLimits{}, domain.ErrUnknownAmount
	}
}

// LimitsForTier returns the canonical ceilings for a tier.
func LimitsForTier(tier PlanTier) (PlanLimits, bool) {
	l, ok := tierLimits[tier]
	return l, ok
}

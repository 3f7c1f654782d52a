package model

// ActionKind selects which quota a consumption request draws from.
type ActionKind string

const (
	ActionDailyChat  ActionKind = "daily_chat"
	ActionMonthlyMCQ ActionKind = "monthly_mcq"
)

func (a ActionKind) Valid() bool {
	return a == ActionDailyChat || a == ActionMonthlyMCQ
}

// Deny reasons. Denials are first-class outcomes, not errors.
const (
	ReasonNoActiveSubscription      = "no active subscription"
	ReasonQuotaExhausted            = "quota exhausted"
	ReasonIndexOutOfRange           = "index out of range"
	ReasonPreviousModuleIncomplete  = "previous module incomplete"
	ReasonPreviousChapterIncomplete = "previous chapter incomplete"
	ReasonModuleLocked              = "module locked"
	ReasonPathNotFound              = "learning path not found"
	ReasonPathEmpty                 = "learning path has no modules"
	ReasonChapterNotInPath          = "chapter not in learning path"
)

// Decision is the structured outcome of an entitlement check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

func Allow(remaining int) Decision { return Decision{Allowed: true, Remaining: remaining} }
func Deny(reason string) Decision  { return Decision{Allowed: false, Remaining: 0, Reason: reason} }

// ModuleAccess describes the lock state of one module (or chapter) for a
// learner. UnlockedCount is the length of the unlocked prefix.
type ModuleAccess struct {
	HasAccess     bool   `json:"has_access"`
	IsLocked      bool   `json:"is_locked"`
	UnlockedCount int    `json:"unlocked_count"`
	Reason        string `json:"reason,omitempty"`
}

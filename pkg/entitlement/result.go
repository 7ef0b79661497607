package entitlement

import (
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/pkg/usage"
)

// Result is the outcome of an entitlement check.
// Remaining and Limit encode as a number or "unlimited".
type Result struct {
	Allowed   bool          `json:"allowed"`
	Remaining plans.Quota   `json:"remaining"`
	Limit     plans.Quota   `json:"limit"`
	Used      int64         `json:"used"`
	Feature   plans.Feature `json:"feature"`
	PlanID    plans.ID      `json:"plan_id"`
	Period    usage.Period  `json:"period"`
	Fallback  bool          `json:"fallback,omitempty"`
}

// FeatureUsage is one row of a usage summary.
type FeatureUsage struct {
	Used      int64       `json:"used"`
	Limit     plans.Quota `json:"limit"`
	Remaining plans.Quota `json:"remaining"`
	Included  bool        `json:"included"`
}

// Summary is a user's consumption of every feature in the current period.
type Summary struct {
	UserID   string                         `json:"user_id"`
	PlanID   plans.ID                       `json:"plan_id"`
	Status   subscription.Status            `json:"status"`
	Period   usage.Period                   `json:"period"`
	Fallback bool                           `json:"fallback,omitempty"`
	Features map[plans.Feature]FeatureUsage `json:"features"`
}

package plans

import (
	"maps"
	"slices"
	"time"
)

// Plan describes a subscription plan and its per-feature usage limits.
// Plans are configuration: built once at startup and never mutated.
type Plan struct {
	ID          ID                `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Price       Money             `json:"price" yaml:"price"`
	Interval    BillingInterval   `json:"interval" yaml:"interval"`
	TrialDays   int               `json:"trial_days" yaml:"trial_days"`
	Features    []Feature         `json:"features" yaml:"features"`
	Limits      map[Feature]Quota `json:"limits" yaml:"limits"`
}

// HasFeature reports whether the plan includes the feature at all.
func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// Limit returns the per-period quota for a feature.
// Features without a limit entry are not part of the plan and get Limit(0).
func (p Plan) Limit(f Feature) Quota {
	if q, ok := p.Limits[f]; ok {
		return q
	}
	return Limit(0)
}

// TrialEndsAt returns when a trial started at startedAt ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

func (p Plan) clone() Plan {
	p.Features = slices.Clone(p.Features)
	p.Limits = maps.Clone(p.Limits)
	return p
}

// PlanComparison contains the differences between two plans.
// Used by upgrade/downgrade screens to communicate what changes.
type PlanComparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[Feature]QuotaChange
	DecreasedLimits map[Feature]QuotaChange
}

// QuotaChange represents a change in a feature limit.
type QuotaChange struct {
	From Quota `json:"from"`
	To   Quota `json:"to"`
}

// HasDecreases returns true if the target plan is more restrictive for any feature.
func (c *PlanComparison) HasDecreases() bool {
	return len(c.DecreasedLimits) > 0 || len(c.LostFeatures) > 0
}

// ComparePlans returns the differences between current and target plans.
func ComparePlans(current, target *Plan) *PlanComparison {
	if current == nil || target == nil {
		return nil
	}

	comparison := &PlanComparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Feature]QuotaChange),
		DecreasedLimits: make(map[Feature]QuotaChange),
	}

	for _, f := range target.Features {
		if !current.HasFeature(f) {
			comparison.NewFeatures = append(comparison.NewFeatures, f)
		}
	}
	for _, f := range current.Features {
		if !target.HasFeature(f) {
			comparison.LostFeatures = append(comparison.LostFeatures, f)
		}
	}

	for _, f := range knownFeatures {
		from, to := current.Limit(f), target.Limit(f)
		switch {
		case from.Less(to):
			comparison.IncreasedLimits[f] = QuotaChange{From: from, To: to}
		case to.Less(from):
			// unlimited -> finite lands here as well
			comparison.DecreasedLimits[f] = QuotaChange{From: from, To: to}
		}
	}

	return comparison
}

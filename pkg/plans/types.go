package plans

import (
	"fmt"
	"slices"
)

// ID identifies a subscription plan. The set is closed: adding a plan is a code change.
type ID string

const (
	Free       ID = "free"
	Basic      ID = "basic"
	Pro        ID = "pro"
	Enterprise ID = "enterprise"
)

var knownPlans = []ID{Free, Basic, Pro, Enterprise}

// Valid reports whether id belongs to the closed plan set.
func (id ID) Valid() bool {
	return slices.Contains(knownPlans, id)
}

// ParseID converts a raw plan identifier (e.g. from a webhook or a database row).
func ParseID(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	return id, nil
}

// Feature is a billable action gated by the subscription plan.
type Feature string

const (
	FeatureResumeGeneration Feature = "resume_generation"
	FeatureJobAnalysis      Feature = "job_analysis"
	FeatureTemplates        Feature = "templates"
	FeatureAIAnalysis       Feature = "ai_analysis"
)

var knownFeatures = []Feature{
	FeatureResumeGeneration,
	FeatureJobAnalysis,
	FeatureTemplates,
	FeatureAIAnalysis,
}

// Features returns every gated feature in a stable order.
func Features() []Feature {
	return slices.Clone(knownFeatures)
}

// Valid reports whether f belongs to the closed feature set.
func (f Feature) Valid() bool {
	return slices.Contains(knownFeatures, f)
}

// ParseFeature converts a raw feature key, rejecting anything outside the closed set.
func ParseFeature(s string) (Feature, error) {
	f := Feature(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
	}
	return f, nil
}

// Money represents a monetary amount in the smallest currency unit.
// For example, $9.99 USD is Amount: 999, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// BillingInterval represents the billing frequency of a plan.
type BillingInterval string

const (
	IntervalNone    BillingInterval = "none" // free plans
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

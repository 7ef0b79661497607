package entitlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/pkg/usage"
)

// Subscriptions resolves the subscription and effective terms of a user.
// *subscription.Service implements it.
type Subscriptions interface {
	GetActiveSubscription(ctx context.Context, userID string) (*subscription.Subscription, error)
	Provision(ctx context.Context, userID string) (*subscription.Subscription, error)
	Terms(sub *subscription.Subscription, now time.Time) (subscription.Terms, error)
}

// Ledger records usage. *usage.Ledger implements it.
type Ledger interface {
	GetUsage(ctx context.Context, userID string, feature plans.Feature, period usage.Period) (int64, error)
	IncrementUsage(ctx context.Context, userID string, feature plans.Feature, period usage.Period) (int64, error)
	Reserve(ctx context.Context, userID string, feature plans.Feature, period usage.Period, limit int64) (int64, bool, error)
	Credits(ctx context.Context, userID string, feature plans.Feature, period usage.Period) (int64, error)
	Grant(ctx context.Context, userID string, feature plans.Feature, period usage.Period, units int64, reason string) (usage.Credit, error)
}

// Checker decides whether a user may consume one unit of a feature and
// records the unit when they may.
type Checker struct {
	catalog       *plans.Catalog
	subs          Subscriptions
	ledger        Ledger
	observer      Observer
	log           *slog.Logger
	now           func() time.Time
	autoProvision bool
}

// NewChecker creates a Checker. Panics if any dependency is nil.
func NewChecker(catalog *plans.Catalog, subs Subscriptions, ledger Ledger, opts ...Option) *Checker {
	if catalog == nil || subs == nil || ledger == nil {
		panic("entitlement: catalog, subscriptions and ledger are required")
	}

	c := &Checker{
		catalog:  catalog,
		subs:     subs,
		ledger:   ledger,
		observer: nopObserver{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAndReserve checks the user's quota for feature and, if there is room,
// records one unit in the same atomic step. A denial is a Result with
// Allowed=false, not an error, and leaves usage untouched. Errors (unknown
// plan, missing subscription, storage failures) also leave usage untouched.
func (c *Checker) CheckAndReserve(ctx context.Context, userID string, feature plans.Feature) (*Result, error) {
	res, err := c.checkAndReserve(ctx, userID, feature)
	if err != nil {
		c.observer.ObserveError(ctx, feature, err)
		c.log.ErrorContext(ctx, "entitlement check failed",
			logger.UserID(userID),
			logger.Feature(feature),
			logger.Error(err),
		)
		return nil, err
	}

	c.observer.ObserveDecision(ctx, res)
	c.log.DebugContext(ctx, "entitlement decision",
		logger.UserID(userID),
		logger.Feature(feature),
		logger.PlanID(res.PlanID),
		slog.Bool("allowed", res.Allowed),
		slog.Int64("used", res.Used),
		slog.String("remaining", res.Remaining.String()),
	)
	return res, nil
}

func (c *Checker) checkAndReserve(ctx context.Context, userID string, feature plans.Feature) (*Result, error) {
	terms, limit, err := c.resolve(ctx, userID, feature)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Feature:  feature,
		PlanID:   terms.PlanID,
		Period:   terms.Period,
		Fallback: terms.Fallback,
	}

	if limit.IsUnlimited() {
		// Unlimited plans are still counted for analytics.
		count, err := c.ledger.IncrementUsage(ctx, userID, feature, terms.Period)
		if err != nil {
			return nil, err
		}
		res.Allowed = true
		res.Used = count
		res.Limit = plans.Unlimited
		res.Remaining = plans.Unlimited
		return res, nil
	}

	effective, err := c.effectiveLimit(ctx, userID, feature, terms.Period, limit)
	if err != nil {
		return nil, err
	}

	count, ok, err := c.ledger.Reserve(ctx, userID, feature, terms.Period, effective)
	if err != nil {
		return nil, err
	}

	res.Allowed = ok
	res.Used = count
	res.Limit = plans.Limit(effective)
	res.Remaining = plans.Limit(effective - count)
	if !ok {
		res.Remaining = plans.Limit(0)
	}
	return res, nil
}

// Check previews the quota for feature without reserving anything.
func (c *Checker) Check(ctx context.Context, userID string, feature plans.Feature) (*Result, error) {
	terms, limit, err := c.resolve(ctx, userID, feature)
	if err != nil {
		return nil, err
	}
	return c.preview(ctx, userID, feature, terms, limit)
}

// Summary reports the usage of every feature in the user's current period.
func (c *Checker) Summary(ctx context.Context, userID string) (*Summary, error) {
	sub, terms, err := c.terms(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := c.catalog.GetPlan(terms.PlanID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		UserID:   userID,
		PlanID:   terms.PlanID,
		Status:   sub.Status,
		Period:   terms.Period,
		Fallback: terms.Fallback,
		Features: make(map[plans.Feature]FeatureUsage, len(plans.Features())),
	}
	for _, feature := range plans.Features() {
		res, err := c.preview(ctx, userID, feature, terms, plan.Limit(feature))
		if err != nil {
			return nil, err
		}
		summary.Features[feature] = FeatureUsage{
			Used:      res.Used,
			Limit:     res.Limit,
			Remaining: res.Remaining,
			Included:  plan.HasFeature(feature),
		}
	}
	return summary, nil
}

func (c *Checker) preview(ctx context.Context, userID string, feature plans.Feature, terms subscription.Terms, limit plans.Quota) (*Result, error) {
	used, err := c.ledger.GetUsage(ctx, userID, feature, terms.Period)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Used:     used,
		Feature:  feature,
		PlanID:   terms.PlanID,
		Period:   terms.Period,
		Fallback: terms.Fallback,
	}
	if limit.IsUnlimited() {
		res.Allowed = true
		res.Limit = plans.Unlimited
		res.Remaining = plans.Unlimited
		return res, nil
	}

	effective, err := c.effectiveLimit(ctx, userID, feature, terms.Period, limit)
	if err != nil {
		return nil, err
	}
	res.Allowed = used < effective
	res.Limit = plans.Limit(effective)
	res.Remaining = plans.Limit(effective - used)
	return res, nil
}

// Refund grants units of feature back to the user in the current period,
// typically after the gated action failed downstream.
func (c *Checker) Refund(ctx context.Context, userID string, feature plans.Feature, units int64, reason string) (usage.Credit, error) {
	if !feature.Valid() {
		return usage.Credit{}, fmt.Errorf("%w: %q", plans.ErrUnknownFeature, feature)
	}

	_, terms, err := c.terms(ctx, userID)
	if err != nil {
		return usage.Credit{}, err
	}
	return c.ledger.Grant(ctx, userID, feature, terms.Period, units, reason)
}

// resolve returns the governing terms and the plan limit for feature.
func (c *Checker) resolve(ctx context.Context, userID string, feature plans.Feature) (subscription.Terms, plans.Quota, error) {
	if !feature.Valid() {
		return subscription.Terms{}, plans.Quota{}, fmt.Errorf("%w: %q", plans.ErrUnknownFeature, feature)
	}

	_, terms, err := c.terms(ctx, userID)
	if err != nil {
		return subscription.Terms{}, plans.Quota{}, err
	}

	limit, err := c.catalog.GetLimit(terms.PlanID, feature)
	if err != nil {
		return subscription.Terms{}, plans.Quota{}, err
	}
	return terms, limit, nil
}

func (c *Checker) terms(ctx context.Context, userID string) (*subscription.Subscription, subscription.Terms, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, subscription.Terms{}, ErrMissingUserID
	}

	sub, err := c.subs.GetActiveSubscription(ctx, userID)
	if errors.Is(err, subscription.ErrNoSubscription) && c.autoProvision {
		sub, err = c.subs.Provision(ctx, userID)
	}
	if err != nil {
		return nil, subscription.Terms{}, err
	}

	terms, err := c.subs.Terms(sub, c.now())
	if err != nil {
		return nil, subscription.Terms{}, err
	}
	return sub, terms, nil
}

func (c *Checker) effectiveLimit(ctx context.Context, userID string, feature plans.Feature, period usage.Period, limit plans.Quota) (int64, error) {
	credits, err := c.ledger.Credits(ctx, userID, feature, period)
	if err != nil {
		return 0, err
	}
	if credits > math.MaxInt64-limit.Int64() {
		return math.MaxInt64, nil
	}
	return limit.Int64() + credits, nil
}

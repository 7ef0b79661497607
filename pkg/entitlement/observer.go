package entitlement

import (
	"context"

	"github.com/jobbyai/planguard/pkg/plans"
)

// Observer receives every reservation outcome, e.g. to export metrics.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveDecision(ctx context.Context, result *Result)
	ObserveError(ctx context.Context, feature plans.Feature, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(context.Context, *Result)           {}
func (nopObserver) ObserveError(context.Context, plans.Feature, error) {}

package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jobbyai/planguard/pkg/entitlement"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/pkg/usage"
)

const namespace = "planguard"

// Decision outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// Entitlement counts entitlement decisions. It implements entitlement.Observer.
type Entitlement struct {
	decisions *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

var _ entitlement.Observer = (*Entitlement)(nil)

// NewEntitlement registers the entitlement collectors on registry.
func NewEntitlement(registry prometheus.Registerer) *Entitlement {
	factory := promauto.With(registry)

	return &Entitlement{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entitlement_decisions_total",
				Help:      "Entitlement decisions by feature, plan and outcome",
			},
			[]string{"feature", "plan", "outcome"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entitlement_fallback_total",
				Help:      "Decisions made under FREE fallback terms",
			},
			[]string{"feature"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entitlement_errors_total",
				Help:      "Entitlement checks that failed by feature and reason",
			},
			[]string{"feature", "reason"},
		),
	}
}

// ObserveDecision implements entitlement.Observer.
func (m *Entitlement) ObserveDecision(_ context.Context, res *entitlement.Result) {
	if res == nil {
		return
	}
	outcome := OutcomeDenied
	if res.Allowed {
		outcome = OutcomeAllowed
	}
	m.decisions.WithLabelValues(string(res.Feature), string(res.PlanID), outcome).Inc()
	if res.Fallback {
		m.fallbacks.WithLabelValues(string(res.Feature)).Inc()
	}
}

// ObserveError implements entitlement.Observer.
func (m *Entitlement) ObserveError(_ context.Context, feature plans.Feature, err error) {
	m.errors.WithLabelValues(string(feature), ErrorReason(err)).Inc()
}

// ErrorReason maps an entitlement error to a low-cardinality label.
func ErrorReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, subscription.ErrNoSubscription):
		return "no_subscription"
	case errors.Is(err, plans.ErrUnknownPlan):
		return "unknown_plan"
	case errors.Is(err, plans.ErrUnknownFeature):
		return "unknown_feature"
	case errors.Is(err, usage.ErrStorage), errors.Is(err, subscription.ErrStorage):
		return "storage"
	case errors.Is(err, usage.ErrWriteConflict), errors.Is(err, subscription.ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

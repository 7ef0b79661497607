package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/usage"
)

const (
	DefaultBillingCycle = 30 * 24 * time.Hour
	DefaultGracePeriod  = 72 * time.Hour
	DefaultTrialLength  = 14 * 24 * time.Hour
)

// Service records subscription state and answers which plan and period govern a user.
type Service struct {
	catalog     *plans.Catalog
	store       Store
	provider    BillingProvider
	log         *slog.Logger
	now         func() time.Time
	cycle       time.Duration
	grace       time.Duration
	trialLength time.Duration
}

// NewService creates a Service. Panics if catalog or store is nil to fail fast during initialization.
func NewService(catalog *plans.Catalog, store Store, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}

	s := &Service{
		catalog:     catalog,
		store:       store,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		cycle:       DefaultBillingCycle,
		grace:       DefaultGracePeriod,
		trialLength: DefaultTrialLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BillingCycle returns the configured billing period length.
func (s *Service) BillingCycle() time.Duration {
	return s.cycle
}

// GetActiveSubscription returns the current version of the user's subscription.
func (s *Service) GetActiveSubscription(ctx context.Context, userID string) (*Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	return s.store.Current(ctx, userID)
}

// History returns every recorded version of the user's subscription, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	return s.store.History(ctx, userID)
}

// Provision creates the default FREE subscription for a user without one.
// The trial length comes from the FREE plan, else from WithTrialLength.
// Calling it for a user that already has a subscription returns that subscription.
func (s *Service) Provision(ctx context.Context, userID string) (*Subscription, error) {
	cur, err := s.GetActiveSubscription(ctx, userID)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, ErrNoSubscription) {
		return nil, err
	}

	free, err := s.catalog.GetPlan(plans.Free)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	trial := s.trialLength
	if free.TrialDays > 0 {
		trial = free.TrialEndsAt(now).Sub(now)
	}

	sub := Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Version:   1,
		PlanID:    plans.Free,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if trial > 0 {
		end := now.Add(trial)
		sub.Status = StatusTrialing
		sub.TrialEnd = &end
		sub.CurrentPeriodEnd = end
	} else {
		sub.Status = StatusActive
		sub.CurrentPeriodEnd = now.Add(s.cycle)
	}

	if err := s.store.Append(ctx, sub); err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			// Another request provisioned first.
			return s.store.Current(ctx, userID)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription provisioned",
		logger.UserID(userID),
		logger.PlanID(sub.PlanID),
		logger.Status(sub.Status),
	)
	return &sub, nil
}

// GetCurrentPeriod returns the billing period of sub at now using the configured cycle.
func (s *Service) GetCurrentPeriod(sub *Subscription, now time.Time) (usage.Period, error) {
	return GetCurrentPeriod(sub, now, s.cycle)
}

// Terms returns the plan and period that govern sub at now, with FREE fallback.
func (s *Service) Terms(sub *Subscription, now time.Time) (Terms, error) {
	return ResolveTerms(sub, now, s.cycle, s.grace)
}

// Apply records a lifecycle event for the user by appending a new version.
// A concurrent writer makes it fail with ErrConcurrentUpdate.
func (s *Service) Apply(ctx context.Context, userID string, ev Event) (*Subscription, error) {
	cur, err := s.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cur, ev)
}

func (s *Service) apply(ctx context.Context, cur *Subscription, ev Event) (*Subscription, error) {
	if ev.PlanID != "" {
		if _, err := s.catalog.GetPlan(ev.PlanID); err != nil {
			return nil, err
		}
	}

	next, err := Transition(ctx, *cur, ev, s.clock(), s.cycle)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, next); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription transition recorded",
		logger.UserID(cur.UserID),
		logger.Event(ev.Type),
		slog.String("from", string(cur.Status)),
		slog.String("to", string(next.Status)),
		logger.PlanID(next.PlanID),
		slog.Int("version", next.Version),
	)
	return &next, nil
}

// HandleWebhook verifies a billing provider notification and records the
// lifecycle event it implies. Notifications that change nothing are acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrNoBillingProvider
	}

	wh, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	if wh.Kind == WebhookIgnored {
		s.log.DebugContext(ctx, "billing webhook ignored", slog.String("provider_event", wh.ProviderEvent))
		return nil
	}

	userID := wh.UserID
	if userID == "" {
		userID, err = s.store.UserByProviderSubID(ctx, wh.ProviderSubID)
		if err != nil {
			return fmt.Errorf("%w: cannot resolve user for %s: %w", ErrInvalidWebhookPayload, wh.ProviderEvent, err)
		}
	}

	cur, err := s.Provision(ctx, userID)
	if err != nil {
		return err
	}

	ev, ok := DeriveEvent(cur, wh)
	if !ok {
		s.log.DebugContext(ctx, "billing webhook changes nothing",
			logger.UserID(userID),
			slog.String("provider_event", wh.ProviderEvent),
			logger.Status(cur.Status),
		)
		return nil
	}

	_, err = s.apply(ctx, cur, ev)
	return err
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

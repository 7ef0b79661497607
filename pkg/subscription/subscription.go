package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/plans"
)

// Subscription is one version of a user's subscription.
// Rows are append-only: every lifecycle change writes Version+1 and the highest
// version is the current state.
type Subscription struct {
	ID               uuid.UUID  `json:"id"`
	UserID           string     `json:"user_id"`
	Version          int        `json:"version"`
	PlanID           plans.ID   `json:"plan_id"`
	Status           Status     `json:"status"`
	ProviderSubID    string     `json:"provider_subscription_id,omitempty"`
	TrialEnd         *time.Time `json:"trial_end,omitempty"`
	CurrentPeriodEnd time.Time  `json:"current_period_end"`
	PastDueSince     *time.Time `json:"past_due_since,omitempty"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

// IsActive returns true if the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCanceled returns true if the subscription is canceled.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsTrialExpiredAt reports whether a trialing subscription has reached its trial end.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	return s.IsTrialing() && s.TrialEnd != nil && !now.Before(*s.TrialEnd)
}

// TrialDaysRemainingAt returns the number of days remaining in the trial at a given time.
// Returns 0 if not in trial or trial has expired.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return 0
	}

	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}

	// Round up partial days to be user-friendly
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// Validate checks the record invariants enforced by the stores.
func (s *Subscription) Validate() error {
	switch {
	case s.UserID == "":
		return ErrMissingUserID
	case s.Version < 1:
		return fmt.Errorf("%w: version %d", ErrInvalidSubscription, s.Version)
	case !s.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidSubscription, s.Status)
	case s.PlanID == "":
		return fmt.Errorf("%w: empty plan id", ErrInvalidSubscription)
	case s.IsTrialing() && (s.TrialEnd == nil || !s.TrialEnd.After(s.CreatedAt)):
		return fmt.Errorf("%w: trialing requires trial end after creation", ErrInvalidSubscription)
	}
	return nil
}

// next returns a copy prepared to become the following version.
func (s Subscription) next(now time.Time) Subscription {
	n := s.clone()
	n.ID = uuid.New()
	n.Version = s.Version + 1
	n.UpdatedAt = now
	return n
}

func (s Subscription) clone() Subscription {
	s.TrialEnd = copyTime(s.TrialEnd)
	s.PastDueSince = copyTime(s.PastDueSince)
	s.CanceledAt = copyTime(s.CanceledAt)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

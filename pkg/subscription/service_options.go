package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithBillingCycle sets the length of one billing period. Default 30 days.
func WithBillingCycle(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.cycle = d
		}
	}
}

// WithGracePeriod sets how long a past-due subscription keeps its paid plan. Default 3 days.
func WithGracePeriod(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithTrialLength sets the trial granted on provisioning when the FREE plan
// defines no trial days. Zero provisions an active subscription.
func WithTrialLength(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.trialLength = d
		}
	}
}

// WithProvider sets the billing provider used by HandleWebhook.
func WithProvider(p BillingProvider) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

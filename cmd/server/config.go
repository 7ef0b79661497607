package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jobbyai/planguard/pkg/httpserver"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/svc/gate"
)

// Storage backends for the usage ledger and the subscription store.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

type appConfig struct {
	Env                 string        `env:"APP_ENV" envDefault:"development"`
	LedgerBackend       string        `env:"LEDGER_BACKEND" envDefault:"memory"`
	SubscriptionBackend string        `env:"SUBSCRIPTION_BACKEND" envDefault:"memory"`
	PlansFile           string        `env:"PLANS_FILE"`
	AutoProvision       bool          `env:"AUTO_PROVISION" envDefault:"true"`
	BillingCycle        time.Duration `env:"BILLING_CYCLE" envDefault:"720h"`
	PastDueGrace        time.Duration `env:"PAST_DUE_GRACE" envDefault:"72h"`
	TrialLength         time.Duration `env:"TRIAL_LENGTH" envDefault:"336h"`

	HTTP   httpserver.Config
	Gate   gate.Config
	Paddle subscription.PaddleConfig
}

func (c appConfig) Validate() error {
	var errs []error
	switch c.LedgerBackend {
	case backendMemory, backendPostgres, backendRedis:
	default:
		errs = append(errs, fmt.Errorf("LEDGER_BACKEND must be memory, postgres or redis, got %q", c.LedgerBackend))
	}
	switch c.SubscriptionBackend {
	case backendMemory, backendPostgres:
	default:
		errs = append(errs, fmt.Errorf("SUBSCRIPTION_BACKEND must be memory or postgres, got %q", c.SubscriptionBackend))
	}
	if c.BillingCycle <= 0 {
		errs = append(errs, errors.New("BILLING_CYCLE must be positive"))
	}
	if c.PastDueGrace < 0 {
		errs = append(errs, errors.New("PAST_DUE_GRACE must not be negative"))
	}
	if c.TrialLength < 0 {
		errs = append(errs, errors.New("TRIAL_LENGTH must not be negative"))
	}
	return errors.Join(errs...)
}

func (c appConfig) needsPostgres() bool {
	return c.LedgerBackend == backendPostgres || c.SubscriptionBackend == backendPostgres
}

func (c appConfig) billingEnabled() bool {
	return c.Paddle.WebhookSecret != ""
}

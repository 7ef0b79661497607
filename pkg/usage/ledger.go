package usage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/plans"
)

// MaxCreditUnits bounds a single grant.
const MaxCreditUnits int64 = 1_000_000

// Ledger is the usage counter façade consumed by the entitlement checker.
// It validates keys, delegates to a Store and retries write conflicts once.
type Ledger struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for retry and failure diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock overrides the time source used to stamp credits.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates a Ledger on top of store. Panics if store is nil.
func NewLedger(store Store, opts ...Option) *Ledger {
	if store == nil {
		panic("usage: store cannot be nil")
	}
	l := &Ledger{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetUsage returns the recorded count for the key, 0 when no record exists.
func (l *Ledger) GetUsage(ctx context.Context, userID string, feature plans.Feature, period Period) (int64, error) {
	key, err := NewKey(userID, feature, period)
	if err != nil {
		return 0, err
	}
	return l.store.Get(ctx, key)
}

// IncrementUsage creates the record with count 1 or increments it by 1.
// The returned count is the durably applied value.
func (l *Ledger) IncrementUsage(ctx context.Context, userID string, feature plans.Feature, period Period) (int64, error) {
	key, err := NewKey(userID, feature, period)
	if err != nil {
		return 0, err
	}

	var count int64
	err = l.withRetry(ctx, "increment", key, func() error {
		var err error
		count, err = l.store.Increment(ctx, key)
		return err
	})
	return count, err
}

// Reserve atomically increments the record only if its count is below limit.
// A denied reservation leaves the record untouched and reports the current count.
func (l *Ledger) Reserve(ctx context.Context, userID string, feature plans.Feature, period Period, limit int64) (int64, bool, error) {
	key, err := NewKey(userID, feature, period)
	if err != nil {
		return 0, false, err
	}

	var (
		count int64
		ok    bool
	)
	err = l.withRetry(ctx, "reserve", key, func() error {
		var err error
		count, ok, err = l.store.IncrementIfBelow(ctx, key, limit)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return count, ok, nil
}

// Credits returns the compensating units granted for the key.
func (l *Ledger) Credits(ctx context.Context, userID string, feature plans.Feature, period Period) (int64, error) {
	key, err := NewKey(userID, feature, period)
	if err != nil {
		return 0, err
	}
	return l.store.Credits(ctx, key)
}

// Grant appends a credit of units for the key. Counts are never rewritten;
// credits raise the effective allowance of the period instead.
func (l *Ledger) Grant(ctx context.Context, userID string, feature plans.Feature, period Period, units int64, reason string) (Credit, error) {
	key, err := NewKey(userID, feature, period)
	if err != nil {
		return Credit{}, err
	}
	if units <= 0 {
		return Credit{}, fmt.Errorf("%w: units must be positive, got %d", ErrInvalidCredit, units)
	}
	if units > MaxCreditUnits {
		return Credit{}, fmt.Errorf("%w: units exceed %d, got %d", ErrInvalidCredit, MaxCreditUnits, units)
	}

	credit := Credit{
		ID:        uuid.New(),
		Key:       key,
		Units:     units,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: l.now().UTC(),
	}
	if err := l.withRetry(ctx, "grant", key, func() error {
		return l.store.AddCredit(ctx, credit)
	}); err != nil {
		return Credit{}, err
	}

	l.log.InfoContext(ctx, "usage credit granted",
		logger.UserID(key.UserID),
		logger.Feature(key.Feature),
		slog.Int64("units", units),
		slog.String("reason", credit.Reason),
	)
	return credit, nil
}

// History returns all period records of a user's feature, newest period first.
func (l *Ledger) History(ctx context.Context, userID string, feature plans.Feature) ([]Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidKey)
	}
	if !feature.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidKey, plans.ErrUnknownFeature, feature)
	}
	return l.store.History(ctx, userID, feature)
}

// withRetry runs fn and repeats it exactly once if it lost a write race.
func (l *Ledger) withRetry(ctx context.Context, op string, key Key, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, ErrWriteConflict) {
		return err
	}

	l.log.WarnContext(ctx, "usage write conflict, retrying",
		slog.String("op", op),
		logger.UserID(key.UserID),
		logger.Feature(key.Feature),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(err, ctxErr)
	}

	if err := fn(); err != nil {
		l.log.ErrorContext(ctx, "usage write failed after retry",
			slog.String("op", op),
			logger.UserID(key.UserID),
			logger.Feature(key.Feature),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// addCapped adds non-negative counts, saturating at math.MaxInt64.
func addCapped(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

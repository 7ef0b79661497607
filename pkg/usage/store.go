package usage

import (
	"context"

	"github.com/jobbyai/planguard/pkg/plans"
)

// Store is a storage engine for usage counters.
// Implementations receive keys already validated by the Ledger.
type Store interface {
	// Get returns the count for key, or 0 if no record exists.
	Get(ctx context.Context, key Key) (int64, error)

	// Increment creates or increments the record and returns the durably applied count.
	Increment(ctx context.Context, key Key) (int64, error)

	// IncrementIfBelow atomically increments the record only if its count is below limit.
	// It returns the new count and true on success, or the unchanged count and false.
	// Must be a single storage-level operation: no separate read and write.
	IncrementIfBelow(ctx context.Context, key Key, limit int64) (count int64, ok bool, err error)

	// Credits returns the sum of credit units granted for key.
	Credits(ctx context.Context, key Key) (int64, error)

	// AddCredit appends a compensating credit.
	AddCredit(ctx context.Context, credit Credit) error

	// History returns every period record of a user's feature, newest period first.
	History(ctx context.Context, userID string, feature plans.Feature) ([]Record, error)
}

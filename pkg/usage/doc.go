// Package usage records how many units of each billable feature a user has
// consumed in a billing period.
//
// Counters are keyed by (user, feature, period) where a Period is the half-open
// window [Start, End). A record is created on first use and only ever grows; a
// new period starts a fresh record, which is how quotas reset.
//
// The Ledger is the façade used by callers. Its Reserve method performs the
// atomic "increment if below limit" that makes quota enforcement race free:
// with limit N, any number of concurrent reservations yield exactly N successes.
// Corrections are expressed as credits, append-only entries that raise the
// allowance of one period.
//
// Three Store implementations are provided:
//
//	usage.NewMemoryStore()                 // tests, single instance
//	usage.NewPostgresStore(pool)           // INSERT ... ON CONFLICT ... WHERE count < limit
//	usage.NewRedisStore(client, opts...)   // Lua script, optional retention
//
// Basic usage:
//
//	ledger := usage.NewLedger(usage.NewPostgresStore(pool), usage.WithLogger(log))
//	count, ok, err := ledger.Reserve(ctx, userID, plans.FeatureJobAnalysis, period, 3)
//	if err != nil {
//		return err
//	}
//	if !ok {
//		// quota exhausted; count is unchanged
//	}
//
// Write conflicts reported by a store (ErrWriteConflict) are retried once by
// the Ledger and surfaced after that.
package usage

// Package pg bootstraps the PostgreSQL side of the service: a pgx/v5 pool
// with startup retries, embedded goose migrations for the subscriptions,
// usage_records and usage_credits tables, a readiness probe, and helpers
// that classify pgconn errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// IsSerializationFailure is what the usage ledger uses to turn a lost write
// race into a retryable conflict.
package pg

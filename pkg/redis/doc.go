// Package redis connects to Redis for the Redis-backed usage ledger and
// exposes a readiness probe for it.
//
//	cfg, _ := config.Load[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := usage.NewRedisStore(client,
//		usage.WithKeyPrefix(cfg.KeyPrefix),
//		usage.WithRetention(cfg.Retention),
//	)
//
// Errors wrap the go-redis error with errors.Join under the sentinels in
// errors.go.
package redis

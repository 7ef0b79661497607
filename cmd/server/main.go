package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jobbyai/planguard/pkg/config"
	"github.com/jobbyai/planguard/pkg/entitlement"
	"github.com/jobbyai/planguard/pkg/httpserver"
	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/metrics"
	"github.com/jobbyai/planguard/pkg/pg"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/redis"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/pkg/usage"
	"github.com/jobbyai/planguard/svc/gate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("planguard stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load[appConfig](config.WithDotenv(".env"))
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "planguard"),
		logger.WithContextExtractors(logger.RequestIDExtractor),
	)
	logger.SetAsDefault(log)

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	usageStore := newUsageStore(cfg, deps)
	subStore := newSubscriptionStore(cfg, deps)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svcOpts := []subscription.ServiceOption{
		subscription.WithBillingCycle(cfg.BillingCycle),
		subscription.WithGracePeriod(cfg.PastDueGrace),
		subscription.WithTrialLength(cfg.TrialLength),
		subscription.WithLogger(log.With(logger.Component("subscription"))),
	}
	if cfg.billingEnabled() {
		provider, err := subscription.NewPaddleProvider(cfg.Paddle)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, subscription.WithProvider(provider))
	}
	subs := subscription.NewService(catalog, subStore, svcOpts...)

	ledger := usage.NewLedger(usageStore, usage.WithLogger(log.With(logger.Component("usage"))))
	checker := entitlement.NewChecker(catalog, subs, ledger,
		entitlement.WithAutoProvision(cfg.AutoProvision),
		entitlement.WithLogger(log.With(logger.Component("entitlement"))),
		entitlement.WithObserver(metrics.NewEntitlement(registry)),
	)

	var webhooks gate.Webhooks
	if cfg.billingEnabled() {
		webhooks = subs
	}
	server := gate.New(catalog, checker, webhooks,
		gate.WithLogger(log.With(logger.Component("gate"))),
		gate.WithMetrics(registry),
		gate.WithReadinessChecks(deps.checks...),
		gate.WithConfig(cfg.Gate),
	)

	log.InfoContext(ctx, "planguard starting",
		slog.String("ledger_backend", cfg.LedgerBackend),
		slog.String("subscription_backend", cfg.SubscriptionBackend),
		slog.Int("plans", len(catalog.Plans())),
		slog.Bool("billing", cfg.billingEnabled()),
	)
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, server.Router())
}

func loadCatalog(ctx context.Context, cfg appConfig) (*plans.Catalog, error) {
	src := plans.NewDefaultSource()
	if cfg.PlansFile != "" {
		src = plans.NewYAMLSource(cfg.PlansFile)
	}
	catalog, err := plans.NewCatalog(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load plan catalog: %w", err)
	}
	return catalog, nil
}

// dependencies are the external connections opened for the configured backends.
type dependencies struct {
	pool     *pgxpool.Pool
	redis    *goredis.Client
	redisCfg redis.Config
	checks   []httpserver.Check
}

func (d *dependencies) close() {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func connect(ctx context.Context, cfg appConfig, log *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.needsPostgres() {
		pgCfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		deps.pool = pool
		if pgCfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, pgCfg, log.With(logger.Component("migrate"))); err != nil {
				deps.close()
				return nil, err
			}
		}
		deps.checks = append(deps.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
	}

	if cfg.LedgerBackend == backendRedis {
		redisCfg, err := config.Load[redis.Config]()
		if err != nil {
			deps.close()
			return nil, err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.redis = client
		deps.redisCfg = redisCfg
		deps.checks = append(deps.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	return deps, nil
}

func newUsageStore(cfg appConfig, deps *dependencies) usage.Store {
	switch cfg.LedgerBackend {
	case backendPostgres:
		return usage.NewPostgresStore(deps.pool)
	case backendRedis:
		return usage.NewRedisStore(deps.redis,
			usage.WithKeyPrefix(deps.redisCfg.KeyPrefix),
			usage.WithRetention(deps.redisCfg.Retention),
		)
	default:
		return usage.NewMemoryStore()
	}
}

func newSubscriptionStore(cfg appConfig, deps *dependencies) subscription.Store {
	if cfg.SubscriptionBackend == backendPostgres {
		return subscription.NewPostgresStore(deps.pool)
	}
	return subscription.NewMemoryStore()
}

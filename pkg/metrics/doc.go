// Package metrics exposes Prometheus instrumentation for entitlement decisions,
// billing webhooks and HTTP handlers.
//
// All collectors are registered on a caller-supplied registry so tests and
// multiple servers in one process never collide:
//
//	reg := prometheus.NewRegistry()
//	checker := entitlement.NewChecker(catalog, subs, ledger,
//		entitlement.WithObserver(metrics.NewEntitlement(reg)),
//	)
//	r.Use(metrics.NewHTTP(reg).Middleware)
//	r.Handle("/metrics", metrics.Handler(reg))
package metrics

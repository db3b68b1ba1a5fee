// Package observability provides structured logging, Prometheus metrics, health
// probes, OpenTelemetry export and graceful shutdown for the warden server.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("user_id", id).Info("user deleted")
//
// Request handlers use FromContext, which adds the request id, the
// authenticated user id and the active trace id:
//
//	observability.FromContext(r.Context()).WithError(err).Error("list users failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// Metrics implements storage.OperationObserver so it can be passed to
// storage.Instrument.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("store", store, true)
//	checker.AddCheck("redis", observability.RedisPinger(client), false)
//	observability.RegisterHealthRoutes(opsMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers)
package observability

// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and probe handlers for the engine's operational surface.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the shutdown timeout.
// HealthCheckHandler serves liveness when called without dependencies and
// readiness when given probe functions such as pg.Healthcheck or
// redis.Healthcheck.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))
//	return srv.Run(ctx, r)
package httpserver

// Package httpserver runs an http.Server until its context is cancelled,
// then drains in-flight requests within the configured shutdown timeout.
//
// Configuration is described by the Config struct (HTTP_ADDR, read, write
// and idle timeouts, HTTP_SHUTDOWN_TIMEOUT). WriteTimeout defaults to zero
// because the live subscription stream is a long-lived SSE response.
//
// # Usage
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Run listens on cfg.Addr. Serve takes an existing listener, which tests use
// with an ephemeral port. Shutdown may be called from another goroutine; a
// server that never started shuts down without error.
//
// # Health endpoints
//
// LivenessHandler always answers 200. ReadinessHandler runs every Check
// with a shared timeout, answers 503 NOT_READY on the first failure and
// logs the failing check by name:
//
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 3*time.Second,
//	    httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//
// # Errors
//
// ErrStart wraps listener failures and a second Run on the same Server
// (joined with ErrAlreadyRunning). ErrShutdown wraps a drain that exceeded
// the shutdown timeout.
package httpserver

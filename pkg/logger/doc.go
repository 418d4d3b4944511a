// Package logger builds *slog.Logger instances for the reconciliation service.
//
// New assembles a text or JSON handler from functional options and wraps it in
// LogHandlerDecorator, which copies request-scoped values (request id, user id)
// from context.Context into every record at Handle time.
//
// Attribute helpers in attr.go keep key names stable across packages so log
// queries such as event_id=evt_123 work for every component:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "subsync"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.LogAttrs(ctx, slog.LevelInfo, "webhook applied",
//		logger.EventID(env.ID),
//		logger.UserID(userID),
//	)
package logger

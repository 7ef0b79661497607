// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so every component logs users, features, plans
// and periods under the same keys.
//
// New wraps the JSON or text handler in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks on each record. RequestIDExtractor
// pulls the id set by chi's RequestID middleware:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "planguard"),
//		logger.WithContextExtractors(logger.RequestIDExtractor),
//	)
//	log.InfoContext(ctx, "quota exhausted",
//		logger.UserID(userID),
//		logger.Feature(feature),
//		logger.Period(period),
//	)
//
// Error, Errors, UserID and RequestID return an empty Attr for zero input, so
// they can be passed without nil checks.
package logger

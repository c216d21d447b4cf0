// Package logger builds configured slog loggers for the retry engine.
//
// New creates a *slog.Logger from functional options: output format, level,
// static attributes, and ContextExtractor callbacks that inject values stored
// in the context on every record.
//
//	log := logger.New(
//		logger.WithProduction("rediald"),
//		logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "operation completed",
//		logger.OperationID(op.ID),
//		logger.OwnerID(op.OwnerID),
//		logger.Attempt(op.AttemptCount),
//	)
//
// The attribute helpers in attr.go keep key naming consistent across
// components; Error and Errors skip nil values so call sites need no nil
// checks.
package logger

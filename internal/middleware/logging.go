package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, user ID, duration, and any error codes/messages.
// Streams are logged once when they end.
func LoggingInterceptor(logger *slog.Logger) connect.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingInterceptor{logger: logger}
}

type loggingInterceptor struct {
	logger *slog.Logger
}

func (l *loggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		start := time.Now()
		resp, err := next(ctx, req)
		l.log(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

func (l *loggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *loggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		l.log(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}

// log runs after the handler, so ctx is the outer context and carries claims only
// when an auth interceptor ran first.
func (l *loggingInterceptor) log(ctx context.Context, procedure string, start time.Time, err error) {
	userID := GetUserID(ctx) // empty if pre-auth
	duration := time.Since(start).Milliseconds()
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			l.logger.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"user_id", userID,
				"duration_ms", duration,
			)
		} else {
			l.logger.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"user_id", userID,
				"duration_ms", duration,
			)
		}
		return
	}
	l.logger.Info("RPC ok",
		"procedure", procedure,
		"user_id", userID,
		"duration_ms", duration,
	)
}

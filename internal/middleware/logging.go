package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/dormmess/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records it in m, which may be nil.
func LoggingInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			userID := GetUserID(ctx) // 0 if pre-auth

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			attrs := []any{
				"procedure", procedure,
				"request_id", req.Header().Get("X-Request-ID"),
				"user_id", userID,
				"duration_ms", elapsed.Milliseconds(),
			}

			status := http.StatusOK
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					slog.WarnContext(ctx, "RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				} else {
					slog.ErrorContext(ctx, "RPC error", append(attrs, "error", err)...)
				}
				status = httpStatus(connect.CodeOf(err))
			} else {
				slog.InfoContext(ctx, "RPC ok", attrs...)
			}
			m.ObserveRequest(http.MethodPost, procedure, status, elapsed)

			return resp, err
		}
	}
}

// httpStatus maps the Connect codes this server returns to HTTP statuses
// for metric labels.
func httpStatus(code connect.Code) int {
	switch code {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeAlreadyExists:
		return http.StatusConflict
	case connect.CodeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

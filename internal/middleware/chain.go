package middleware

import (
	"connectrpc.com/connect"

	"github.com/mmynk/dormmess/internal/auth"
	"github.com/mmynk/dormmess/internal/metrics"
)

// Interceptors returns the handler option installing auth and logging.
// Auth runs first so the logged context carries the caller's user id.
func Interceptors(jwtManager *auth.JWTManager, required bool, m *metrics.Metrics) connect.Option {
	authInterceptor := OptionalAuth(jwtManager)
	if required {
		authInterceptor = RequireAuth(jwtManager)
	}
	return connect.WithInterceptors(authInterceptor, LoggingInterceptor(m))
}

package sqlstore

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Hook is called after every statement the store sends to the database.
// err is the already mapped error, nil on success.
// Implementations must be safe for concurrent use.
type Hook interface {
	AfterQuery(ctx context.Context, query string, duration time.Duration, err error)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, query string, duration time.Duration, err error)

// AfterQuery calls f.
func (f HookFunc) AfterQuery(ctx context.Context, query string, duration time.Duration, err error) {
	f(ctx, query, duration, err)
}

// LogHook logs every statement at debug level, slow ones at warn level and
// failures at error level. A zero slowThreshold disables slow-query warnings.
func LogHook(logger *slog.Logger, slowThreshold time.Duration) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return HookFunc(func(ctx context.Context, query string, d time.Duration, err error) {
		attrs := []any{
			"query", trimQuery(query),
			"duration_ms", d.Milliseconds(),
		}
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "Query failed", append(attrs, "error", err)...)
		case slowThreshold > 0 && d > slowThreshold:
			logger.WarnContext(ctx, "Slow query", attrs...)
		default:
			logger.DebugContext(ctx, "Query", attrs...)
		}
	})
}

// QueryObserver receives statement timings, keyed by SQL verb.
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// MetricsHook reports statement timings to a QueryObserver.
func MetricsHook(observer QueryObserver) Hook {
	return HookFunc(func(_ context.Context, query string, d time.Duration, err error) {
		observer.ObserveQuery(operation(query), d, err)
	})
}

// operation returns the leading SQL keyword in lower case (select, insert, ...).
func operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

// trimQuery collapses whitespace and truncates long statements for logs.
func trimQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 300 {
		return q[:300] + "…"
	}
	return q
}

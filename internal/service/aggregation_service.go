package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/calculator"
	"github.com/mmynk/dormmess/internal/metrics"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

// Derived table names, used in results, logs and metrics.
const (
	TableMealRate = "meal_rate"
	TableOverall  = "overall_calculation"
)

// RecomputeResult describes one recomputation run.
type RecomputeResult struct {
	RunID        string          `json:"run_id"`
	Tables       []string        `json:"tables"`
	Users        int             `json:"users"`
	AffectedRows int64           `json:"affected_rows"`
	MessMealRate decimal.Decimal `json:"mess_meal_rate"`
	ComputedAt   int64           `json:"computed_at"`
}

// Balance is an overall row with its due/give classification.
type Balance struct {
	models.OverallCalculation
	Status string `json:"status"`
}

// Summary is a computed, unpersisted statement for a date range.
type Summary struct {
	From         string            `json:"from,omitempty"`
	To           string            `json:"to,omitempty"`
	TotalSpend   decimal.Decimal   `json:"total_spend"`
	TotalMeals   int64             `json:"total_meals"`
	TotalDeposit decimal.Decimal   `json:"total_deposit"`
	MessMealRate decimal.Decimal   `json:"mess_meal_rate"`
	MealRates    []models.MealRate `json:"meal_rates"`
	Balances     []Balance         `json:"balances"`

	// Transfers settle the balances directly between residents.
	Transfers []calculator.Transfer `json:"transfers"`
}

// AggregationService recomputes and serves the derived meal_rate and
// overall_calculation tables.
//
// Recomputations are serialized. Reads of the derived tables are cached
// until the next recomputation.
type AggregationService struct {
	store   storage.AggregateStore
	cache   *gocache.Cache
	metrics *metrics.Metrics
	now     func() time.Time

	mu sync.Mutex

	// cacheMu orders cache stores against flushes. generation counts
	// flushes so a read that loaded before a flush does not store its
	// rows after it.
	cacheMu    sync.Mutex
	generation uint64
}

// NewAggregationService creates the service. A zero cacheTTL disables
// caching; m may be nil.
func NewAggregationService(store storage.AggregateStore, cacheTTL time.Duration, m *metrics.Metrics) *AggregationService {
	var cache *gocache.Cache
	if cacheTTL > 0 {
		cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return &AggregationService{
		store:   store,
		cache:   cache,
		metrics: m,
		now:     time.Now,
	}
}

// RecomputeMealRates rebuilds meal_rate for every user.
func (s *AggregationService) RecomputeMealRates(ctx context.Context) (*RecomputeResult, error) {
	return s.run(ctx, TableMealRate)
}

// RecomputeOverall rebuilds overall_calculation for every user.
func (s *AggregationService) RecomputeOverall(ctx context.Context) (*RecomputeResult, error) {
	return s.run(ctx, TableOverall)
}

// Recompute rebuilds both derived tables from one snapshot of the totals.
func (s *AggregationService) Recompute(ctx context.Context) (*RecomputeResult, error) {
	return s.run(ctx, TableMealRate, TableOverall)
}

func (s *AggregationService) run(ctx context.Context, tables ...string) (*RecomputeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	start := s.now()
	slog.Info("Recompute started", "run_id", runID, "tables", tables)

	totals, err := s.store.UserTotals(ctx, storage.Period{})
	if err != nil {
		slog.Error("Recompute failed", "run_id", runID, "error", err)
		for _, table := range tables {
			s.metrics.ObserveRecompute(table, time.Since(start), err)
		}
		return nil, fmt.Errorf("failed to load user totals: %w", err)
	}

	mess := calculator.CalculateMessTotals(totals)
	result := &RecomputeResult{
		RunID:        runID,
		Tables:       tables,
		Users:        len(totals),
		MessMealRate: calculator.MealRate(mess.TotalSpend, mess.TotalMeals),
		ComputedAt:   start.Unix(),
	}

	// Whatever happens below, cached reads may now be out of date.
	defer s.flush()

	for _, table := range tables {
		tableStart := time.Now()
		var n int64
		switch table {
		case TableMealRate:
			n, err = s.store.ReplaceMealRates(ctx, calculator.CalculateMealRates(totals, start))
		case TableOverall:
			_, rows := calculator.CalculateOverall(totals, start)
			n, err = s.store.ReplaceOverallCalculations(ctx, rows)
		default:
			err = fmt.Errorf("unknown derived table %q", table)
		}
		s.metrics.ObserveRecompute(table, time.Since(tableStart), err)
		if err != nil {
			slog.Error("Recompute failed", "run_id", runID, "table", table, "error", err)
			return nil, fmt.Errorf("failed to recompute %s: %w", table, err)
		}
		result.AffectedRows += n
	}

	slog.Info("Recompute successful",
		"run_id", runID,
		"tables", tables,
		"users", result.Users,
		"affected_rows", result.AffectedRows,
		"mess_meal_rate", result.MessMealRate.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// ListMealRates returns the persisted meal_rate rows.
func (s *AggregationService) ListMealRates(ctx context.Context) ([]*models.MealRate, error) {
	return cached(s, "meal_rates", func() ([]*models.MealRate, error) {
		return s.store.ListMealRates(ctx)
	})
}

// GetMealRate returns one user's persisted meal_rate row.
func (s *AggregationService) GetMealRate(ctx context.Context, userID int64) (*models.MealRate, error) {
	return cached(s, "meal_rate:"+strconv.FormatInt(userID, 10), func() (*models.MealRate, error) {
		return s.store.GetMealRate(ctx, userID)
	})
}

// ListOverall returns the persisted overall_calculation rows.
func (s *AggregationService) ListOverall(ctx context.Context) ([]*models.OverallCalculation, error) {
	return cached(s, "overall", func() ([]*models.OverallCalculation, error) {
		return s.store.ListOverallCalculations(ctx)
	})
}

// GetOverall returns one user's persisted overall_calculation row.
func (s *AggregationService) GetOverall(ctx context.Context, userID int64) (*models.OverallCalculation, error) {
	return cached(s, "overall:"+strconv.FormatInt(userID, 10), func() (*models.OverallCalculation, error) {
		return s.store.GetOverallCalculation(ctx, userID)
	})
}

// Preview computes meal rates and balances for a date range without
// persisting them. Zero bounds are open.
func (s *AggregationService) Preview(ctx context.Context, period storage.Period) (*Summary, error) {
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From.Time) {
		return nil, invalidf("from must not be after to")
	}

	totals, err := s.store.UserTotals(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load user totals: %w", err)
	}

	now := s.now()
	mess, rows := calculator.CalculateOverall(totals, now)
	summary := &Summary{
		From:         period.From.String(),
		To:           period.To.String(),
		TotalSpend:   mess.TotalSpend.Round(2),
		TotalMeals:   mess.TotalMeals,
		TotalDeposit: mess.TotalDeposit.Round(2),
		MessMealRate: calculator.MealRate(mess.TotalSpend, mess.TotalMeals),
		MealRates:    calculator.CalculateMealRates(totals, now),
		Balances:     make([]Balance, 0, len(rows)),
		Transfers:    calculator.SettleUp(rows),
	}
	for _, row := range rows {
		summary.Balances = append(summary.Balances, Balance{
			OverallCalculation: row,
			Status:             calculator.Status(row.DueOrGive),
		})
	}
	return summary, nil
}

func (s *AggregationService) flush() {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.cache.Flush()
}

// remember caches v under key unless the cache was flushed since generation gen.
func (s *AggregationService) remember(key string, v any, gen uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation == gen {
		s.cache.SetDefault(key, v)
	}
}

// cached serves key from the cache or loads and stores it. Errors,
// including not found, are never cached.
func cached[T any](s *AggregationService, key string, load func() (T, error)) (T, error) {
	var gen uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.CacheHit()
			return v.(T), nil
		}
		s.metrics.CacheMiss()

		s.cacheMu.Lock()
		gen = s.generation
		s.cacheMu.Unlock()
	}

	v, err := load()
	if err != nil {
		var zero T
		if errors.Is(err, storage.ErrNotFound) {
			return zero, err
		}
		return zero, fmt.Errorf("failed to read derived table: %w", err)
	}

	if s.cache != nil {
		s.remember(key, v, gen)
	}
	return v, nil
}

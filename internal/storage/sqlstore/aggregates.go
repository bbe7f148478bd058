package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/calculator"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

// Open bounds used when a Period leaves one side unset.
var (
	minDate = models.MustParseDate("1000-01-01")
	maxDate = models.MustParseDate("9999-12-31")
)

// userTotalsQuery sums each source table in its own subquery so that a user
// with several spends and several meals is not counted once per pair.
const userTotalsQuery = `
	SELECT u.id,
	       COALESCE(s.total_spend, 0),
	       COALESCE(s.admin_spend, 0),
	       COALESCE(m.total_meals, 0),
	       COALESCE(d.total_deposit, 0)
	FROM users u
	LEFT JOIN (
		SELECT user_id,
		       SUM(price) AS total_spend,
		       SUM(CASE WHEN is_admin THEN price ELSE 0 END) AS admin_spend
		FROM spend
		WHERE spend_date BETWEEN ? AND ?
		GROUP BY user_id
	) s ON s.user_id = u.id
	LEFT JOIN (
		SELECT user_id, SUM(meal_number) AS total_meals
		FROM meal_count
		WHERE meal_date BETWEEN ? AND ?
		GROUP BY user_id
	) m ON m.user_id = u.id
	LEFT JOIN (
		SELECT user_id, SUM(amount) AS total_deposit
		FROM deposit
		WHERE deposit_date BETWEEN ? AND ?
		GROUP BY user_id
	) d ON d.user_id = u.id
	ORDER BY u.id`

var (
	mealRateColumns = []string{"user_id", "total_spend", "total_meal_count", "meal_rate", "updated_at"}
	overallColumns  = []string{"user_id", "total_spend", "total_meal_count", "total_deposit", "total_cost", "due_or_give", "updated_at"}
)

// UserTotals returns the per-user sums of the source tables, one row for
// every user including those with no records in the period.
func (s *Store) UserTotals(ctx context.Context, period storage.Period) ([]calculator.UserTotals, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	from, to := period.From, period.To
	if from.IsZero() {
		from = minDate
	}
	if to.IsZero() {
		to = maxDate
	}

	rows, err := s.query(ctx, s.db, userTotalsQuery, from, to, from, to, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}
	defer rows.Close()

	var totals []calculator.UserTotals
	for rows.Next() {
		var t calculator.UserTotals
		if err := rows.Scan(&t.UserID, &t.TotalSpend, &t.AdminSpend, &t.TotalMeals, &t.TotalDeposit); err != nil {
			return nil, fmt.Errorf("failed to scan user totals: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user totals: %w", err)
	}
	return totals, nil
}

// ReplaceMealRates upserts meal_rate rows in a single transaction.
func (s *Store) ReplaceMealRates(ctx context.Context, rates []models.MealRate) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.dialect.upsert("meal_rate", "user_id", mealRateColumns)
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rates {
			res, err := s.exec(ctx, tx, query, r.UserID, r.TotalSpend, r.TotalMealCount, r.MealRate, r.UpdatedAt)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert meal rates: %w", err)
	}
	return affected, nil
}

// ReplaceOverallCalculations upserts overall_calculation rows in a single transaction.
func (s *Store) ReplaceOverallCalculations(ctx context.Context, calcs []models.OverallCalculation) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.dialect.upsert("overall_calculation", "user_id", overallColumns)
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range calcs {
			res, err := s.exec(ctx, tx, query,
				c.UserID, c.TotalSpend, c.TotalMealCount, c.TotalDeposit, c.TotalCost, c.DueOrGive, c.UpdatedAt)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert overall calculations: %w", err)
	}
	return affected, nil
}

// ListMealRates returns every meal_rate row ordered by user id.
func (s *Store) ListMealRates(ctx context.Context) ([]*models.MealRate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db,
		`SELECT `+joinColumns(mealRateColumns)+` FROM meal_rate ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal rates: %w", err)
	}
	defer rows.Close()

	var rates []*models.MealRate
	for rows.Next() {
		r := &models.MealRate{}
		if err := rows.Scan(&r.UserID, &r.TotalSpend, &r.TotalMealCount, &r.MealRate, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal rate: %w", err)
		}
		normalizeMoney(&r.TotalSpend, &r.MealRate)
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal rates: %w", err)
	}
	return rates, nil
}

// GetMealRate returns the meal_rate row of one user.
func (s *Store) GetMealRate(ctx context.Context, userID int64) (*models.MealRate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r := &models.MealRate{}
	err := s.scanRow(ctx, s.db,
		`SELECT `+joinColumns(mealRateColumns)+` FROM meal_rate WHERE user_id = ?`,
		[]any{userID},
		&r.UserID, &r.TotalSpend, &r.TotalMealCount, &r.MealRate, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal rate: %w", err)
	}
	normalizeMoney(&r.TotalSpend, &r.MealRate)
	return r, nil
}

// ListOverallCalculations returns every overall_calculation row ordered by user id.
func (s *Store) ListOverallCalculations(ctx context.Context) ([]*models.OverallCalculation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db,
		`SELECT `+joinColumns(overallColumns)+` FROM overall_calculation ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list overall calculations: %w", err)
	}
	defer rows.Close()

	var calcs []*models.OverallCalculation
	for rows.Next() {
		c := &models.OverallCalculation{}
		if err := rows.Scan(&c.UserID, &c.TotalSpend, &c.TotalMealCount, &c.TotalDeposit, &c.TotalCost, &c.DueOrGive, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan overall calculation: %w", err)
		}
		normalizeMoney(&c.TotalSpend, &c.TotalDeposit, &c.TotalCost, &c.DueOrGive)
		calcs = append(calcs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overall calculations: %w", err)
	}
	return calcs, nil
}

// GetOverallCalculation returns the overall_calculation row of one user.
func (s *Store) GetOverallCalculation(ctx context.Context, userID int64) (*models.OverallCalculation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c := &models.OverallCalculation{}
	err := s.scanRow(ctx, s.db,
		`SELECT `+joinColumns(overallColumns)+` FROM overall_calculation WHERE user_id = ?`,
		[]any{userID},
		&c.UserID, &c.TotalSpend, &c.TotalMealCount, &c.TotalDeposit, &c.TotalCost, &c.DueOrGive, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get overall calculation: %w", err)
	}
	normalizeMoney(&c.TotalSpend, &c.TotalDeposit, &c.TotalCost, &c.DueOrGive)
	return c, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// normalizeMoney rounds values read back from REAL-affinity columns, which
// may carry float noise, to two places.
func normalizeMoney(values ...*decimal.Decimal) {
	for _, v := range values {
		*v = v.Round(2)
	}
}

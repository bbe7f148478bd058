// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/dormmess/internal/calculator"
	"github.com/mmynk/dormmess/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no rows.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")

	// ErrForeignKey is returned when a referenced row does not exist.
	ErrForeignKey = errors.New("referenced record does not exist")
)

// Period restricts aggregation to records dated within [From, To].
// A zero bound is open.
type Period struct {
	From models.Date
	To   models.Date
}

// UserStore persists resident accounts.
type UserStore interface {
	// CreateUser inserts a user and sets user.ID.
	// Returns ErrDuplicate if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns ErrNotFound when no user has the id.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByEmail returns ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListUsers(ctx context.Context) ([]*models.User, error)
}

// EntryStore persists the source records the aggregation engine reads.
// Update and Delete return ErrNotFound when the id does not exist, and
// writes referencing a missing user return ErrForeignKey.
type EntryStore interface {
	CreateMeal(ctx context.Context, meal *models.MealEntry) error
	GetMeal(ctx context.Context, id int64) (*models.MealEntry, error)
	ListMeals(ctx context.Context) ([]*models.MealEntry, error)
	ListMealsByUser(ctx context.Context, userID int64) ([]*models.MealEntry, error)
	UpdateMeal(ctx context.Context, meal *models.MealEntry) error
	DeleteMeal(ctx context.Context, id int64) error

	CreateSpend(ctx context.Context, spend *models.SpendEntry) error
	GetSpend(ctx context.Context, id int64) (*models.SpendEntry, error)
	ListSpends(ctx context.Context) ([]*models.SpendEntry, error)
	ListSpendsByUser(ctx context.Context, userID int64) ([]*models.SpendEntry, error)
	UpdateSpend(ctx context.Context, spend *models.SpendEntry) error
	DeleteSpend(ctx context.Context, id int64) error

	CreateDeposit(ctx context.Context, deposit *models.Deposit) error
	GetDeposit(ctx context.Context, id int64) (*models.Deposit, error)
	ListDeposits(ctx context.Context) ([]*models.DepositView, error)
	ListDepositsByUser(ctx context.Context, userID int64) ([]*models.DepositView, error)
	UpdateDeposit(ctx context.Context, deposit *models.Deposit) error
	DeleteDeposit(ctx context.Context, id int64) error
}

// MenuStore persists the planned meal menu.
// Update and Delete return ErrNotFound when the id does not exist.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
}

// AggregateStore reads source totals and maintains the derived tables.
type AggregateStore interface {
	// UserTotals returns one row per user, ordered by user id, with sums of
	// their spend, meals and deposits dated within the period.
	UserTotals(ctx context.Context, period Period) ([]calculator.UserTotals, error)

	// ReplaceMealRates upserts every row in one transaction and returns the
	// number of affected rows as reported by the driver.
	ReplaceMealRates(ctx context.Context, rates []models.MealRate) (int64, error)

	// ReplaceOverallCalculations upserts every row in one transaction.
	ReplaceOverallCalculations(ctx context.Context, rows []models.OverallCalculation) (int64, error)

	ListMealRates(ctx context.Context) ([]*models.MealRate, error)
	GetMealRate(ctx context.Context, userID int64) (*models.MealRate, error)
	ListOverallCalculations(ctx context.Context) ([]*models.OverallCalculation, error)
	GetOverallCalculation(ctx context.Context, userID int64) (*models.OverallCalculation, error)
}

// Store defines the full set of storage operations.
// This abstraction allows swapping database backends (SQLite, MySQL,
// PostgreSQL) without changing the service layer.
type Store interface {
	UserStore
	EntryStore
	MenuStore
	AggregateStore

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

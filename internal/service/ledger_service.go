package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/dormmess/internal/calculator"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

// LedgerService manages users and the meal, spend and deposit records.
type LedgerService struct {
	store       storage.Store
	aggregation *AggregationService

	// autoRecompute refreshes the derived tables after every write.
	autoRecompute bool
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(store storage.Store, aggregation *AggregationService, autoRecompute bool) *LedgerService {
	return &LedgerService{
		store:         store,
		aggregation:   aggregation,
		autoRecompute: autoRecompute,
	}
}

// ListUsers returns every registered user.
func (s *LedgerService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		slog.Error("ListUsers failed", "error", err)
		return nil, err
	}
	return users, nil
}

// GetUser returns one user.
func (s *LedgerService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// PersonalInfo returns a user with their derived rows, if computed.
func (s *LedgerService) PersonalInfo(ctx context.Context, userID int64) (*models.PersonalInfo, error) {
	slog.Info("PersonalInfo request received", "user_id", userID)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := &models.PersonalInfo{User: user}

	rate, err := s.aggregation.GetMealRate(ctx, userID)
	switch {
	case err == nil:
		info.MealRate = rate
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	overall, err := s.aggregation.GetOverall(ctx, userID)
	switch {
	case err == nil:
		info.OverallCalculation = overall
		info.Status = calculator.Status(overall.DueOrGive)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	return info, nil
}

// CreateMeal validates and stores a meal_count entry.
func (s *LedgerService) CreateMeal(ctx context.Context, meal *models.MealEntry) error {
	slog.Info("CreateMeal request received", "user_id", meal.UserID, "meal_date", meal.MealDate.String())

	if err := validateMeal(meal); err != nil {
		return err
	}
	if err := s.requireUser(ctx, meal.UserID); err != nil {
		return err
	}
	if err := s.store.CreateMeal(ctx, meal); err != nil {
		slog.Error("CreateMeal failed", "error", err)
		return userError(err)
	}

	slog.Info("Meal created", "meal_id", meal.ID)
	s.changed(ctx)
	return nil
}

// GetMeal returns one meal entry.
func (s *LedgerService) GetMeal(ctx context.Context, id int64) (*models.MealEntry, error) {
	return s.store.GetMeal(ctx, id)
}

// ListMeals returns all meal entries, or one user's when userID > 0.
func (s *LedgerService) ListMeals(ctx context.Context, userID int64) ([]*models.MealEntry, error) {
	if userID > 0 {
		return s.store.ListMealsByUser(ctx, userID)
	}
	return s.store.ListMeals(ctx)
}

// UpdateMeal replaces an existing meal entry.
func (s *LedgerService) UpdateMeal(ctx context.Context, meal *models.MealEntry) error {
	slog.Info("UpdateMeal request received", "meal_id", meal.ID)

	if err := validateMeal(meal); err != nil {
		return err
	}
	if err := s.requireUser(ctx, meal.UserID); err != nil {
		return err
	}
	if err := s.store.UpdateMeal(ctx, meal); err != nil {
		slog.Error("UpdateMeal failed", "meal_id", meal.ID, "error", err)
		return userError(err)
	}
	s.changed(ctx)
	return nil
}

// DeleteMeal removes a meal entry.
func (s *LedgerService) DeleteMeal(ctx context.Context, id int64) error {
	slog.Info("DeleteMeal request received", "meal_id", id)
	if err := s.store.DeleteMeal(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// CreateSpend validates and stores a spend entry.
func (s *LedgerService) CreateSpend(ctx context.Context, spend *models.SpendEntry) error {
	slog.Info("CreateSpend request received", "user_id", spend.UserID, "element", spend.Element, "is_admin", spend.IsAdmin)

	if err := validateSpend(spend); err != nil {
		return err
	}
	if err := s.requireUser(ctx, spend.UserID); err != nil {
		return err
	}
	if err := s.store.CreateSpend(ctx, spend); err != nil {
		slog.Error("CreateSpend failed", "error", err)
		return userError(err)
	}

	slog.Info("Spend created", "spend_id", spend.ID, "price", spend.Price.String())
	s.changed(ctx)
	return nil
}

// GetSpend returns one spend entry.
func (s *LedgerService) GetSpend(ctx context.Context, id int64) (*models.SpendEntry, error) {
	return s.store.GetSpend(ctx, id)
}

// ListSpends returns all spend entries, or one user's when userID > 0.
func (s *LedgerService) ListSpends(ctx context.Context, userID int64) ([]*models.SpendEntry, error) {
	if userID > 0 {
		return s.store.ListSpendsByUser(ctx, userID)
	}
	return s.store.ListSpends(ctx)
}

// UpdateSpend replaces an existing spend entry.
func (s *LedgerService) UpdateSpend(ctx context.Context, spend *models.SpendEntry) error {
	slog.Info("UpdateSpend request received", "spend_id", spend.ID)

	if err := validateSpend(spend); err != nil {
		return err
	}
	if err := s.requireUser(ctx, spend.UserID); err != nil {
		return err
	}
	if err := s.store.UpdateSpend(ctx, spend); err != nil {
		slog.Error("UpdateSpend failed", "spend_id", spend.ID, "error", err)
		return userError(err)
	}
	s.changed(ctx)
	return nil
}

// DeleteSpend removes a spend entry.
func (s *LedgerService) DeleteSpend(ctx context.Context, id int64) error {
	slog.Info("DeleteSpend request received", "spend_id", id)
	if err := s.store.DeleteSpend(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// CreateDeposit validates and stores a deposit.
func (s *LedgerService) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	slog.Info("CreateDeposit request received", "user_id", deposit.UserID, "amount", deposit.Amount.String())

	if err := validateDeposit(deposit); err != nil {
		return err
	}
	if err := s.requireUser(ctx, deposit.UserID); err != nil {
		return err
	}
	if err := s.store.CreateDeposit(ctx, deposit); err != nil {
		slog.Error("CreateDeposit failed", "error", err)
		return userError(err)
	}

	slog.Info("Deposit created", "deposit_id", deposit.ID)
	s.changed(ctx)
	return nil
}

// GetDeposit returns one deposit.
func (s *LedgerService) GetDeposit(ctx context.Context, id int64) (*models.Deposit, error) {
	return s.store.GetDeposit(ctx, id)
}

// ListDeposits returns all deposits with owner names, or one user's when userID > 0.
func (s *LedgerService) ListDeposits(ctx context.Context, userID int64) ([]*models.DepositView, error) {
	if userID > 0 {
		return s.store.ListDepositsByUser(ctx, userID)
	}
	return s.store.ListDeposits(ctx)
}

// UpdateDeposit replaces an existing deposit.
func (s *LedgerService) UpdateDeposit(ctx context.Context, deposit *models.Deposit) error {
	slog.Info("UpdateDeposit request received", "deposit_id", deposit.ID)

	if err := validateDeposit(deposit); err != nil {
		return err
	}
	if err := s.requireUser(ctx, deposit.UserID); err != nil {
		return err
	}
	if err := s.store.UpdateDeposit(ctx, deposit); err != nil {
		slog.Error("UpdateDeposit failed", "deposit_id", deposit.ID, "error", err)
		return userError(err)
	}
	s.changed(ctx)
	return nil
}

// DeleteDeposit removes a deposit.
func (s *LedgerService) DeleteDeposit(ctx context.Context, id int64) error {
	slog.Info("DeleteDeposit request received", "deposit_id", id)
	if err := s.store.DeleteDeposit(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// requireUser reports ErrUserNotFound when userID does not exist.
func (s *LedgerService) requireUser(ctx context.Context, userID int64) error {
	_, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return nil
}

// changed runs the auto recompute, if enabled. Failures are logged only:
// the write itself has already succeeded.
func (s *LedgerService) changed(ctx context.Context) {
	if !s.autoRecompute {
		return
	}
	if _, err := s.aggregation.Recompute(ctx); err != nil {
		slog.Error("Auto recompute failed", "error", err)
	}
}

// userError maps a foreign key failure (user deleted between the check and
// the write) to ErrUserNotFound.
func userError(err error) error {
	if errors.Is(err, storage.ErrForeignKey) {
		return ErrUserNotFound
	}
	return err
}

func validateMeal(m *models.MealEntry) error {
	m.MealTime = strings.TrimSpace(m.MealTime)
	if m.UserID <= 0 || m.MealTime == "" || m.MealDate.IsZero() {
		return invalidf("All fields are required")
	}
	if m.MealNumber <= 0 {
		return invalidf("meal_number must be positive")
	}
	return nil
}

func validateSpend(sp *models.SpendEntry) error {
	sp.Element = strings.TrimSpace(sp.Element)
	if sp.UserID <= 0 || sp.Element == "" || sp.SpendDate.IsZero() {
		return invalidf("All fields are required")
	}
	if !sp.Price.IsPositive() {
		return invalidf("price must be positive")
	}
	return nil
}

func validateDeposit(d *models.Deposit) error {
	if d.UserID <= 0 || d.DepositDate.IsZero() {
		return invalidf("All fields are required")
	}
	if !d.Amount.IsPositive() {
		return invalidf("amount must be positive")
	}
	return nil
}

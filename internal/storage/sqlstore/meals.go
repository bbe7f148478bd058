package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/dormmess/internal/models"
)

const mealColumns = `id, user_id, meal_time, meal_date, meal_number, created_at, updated_at`

// CreateMeal inserts a meal_count row and sets its ID.
func (s *Store) CreateMeal(ctx context.Context, meal *models.MealEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stamp(&meal.CreatedAt, &meal.UpdatedAt)
	id, err := s.insert(ctx, s.db,
		`INSERT INTO meal_count (user_id, meal_time, meal_date, meal_number, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meal.UserID, meal.MealTime, meal.MealDate, meal.MealNumber, meal.CreatedAt, meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}
	meal.ID = id
	return nil
}

// GetMeal retrieves a meal_count row by ID.
func (s *Store) GetMeal(ctx context.Context, id int64) (*models.MealEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	meal := &models.MealEntry{}
	err := s.scanRow(ctx, s.db,
		`SELECT `+mealColumns+` FROM meal_count WHERE id = ?`,
		[]any{id},
		&meal.ID, &meal.UserID, &meal.MealTime, &meal.MealDate, &meal.MealNumber, &meal.CreatedAt, &meal.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return meal, nil
}

// ListMeals returns every meal_count row, newest date first.
func (s *Store) ListMeals(ctx context.Context) ([]*models.MealEntry, error) {
	return s.listMeals(ctx, "")
}

// ListMealsByUser returns one user's meal_count rows, newest date first.
func (s *Store) ListMealsByUser(ctx context.Context, userID int64) ([]*models.MealEntry, error) {
	return s.listMeals(ctx, "WHERE user_id = ?", userID)
}

func (s *Store) listMeals(ctx context.Context, where string, args ...any) ([]*models.MealEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db,
		`SELECT `+mealColumns+` FROM meal_count `+where+` ORDER BY meal_date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.MealEntry
	for rows.Next() {
		meal := &models.MealEntry{}
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.MealTime, &meal.MealDate, &meal.MealNumber, &meal.CreatedAt, &meal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}
	return meals, nil
}

// UpdateMeal overwrites every field of an existing meal_count row.
func (s *Store) UpdateMeal(ctx context.Context, meal *models.MealEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	meal.UpdatedAt = time.Now().Unix()
	res, err := s.exec(ctx, s.db,
		`UPDATE meal_count SET user_id = ?, meal_time = ?, meal_date = ?, meal_number = ?, updated_at = ? WHERE id = ?`,
		meal.UserID, meal.MealTime, meal.MealDate, meal.MealNumber, meal.UpdatedAt, meal.ID,
	)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	return nil
}

// DeleteMeal removes a meal_count row.
func (s *Store) DeleteMeal(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.exec(ctx, s.db, `DELETE FROM meal_count WHERE id = ?`, id)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

// stamp fills unset creation and update timestamps with the current time.
func stamp(createdAt, updatedAt *int64) {
	now := time.Now().Unix()
	if *createdAt == 0 {
		*createdAt = now
	}
	if *updatedAt == 0 {
		*updatedAt = *createdAt
	}
}

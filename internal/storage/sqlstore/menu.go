package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/dormmess/internal/models"
)

const menuColumns = `id, meal_name, description, meal_time, meal_date, created_at, updated_at`

// CreateMenuItem inserts a meals row and sets its ID.
func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stamp(&item.CreatedAt, &item.UpdatedAt)
	id, err := s.insert(ctx, s.db,
		`INSERT INTO meals (meal_name, description, meal_time, meal_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.MealName, item.Description, item.MealTime, item.MealDate, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	item.ID = id
	return nil
}

// GetMenuItem retrieves a meals row by ID.
func (s *Store) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item := &models.MenuItem{}
	err := s.scanRow(ctx, s.db,
		`SELECT `+menuColumns+` FROM meals WHERE id = ?`,
		[]any{id},
		&item.ID, &item.MealName, &item.Description, &item.MealTime, &item.MealDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

// ListMenuItems returns the menu, newest date first.
func (s *Store) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db, `SELECT `+menuColumns+` FROM meals ORDER BY meal_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item := &models.MenuItem{}
		if err := rows.Scan(&item.ID, &item.MealName, &item.Description, &item.MealTime, &item.MealDate, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}
	return items, nil
}

// UpdateMenuItem overwrites every field of an existing meals row.
func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item.UpdatedAt = time.Now().Unix()
	res, err := s.exec(ctx, s.db,
		`UPDATE meals SET meal_name = ?, description = ?, meal_time = ?, meal_date = ?, updated_at = ? WHERE id = ?`,
		item.MealName, item.Description, item.MealTime, item.MealDate, item.UpdatedAt, item.ID,
	)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	return nil
}

// DeleteMenuItem removes a meals row.
func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.exec(ctx, s.db, `DELETE FROM meals WHERE id = ?`, id)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return nil
}

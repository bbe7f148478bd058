package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/dormmess/internal/models"
)

const spendColumns = `id, user_id, spend_date, element, price, is_admin, created_at, updated_at`

// CreateSpend inserts a spend row and sets its ID.
func (s *Store) CreateSpend(ctx context.Context, spend *models.SpendEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stamp(&spend.CreatedAt, &spend.UpdatedAt)
	id, err := s.insert(ctx, s.db,
		`INSERT INTO spend (user_id, spend_date, element, price, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		spend.UserID, spend.SpendDate, spend.Element, spend.Price, spend.IsAdmin, spend.CreatedAt, spend.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create spend: %w", err)
	}
	spend.ID = id
	return nil
}

// GetSpend retrieves a spend row by ID.
func (s *Store) GetSpend(ctx context.Context, id int64) (*models.SpendEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	spend := &models.SpendEntry{}
	err := s.scanRow(ctx, s.db,
		`SELECT `+spendColumns+` FROM spend WHERE id = ?`,
		[]any{id},
		&spend.ID, &spend.UserID, &spend.SpendDate, &spend.Element, &spend.Price, &spend.IsAdmin, &spend.CreatedAt, &spend.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get spend: %w", err)
	}
	return spend, nil
}

// ListSpends returns every spend row, newest date first.
func (s *Store) ListSpends(ctx context.Context) ([]*models.SpendEntry, error) {
	return s.listSpends(ctx, "")
}

// ListSpendsByUser returns the spend rows paid by one user.
func (s *Store) ListSpendsByUser(ctx context.Context, userID int64) ([]*models.SpendEntry, error) {
	return s.listSpends(ctx, "WHERE user_id = ?", userID)
}

func (s *Store) listSpends(ctx context.Context, where string, args ...any) ([]*models.SpendEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db,
		`SELECT `+spendColumns+` FROM spend `+where+` ORDER BY spend_date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spends: %w", err)
	}
	defer rows.Close()

	var spends []*models.SpendEntry
	for rows.Next() {
		spend := &models.SpendEntry{}
		if err := rows.Scan(&spend.ID, &spend.UserID, &spend.SpendDate, &spend.Element, &spend.Price, &spend.IsAdmin, &spend.CreatedAt, &spend.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spend: %w", err)
		}
		spends = append(spends, spend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spends: %w", err)
	}
	return spends, nil
}

// UpdateSpend overwrites every field of an existing spend row.
func (s *Store) UpdateSpend(ctx context.Context, spend *models.SpendEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	spend.UpdatedAt = time.Now().Unix()
	res, err := s.exec(ctx, s.db,
		`UPDATE spend SET user_id = ?, spend_date = ?, element = ?, price = ?, is_admin = ?, updated_at = ? WHERE id = ?`,
		spend.UserID, spend.SpendDate, spend.Element, spend.Price, spend.IsAdmin, spend.UpdatedAt, spend.ID,
	)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to update spend: %w", err)
	}
	return nil
}

// DeleteSpend removes a spend row.
func (s *Store) DeleteSpend(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.exec(ctx, s.db, `DELETE FROM spend WHERE id = ?`, id)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to delete spend: %w", err)
	}
	return nil
}

package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/dormmess/internal/models"
)

// CreateDeposit inserts a deposit row and sets its ID.
func (s *Store) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stamp(&deposit.CreatedAt, &deposit.UpdatedAt)
	id, err := s.insert(ctx, s.db,
		`INSERT INTO deposit (user_id, deposit_date, amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		deposit.UserID, deposit.DepositDate, deposit.Amount, deposit.CreatedAt, deposit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	deposit.ID = id
	return nil
}

// GetDeposit retrieves a deposit row by ID.
func (s *Store) GetDeposit(ctx context.Context, id int64) (*models.Deposit, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d := &models.Deposit{}
	err := s.scanRow(ctx, s.db,
		`SELECT id, user_id, deposit_date, amount, created_at, updated_at FROM deposit WHERE id = ?`,
		[]any{id},
		&d.ID, &d.UserID, &d.DepositDate, &d.Amount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

// ListDeposits returns every deposit with its owner's name, newest date first.
func (s *Store) ListDeposits(ctx context.Context) ([]*models.DepositView, error) {
	return s.listDeposits(ctx, "")
}

// ListDepositsByUser returns one user's deposits, newest date first.
func (s *Store) ListDepositsByUser(ctx context.Context, userID int64) ([]*models.DepositView, error) {
	return s.listDeposits(ctx, "WHERE d.user_id = ?", userID)
}

func (s *Store) listDeposits(ctx context.Context, where string, args ...any) ([]*models.DepositView, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, s.db, `
		SELECT d.id, d.user_id, u.name, d.deposit_date, d.amount, d.created_at, d.updated_at
		FROM deposit d
		JOIN users u ON u.id = d.user_id
		`+where+`
		ORDER BY d.deposit_date DESC, d.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*models.DepositView
	for rows.Next() {
		v := &models.DepositView{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.DepositDate, &v.Amount, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposits: %w", err)
	}
	return deposits, nil
}

// UpdateDeposit overwrites every field of an existing deposit row.
func (s *Store) UpdateDeposit(ctx context.Context, deposit *models.Deposit) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	deposit.UpdatedAt = time.Now().Unix()
	res, err := s.exec(ctx, s.db,
		`UPDATE deposit SET user_id = ?, deposit_date = ?, amount = ?, updated_at = ? WHERE id = ?`,
		deposit.UserID, deposit.DepositDate, deposit.Amount, deposit.UpdatedAt, deposit.ID,
	)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return nil
}

// DeleteDeposit removes a deposit row.
func (s *Store) DeleteDeposit(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.exec(ctx, s.db, `DELETE FROM deposit WHERE id = ?`, id)
	if err == nil {
		err = mustAffect(res)
	}
	if err != nil {
		return fmt.Errorf("failed to delete deposit: %w", err)
	}
	return nil
}

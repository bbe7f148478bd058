package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

func TestLedgerValidation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	alice := mustUser(t, store, "alice")
	svc := NewLedgerService(store, NewAggregationService(store, 0, nil), false)
	day := models.MustParseDate("2024-03-01")

	t.Run("meals", func(t *testing.T) {
		tests := []struct {
			name    string
			meal    models.MealEntry
			wantErr error
		}{
			{"valid", models.MealEntry{UserID: alice.ID, MealTime: "lunch", MealDate: day, MealNumber: 2}, nil},
			{"missing meal time", models.MealEntry{UserID: alice.ID, MealTime: "  ", MealDate: day, MealNumber: 2}, ErrInvalidArgument},
			{"missing date", models.MealEntry{UserID: alice.ID, MealTime: "lunch", MealNumber: 2}, ErrInvalidArgument},
			{"zero meals", models.MealEntry{UserID: alice.ID, MealTime: "lunch", MealDate: day}, ErrInvalidArgument},
			{"unknown user", models.MealEntry{UserID: 9999, MealTime: "lunch", MealDate: day, MealNumber: 1}, ErrUserNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				meal := tt.meal
				err := svc.CreateMeal(ctx, &meal)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateMeal() error = %v, want %v", err, tt.wantErr)
				}
				if tt.wantErr == nil && meal.ID == 0 {
					t.Error("expected meal ID to be set")
				}
			})
		}
	})

	t.Run("spends", func(t *testing.T) {
		err := svc.CreateSpend(ctx, &models.SpendEntry{UserID: alice.ID, SpendDate: day, Element: "Fish", Price: dec("-5")})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for negative price, got %v", err)
		}
		err = svc.CreateSpend(ctx, &models.SpendEntry{UserID: alice.ID, SpendDate: day, Element: "Fish", Price: dec("250.75")})
		if err != nil {
			t.Errorf("CreateSpend failed: %v", err)
		}
	})

	t.Run("deposits", func(t *testing.T) {
		err := svc.CreateDeposit(ctx, &models.Deposit{UserID: alice.ID, DepositDate: day})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero amount, got %v", err)
		}
		err = svc.CreateDeposit(ctx, &models.Deposit{UserID: 9999, DepositDate: day, Amount: dec("10")})
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestLedgerUpdateAndDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	svc := NewLedgerService(store, NewAggregationService(store, 0, nil), false)

	deposit := &models.Deposit{UserID: alice.ID, DepositDate: models.MustParseDate("2024-03-01"), Amount: dec("100")}
	if err := svc.CreateDeposit(ctx, deposit); err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	deposit.UserID = bob.ID
	deposit.Amount = dec("150")
	if err := svc.UpdateDeposit(ctx, deposit); err != nil {
		t.Fatalf("UpdateDeposit failed: %v", err)
	}

	bobs, err := svc.ListDeposits(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListDeposits failed: %v", err)
	}
	if len(bobs) != 1 || bobs[0].Name != "bob" || !bobs[0].Amount.Equal(dec("150")) {
		t.Errorf("unexpected deposits for bob: %+v", bobs)
	}
	if alices, _ := svc.ListDeposits(ctx, alice.ID); len(alices) != 0 {
		t.Errorf("expected no deposits for alice, got %d", len(alices))
	}

	if err := svc.DeleteDeposit(ctx, deposit.ID); err != nil {
		t.Fatalf("DeleteDeposit failed: %v", err)
	}
	if _, err := svc.GetDeposit(ctx, deposit.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSpend(ctx, 12345); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing spend, got %v", err)
	}
}

func TestAutoRecompute(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	alice := mustUser(t, store, "alice")

	agg := NewAggregationService(store, time.Hour, nil)
	svc := NewLedgerService(store, agg, true)

	if err := svc.CreateSpend(ctx, &models.SpendEntry{UserID: alice.ID, SpendDate: models.MustParseDate("2024-03-01"), Element: "Rice", Price: dec("90")}); err != nil {
		t.Fatalf("CreateSpend failed: %v", err)
	}
	if err := svc.CreateMeal(ctx, &models.MealEntry{UserID: alice.ID, MealTime: "lunch", MealDate: models.MustParseDate("2024-03-01"), MealNumber: 3}); err != nil {
		t.Fatalf("CreateMeal failed: %v", err)
	}

	info, err := svc.PersonalInfo(ctx, alice.ID)
	if err != nil {
		t.Fatalf("PersonalInfo failed: %v", err)
	}
	if info.MealRate == nil || !info.MealRate.MealRate.Equal(dec("30")) {
		t.Errorf("expected meal rate 30 after auto recompute, got %+v", info.MealRate)
	}
	if info.OverallCalculation == nil || info.Status != "settled" {
		t.Errorf("expected settled balance, got %+v status=%q", info.OverallCalculation, info.Status)
	}
}

func TestPersonalInfoBeforeRecompute(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	alice := mustUser(t, store, "alice")
	svc := NewLedgerService(store, NewAggregationService(store, 0, nil), false)

	info, err := svc.PersonalInfo(ctx, alice.ID)
	if err != nil {
		t.Fatalf("PersonalInfo failed: %v", err)
	}
	if info.User.ID != alice.ID || info.MealRate != nil || info.OverallCalculation != nil {
		t.Errorf("unexpected info: %+v", info)
	}

	if _, err := svc.PersonalInfo(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

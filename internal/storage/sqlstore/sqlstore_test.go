package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/calculator"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

func newTestStore(t *testing.T, hooks ...Hook) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(context.Background(), Config{Driver: DriverSQLite, Path: dbPath, Hooks: hooks})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, name, email string) *models.User {
	t.Helper()
	user := models.NewUser(name, email, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "Alice", "alice@example.com")
	if alice.ID == 0 {
		t.Fatal("Expected user ID to be assigned")
	}

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != alice.ID || got.Name != "Alice" || got.PasswordHash != "hash" {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("Other", "alice@example.com", "x"))
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListUsers", func(t *testing.T) {
		createUser(t, store, "Bob", "bob@example.com")
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 || users[0].Name != "Alice" || users[1].Name != "Bob" {
			t.Errorf("unexpected users: %+v", users)
		}
	})
}

func TestEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "Alice", "alice@example.com")

	t.Run("meal lifecycle", func(t *testing.T) {
		meal := &models.MealEntry{
			UserID:     alice.ID,
			MealTime:   "lunch",
			MealDate:   models.MustParseDate("2024-03-01"),
			MealNumber: 2,
		}
		if err := store.CreateMeal(ctx, meal); err != nil {
			t.Fatalf("CreateMeal failed: %v", err)
		}
		if meal.ID == 0 || meal.CreatedAt == 0 {
			t.Fatalf("expected ID and CreatedAt to be set: %+v", meal)
		}

		meal.MealNumber = 3
		if err := store.UpdateMeal(ctx, meal); err != nil {
			t.Fatalf("UpdateMeal failed: %v", err)
		}

		got, err := store.GetMeal(ctx, meal.ID)
		if err != nil {
			t.Fatalf("GetMeal failed: %v", err)
		}
		if got.MealNumber != 3 || got.MealDate.String() != "2024-03-01" || got.MealTime != "lunch" {
			t.Errorf("unexpected meal: %+v", got)
		}

		if err := store.DeleteMeal(ctx, meal.ID); err != nil {
			t.Fatalf("DeleteMeal failed: %v", err)
		}
		if err := store.DeleteMeal(ctx, meal.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("meal for unknown user", func(t *testing.T) {
		err := store.CreateMeal(ctx, &models.MealEntry{
			UserID: 9999, MealTime: "dinner", MealDate: models.MustParseDate("2024-03-01"), MealNumber: 1,
		})
		if !errors.Is(err, storage.ErrForeignKey) {
			t.Errorf("expected ErrForeignKey, got %v", err)
		}
	})

	t.Run("spend keeps price and admin flag", func(t *testing.T) {
		spend := &models.SpendEntry{
			UserID:    alice.ID,
			SpendDate: models.MustParseDate("2024-03-02"),
			Element:   "Rice",
			Price:     decimal.RequireFromString("120.50"),
			IsAdmin:   true,
		}
		if err := store.CreateSpend(ctx, spend); err != nil {
			t.Fatalf("CreateSpend failed: %v", err)
		}

		spends, err := store.ListSpends(ctx)
		if err != nil {
			t.Fatalf("ListSpends failed: %v", err)
		}
		if len(spends) != 1 {
			t.Fatalf("expected 1 spend, got %d", len(spends))
		}
		if !spends[0].Price.Equal(decimal.RequireFromString("120.5")) || !spends[0].IsAdmin || spends[0].Element != "Rice" {
			t.Errorf("unexpected spend: %+v", spends[0])
		}

		if err := store.UpdateSpend(ctx, &models.SpendEntry{ID: 9999, UserID: alice.ID, SpendDate: spend.SpendDate, Element: "x"}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound updating missing spend, got %v", err)
		}
	})

	t.Run("deposits are listed with owner name", func(t *testing.T) {
		deposit := &models.Deposit{
			UserID:      alice.ID,
			DepositDate: models.MustParseDate("2024-03-03"),
			Amount:      decimal.NewFromInt(500),
		}
		if err := store.CreateDeposit(ctx, deposit); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}

		deposits, err := store.ListDeposits(ctx)
		if err != nil {
			t.Fatalf("ListDeposits failed: %v", err)
		}
		if len(deposits) != 1 || deposits[0].Name != "Alice" || !deposits[0].Amount.Equal(decimal.NewFromInt(500)) {
			t.Errorf("unexpected deposits: %+v", deposits)
		}
	})
}

func TestMenuItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lunch := &models.MenuItem{MealName: "Khichuri", Description: "With egg", MealTime: "lunch", MealDate: models.MustParseDate("2024-03-01")}
	dinner := &models.MenuItem{MealName: "Rice and fish", Description: "Rui curry", MealTime: "dinner", MealDate: models.MustParseDate("2024-03-02")}
	for _, item := range []*models.MenuItem{lunch, dinner} {
		if err := store.CreateMenuItem(ctx, item); err != nil {
			t.Fatalf("CreateMenuItem failed: %v", err)
		}
	}
	if lunch.ID == 0 || lunch.CreatedAt == 0 {
		t.Fatalf("expected ID and timestamps to be set: %+v", lunch)
	}

	items, err := store.ListMenuItems(ctx)
	if err != nil {
		t.Fatalf("ListMenuItems failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != dinner.ID {
		t.Fatalf("expected dinner first, got %+v", items)
	}

	lunch.Description = "With egg and salad"
	if err := store.UpdateMenuItem(ctx, lunch); err != nil {
		t.Fatalf("UpdateMenuItem failed: %v", err)
	}
	got, err := store.GetMenuItem(ctx, lunch.ID)
	if err != nil {
		t.Fatalf("GetMenuItem failed: %v", err)
	}
	if got.Description != "With egg and salad" || got.MealDate.String() != "2024-03-01" || got.CreatedAt != lunch.CreatedAt {
		t.Errorf("unexpected menu item after update: %+v", got)
	}

	if err := store.DeleteMenuItem(ctx, lunch.ID); err != nil {
		t.Fatalf("DeleteMenuItem failed: %v", err)
	}
	if _, err := store.GetMenuItem(ctx, lunch.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.UpdateMenuItem(ctx, lunch); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating deleted item, got %v", err)
	}
}

func TestUserTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	carol := createUser(t, store, "Carol", "carol@example.com")

	day := models.MustParseDate
	for _, m := range []*models.MealEntry{
		{UserID: alice.ID, MealTime: "lunch", MealDate: day("2024-03-01"), MealNumber: 2},
		{UserID: alice.ID, MealTime: "dinner", MealDate: day("2024-03-01"), MealNumber: 1},
		{UserID: alice.ID, MealTime: "lunch", MealDate: day("2024-04-01"), MealNumber: 4},
		{UserID: bob.ID, MealTime: "lunch", MealDate: day("2024-03-02"), MealNumber: 3},
	} {
		if err := store.CreateMeal(ctx, m); err != nil {
			t.Fatalf("CreateMeal failed: %v", err)
		}
	}
	for _, s := range []*models.SpendEntry{
		{UserID: alice.ID, SpendDate: day("2024-03-01"), Element: "Fish", Price: decimal.NewFromInt(300)},
		{UserID: alice.ID, SpendDate: day("2024-03-05"), Element: "Oil", Price: decimal.NewFromInt(100), IsAdmin: true},
	} {
		if err := store.CreateSpend(ctx, s); err != nil {
			t.Fatalf("CreateSpend failed: %v", err)
		}
	}
	for _, d := range []*models.Deposit{
		{UserID: alice.ID, DepositDate: day("2024-03-01"), Amount: decimal.NewFromInt(200)},
		{UserID: bob.ID, DepositDate: day("2024-03-01"), Amount: decimal.NewFromInt(250)},
		{UserID: bob.ID, DepositDate: day("2024-03-10"), Amount: decimal.NewFromInt(250)},
	} {
		if err := store.CreateDeposit(ctx, d); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}
	}

	t.Run("all time", func(t *testing.T) {
		totals, err := store.UserTotals(ctx, storage.Period{})
		if err != nil {
			t.Fatalf("UserTotals failed: %v", err)
		}
		if len(totals) != 3 {
			t.Fatalf("expected a row per user, got %d", len(totals))
		}

		a := totals[0]
		if a.UserID != alice.ID || a.TotalMeals != 7 ||
			!a.TotalSpend.Equal(decimal.NewFromInt(400)) ||
			!a.AdminSpend.Equal(decimal.NewFromInt(100)) ||
			!a.TotalDeposit.Equal(decimal.NewFromInt(200)) {
			t.Errorf("unexpected totals for alice: %+v", a)
		}

		b := totals[1]
		if b.TotalMeals != 3 || !b.TotalSpend.IsZero() || !b.TotalDeposit.Equal(decimal.NewFromInt(500)) {
			t.Errorf("unexpected totals for bob: %+v", b)
		}

		c := totals[2]
		if c.UserID != carol.ID || c.TotalMeals != 0 || !c.TotalSpend.IsZero() || !c.TotalDeposit.IsZero() {
			t.Errorf("expected zero totals for carol: %+v", c)
		}
	})

	t.Run("period", func(t *testing.T) {
		totals, err := store.UserTotals(ctx, storage.Period{From: day("2024-03-01"), To: day("2024-03-31")})
		if err != nil {
			t.Fatalf("UserTotals failed: %v", err)
		}
		if totals[0].TotalMeals != 3 {
			t.Errorf("expected April meals to be excluded, got %d", totals[0].TotalMeals)
		}
	})
}

func TestReplaceDerived(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")

	now := time.Unix(1700000000, 0)
	totals := []calculator.UserTotals{
		{UserID: alice.ID, TotalSpend: decimal.NewFromInt(300), TotalMeals: 3, TotalDeposit: decimal.NewFromInt(200)},
		{UserID: bob.ID, TotalSpend: decimal.Zero, TotalMeals: 0, TotalDeposit: decimal.NewFromInt(100)},
	}

	n, err := store.ReplaceMealRates(ctx, calculator.CalculateMealRates(totals, now))
	if err != nil {
		t.Fatalf("ReplaceMealRates failed: %v", err)
	}
	if n != 2 {
		t.Errorf("affected rows = %d, want 2", n)
	}

	// A second run must update in place rather than add rows.
	totals[0].TotalMeals = 6
	if _, err := store.ReplaceMealRates(ctx, calculator.CalculateMealRates(totals, now)); err != nil {
		t.Fatalf("second ReplaceMealRates failed: %v", err)
	}

	rates, err := store.ListMealRates(ctx)
	if err != nil {
		t.Fatalf("ListMealRates failed: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("expected 2 meal rates, got %d", len(rates))
	}
	if !rates[0].MealRate.Equal(decimal.NewFromInt(50)) || rates[0].TotalMealCount != 6 {
		t.Errorf("unexpected rate for alice: %+v", rates[0])
	}
	if !rates[1].MealRate.IsZero() {
		t.Errorf("expected zero rate for user without meals, got %s", rates[1].MealRate)
	}

	_, calcs := calculator.CalculateOverall(totals, now)
	if _, err := store.ReplaceOverallCalculations(ctx, calcs); err != nil {
		t.Fatalf("ReplaceOverallCalculations failed: %v", err)
	}

	got, err := store.GetOverallCalculation(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetOverallCalculation failed: %v", err)
	}
	// Mess rate 300/6 = 50; alice ate all 6 meals and contributed 200 + 300.
	if !got.TotalCost.Equal(decimal.NewFromInt(300)) || !got.DueOrGive.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected overall calculation: %+v", got)
	}
	if got.UpdatedAt != now.Unix() {
		t.Errorf("UpdatedAt = %d, want %d", got.UpdatedAt, now.Unix())
	}

	if _, err := store.GetMealRate(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHooks(t *testing.T) {
	var calls, failures atomic.Int64
	hook := HookFunc(func(_ context.Context, _ string, _ time.Duration, err error) {
		calls.Add(1)
		if err != nil {
			failures.Add(1)
		}
	})
	store := newTestStore(t, hook)
	ctx := context.Background()

	createUser(t, store, "Alice", "alice@example.com")
	_, _ = store.GetUserByID(ctx, 42)

	if calls.Load() != 2 {
		t.Errorf("hook calls = %d, want 2", calls.Load())
	}
	if failures.Load() != 1 {
		t.Errorf("hook failures = %d, want 1", failures.Load())
	}
}

func TestDialect(t *testing.T) {
	t.Run("rebind", func(t *testing.T) {
		pg, _ := lookupDialect("postgres")
		got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?")
		if got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
			t.Errorf("rebind = %q", got)
		}
		lite, _ := lookupDialect("")
		if q := "SELECT ?"; lite.rebind(q) != q {
			t.Errorf("sqlite rebind changed query")
		}
	})

	t.Run("upsert", func(t *testing.T) {
		cols := []string{"user_id", "meal_rate"}

		my, _ := lookupDialect("mysql")
		want := "INSERT INTO meal_rate (user_id, meal_rate) VALUES (?, ?) ON DUPLICATE KEY UPDATE meal_rate = VALUES(meal_rate)"
		if got := my.upsert("meal_rate", "user_id", cols); got != want {
			t.Errorf("mysql upsert = %q", got)
		}

		lite, _ := lookupDialect("sqlite")
		want = "INSERT INTO meal_rate (user_id, meal_rate) VALUES (?, ?) ON CONFLICT (user_id) DO UPDATE SET meal_rate = excluded.meal_rate"
		if got := lite.upsert("meal_rate", "user_id", cols); got != want {
			t.Errorf("sqlite upsert = %q", got)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := lookupDialect("oracle"); err == nil {
			t.Error("expected error for unsupported driver")
		}
	})

	t.Run("mysql dsn", func(t *testing.T) {
		dsn, err := mysqlDSN("root:pw@tcp(localhost:3306)/dorm?parseTime=true", true)
		if err != nil {
			t.Fatalf("mysqlDSN failed: %v", err)
		}
		if !strings.Contains(dsn, "multiStatements=true") || !strings.Contains(dsn, "clientFoundRows=true") {
			t.Errorf("mysqlDSN = %q, want multiStatements and clientFoundRows", dsn)
		}
		if strings.Contains(dsn, "parseTime=true") {
			t.Errorf("mysqlDSN = %q, want parseTime disabled", dsn)
		}
	})
}

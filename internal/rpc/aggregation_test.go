package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/auth"
	"github.com/mmynk/dormmess/internal/metrics"
	"github.com/mmynk/dormmess/internal/middleware"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/service"
	"github.com/mmynk/dormmess/internal/storage/sqlstore"
	"github.com/mmynk/dormmess/pkg/logging"
)

// setupTestServer serves the AggregationService from a temporary SQLite
// database seeded with two users.
func setupTestServer(t *testing.T, opts ...connect.HandlerOption) (*AggregationServiceClient, *sqlstore.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	aggregation := service.NewAggregationService(store, 0, nil)
	path, handler := NewAggregationServiceHandler(NewAggregationServer(aggregation), opts...)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return NewAggregationServiceClient(http.DefaultClient, server.URL), store
}

func seed(t *testing.T, store *sqlstore.Store) (alice, bob *models.User) {
	t.Helper()
	ctx := context.Background()
	date := models.MustParseDate("2024-03-01")

	alice = models.NewUser("Alice", "alice@example.com", "hash")
	bob = models.NewUser("Bob", "bob@example.com", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	meals := []*models.MealEntry{
		{UserID: alice.ID, MealTime: "lunch", MealDate: date, MealNumber: 3},
		{UserID: bob.ID, MealTime: "lunch", MealDate: date, MealNumber: 1},
	}
	for _, m := range meals {
		if err := store.CreateMeal(ctx, m); err != nil {
			t.Fatalf("CreateMeal failed: %v", err)
		}
	}
	spend := &models.SpendEntry{UserID: alice.ID, SpendDate: date, Element: "rice", Price: decimal.NewFromInt(400)}
	if err := store.CreateSpend(ctx, spend); err != nil {
		t.Fatalf("CreateSpend failed: %v", err)
	}
	return alice, bob
}

func TestRecompute(t *testing.T) {
	client, store := setupTestServer(t)
	seed(t, store)
	ctx := context.Background()

	t.Run("rejects unknown table", func(t *testing.T) {
		_, err := client.Recompute(ctx, connect.NewRequest(&RecomputeRequest{Tables: []string{"users"}}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want invalid_argument", connect.CodeOf(err))
		}
	})

	t.Run("meal rates only", func(t *testing.T) {
		resp, err := client.Recompute(ctx, connect.NewRequest(&RecomputeRequest{Tables: []string{service.TableMealRate}}))
		if err != nil {
			t.Fatalf("Recompute failed: %v", err)
		}
		if got := resp.Msg.Result.AffectedRows; got != 2 {
			t.Errorf("affected rows = %d, want 2", got)
		}

		overall, err := client.ListOverallCalculations(ctx, connect.NewRequest(&ListOverallCalculationsRequest{}))
		if err != nil {
			t.Fatalf("ListOverallCalculations failed: %v", err)
		}
		if len(overall.Msg.OverallCalculations) != 0 {
			t.Errorf("overall rows = %d, want 0", len(overall.Msg.OverallCalculations))
		}
	})

	t.Run("both tables", func(t *testing.T) {
		resp, err := client.Recompute(ctx, connect.NewRequest(&RecomputeRequest{}))
		if err != nil {
			t.Fatalf("Recompute failed: %v", err)
		}
		if len(resp.Msg.Result.Tables) != 2 {
			t.Errorf("tables = %v, want both", resp.Msg.Result.Tables)
		}
		if !resp.Msg.Result.MessMealRate.Equal(decimal.NewFromInt(100)) {
			t.Errorf("mess meal rate = %s, want 100", resp.Msg.Result.MessMealRate)
		}

		rates, err := client.ListMealRates(ctx, connect.NewRequest(&ListMealRatesRequest{}))
		if err != nil {
			t.Fatalf("ListMealRates failed: %v", err)
		}
		if len(rates.Msg.MealRates) != 2 {
			t.Fatalf("meal rates = %d, want 2", len(rates.Msg.MealRates))
		}
		if want := decimal.RequireFromString("133.33"); !rates.Msg.MealRates[0].MealRate.Equal(want) {
			t.Errorf("alice meal rate = %s, want %s", rates.Msg.MealRates[0].MealRate, want)
		}
	})
}

func TestPreview(t *testing.T) {
	client, store := setupTestServer(t)
	seed(t, store)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       *PreviewRequest
		wantCode  connect.Code
		wantMeals int64
	}{
		{name: "open period", req: &PreviewRequest{}, wantMeals: 4},
		{name: "covering period", req: &PreviewRequest{From: "2024-03-01", To: "2024-03-31"}, wantMeals: 4},
		{name: "later period", req: &PreviewRequest{From: "2024-04-01"}, wantMeals: 0},
		{name: "bad date", req: &PreviewRequest{From: "March"}, wantCode: connect.CodeInvalidArgument},
		{name: "inverted", req: &PreviewRequest{From: "2024-03-31", To: "2024-03-01"}, wantCode: connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Preview(ctx, connect.NewRequest(tt.req))
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Errorf("code = %v, want %v", connect.CodeOf(err), tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Preview failed: %v", err)
			}
			if got := resp.Msg.Summary.TotalMeals; got != tt.wantMeals {
				t.Errorf("total meals = %d, want %d", got, tt.wantMeals)
			}
		})
	}
}

func TestInterceptors(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New()
	client, _ := setupTestServer(t, middleware.Interceptors(jwtManager, true, m))
	ctx := context.Background()

	_, err := client.ListMealRates(ctx, connect.NewRequest(&ListMealRatesRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("anonymous call code = %v, want unauthenticated", connect.CodeOf(err))
	}

	token, err := jwtManager.Generate(&models.User{ID: 1, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	req := connect.NewRequest(&ListMealRatesRequest{})
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := client.ListMealRates(ctx, req); err != nil {
		t.Errorf("authenticated call failed: %v", err)
	}
}

// lockedBuffer is a bytes.Buffer safe for the server goroutine to write.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func TestInterceptorsLogCaller(t *testing.T) {
	var buf lockedBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(logging.NewHandler(&buf, slog.LevelDebug, "json")))
	t.Cleanup(func() { slog.SetDefault(prev) })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	client, _ := setupTestServer(t, middleware.Interceptors(jwtManager, false, nil))

	token, err := jwtManager.Generate(&models.User{ID: 42, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	req := connect.NewRequest(&ListMealRatesRequest{})
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := client.ListMealRates(context.Background(), req); err != nil {
		t.Fatalf("ListMealRates failed: %v", err)
	}

	found := false
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		var entry struct {
			Msg    string `json:"msg"`
			UserID int64  `json:"user_id"`
		}
		if json.Unmarshal(line, &entry) != nil || entry.Msg != "RPC ok" {
			continue
		}
		found = true
		if entry.UserID != 42 {
			t.Errorf("logged user_id = %d, want 42", entry.UserID)
		}
	}
	if !found {
		t.Errorf("no RPC log line in %q", buf.Bytes())
	}
}

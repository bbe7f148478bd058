package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

// MenuService manages the planned meal menu.
type MenuService struct {
	store storage.MenuStore
}

// NewMenuService creates a MenuService.
func NewMenuService(store storage.MenuStore) *MenuService {
	return &MenuService{store: store}
}

// CreateMenuItem validates and stores a menu item.
func (s *MenuService) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	slog.Info("CreateMenuItem request received", "meal_name", item.MealName, "meal_date", item.MealDate.String())

	if err := validateMenuItem(item); err != nil {
		return err
	}
	if err := s.store.CreateMenuItem(ctx, item); err != nil {
		slog.Error("CreateMenuItem failed", "error", err)
		return err
	}

	slog.Info("Menu item created", "menu_item_id", item.ID)
	return nil
}

// GetMenuItem returns one menu item.
func (s *MenuService) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.store.GetMenuItem(ctx, id)
}

// ListMenuItems returns the whole menu.
func (s *MenuService) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	return s.store.ListMenuItems(ctx)
}

// UpdateMenuItem replaces an existing menu item and returns it as stored.
func (s *MenuService) UpdateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	slog.Info("UpdateMenuItem request received", "menu_item_id", item.ID)

	if err := validateMenuItem(item); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMenuItem(ctx, item); err != nil {
		slog.Error("UpdateMenuItem failed", "menu_item_id", item.ID, "error", err)
		return nil, err
	}
	return s.store.GetMenuItem(ctx, item.ID)
}

// DeleteMenuItem removes a menu item.
func (s *MenuService) DeleteMenuItem(ctx context.Context, id int64) error {
	slog.Info("DeleteMenuItem request received", "menu_item_id", id)
	return s.store.DeleteMenuItem(ctx, id)
}

func validateMenuItem(item *models.MenuItem) error {
	item.MealName = strings.TrimSpace(item.MealName)
	item.Description = strings.TrimSpace(item.Description)
	item.MealTime = strings.TrimSpace(item.MealTime)
	if item.MealName == "" || item.Description == "" || item.MealTime == "" || item.MealDate.IsZero() {
		return invalidf("All fields are required")
	}
	return nil
}

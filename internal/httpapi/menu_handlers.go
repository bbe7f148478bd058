package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/dormmess/internal/models"
)

type menuItemRequest struct {
	MealName    string      `json:"meal_name" binding:"required"`
	Description string      `json:"description" binding:"required"`
	MealTime    string      `json:"meal_time" binding:"required"`
	MealDate    models.Date `json:"meal_date"`
}

func (r menuItemRequest) item(id int64) *models.MenuItem {
	return &models.MenuItem{ID: id, MealName: r.MealName, Description: r.Description, MealTime: r.MealTime, MealDate: r.MealDate}
}

func (h *handlers) listMenuItems(c *gin.Context) {
	items, err := h.menu.ListMenuItems(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meals retrieved successfully", "meals": nonNil(items)})
}

func (h *handlers) getMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.menu.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Meal not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal retrieved successfully", "meal": item})
}

func (h *handlers) createMenuItem(c *gin.Context) {
	var req menuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item := req.item(0)
	if err := h.menu.CreateMenuItem(c.Request.Context(), item); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Meal added successfully", "mealId": item.ID})
}

func (h *handlers) updateMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req menuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.menu.UpdateMenuItem(c.Request.Context(), req.item(id))
	if err != nil {
		respondError(c, err, "Meal not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal updated successfully", "meal": item})
}

func (h *handlers) deleteMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.menu.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondError(c, err, "Meal not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal deleted successfully"})
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/models"
)

type mealRequest struct {
	UserID     int64       `json:"user_id" binding:"required"`
	MealTime   string      `json:"meal_time" binding:"required"`
	MealDate   models.Date `json:"meal_date"`
	MealNumber int64       `json:"meal_number" binding:"required"`
}

func (r mealRequest) entry(id int64) *models.MealEntry {
	return &models.MealEntry{ID: id, UserID: r.UserID, MealTime: r.MealTime, MealDate: r.MealDate, MealNumber: r.MealNumber}
}

type spendRequest struct {
	UserID    int64           `json:"user_id" binding:"required"`
	SpendDate models.Date     `json:"spend_date"`
	Element   string          `json:"element" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	IsAdmin   bool            `json:"is_admin"`
}

func (r spendRequest) entry(id int64) *models.SpendEntry {
	return &models.SpendEntry{ID: id, UserID: r.UserID, SpendDate: r.SpendDate, Element: r.Element, Price: r.Price, IsAdmin: r.IsAdmin}
}

type depositRequest struct {
	UserID      int64           `json:"user_id" binding:"required"`
	DepositDate models.Date     `json:"deposit_date"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r depositRequest) entry(id int64) *models.Deposit {
	return &models.Deposit{ID: id, UserID: r.UserID, DepositDate: r.DepositDate, Amount: r.Amount}
}

// Users

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.ledger.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User records retrieved successfully", "users": nonNil(users)})
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.ledger.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User record retrieved successfully", "user": user})
}

func (h *handlers) personalInfo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	info, err := h.ledger.PersonalInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Personal info retrieved successfully", "personalInfo": info})
}

// Meals

func (h *handlers) listMeals(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	meals, err := h.ledger.ListMeals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal records retrieved successfully", "meals": nonNil(meals)})
}

func (h *handlers) getMeal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	meal, err := h.ledger.GetMeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Meal entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal entry retrieved successfully", "meal": meal})
}

func (h *handlers) createMeal(c *gin.Context) {
	var req mealRequest
	if !bindJSON(c, &req) {
		return
	}
	meal := req.entry(0)
	if err := h.ledger.CreateMeal(c.Request.Context(), meal); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Meal entry added successfully", "mealId": meal.ID})
}

func (h *handlers) updateMeal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req mealRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ledger.UpdateMeal(c.Request.Context(), req.entry(id)); err != nil {
		respondError(c, err, "Meal entry not found")
		return
	}
	meal, err := h.ledger.GetMeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Meal entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal entry updated successfully", "meal": meal})
}

func (h *handlers) deleteMeal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteMeal(c.Request.Context(), id); err != nil {
		respondError(c, err, "Meal entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal entry deleted successfully"})
}

// Spends

func (h *handlers) listSpends(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	spends, err := h.ledger.ListSpends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spend records retrieved successfully", "spends": nonNil(spends)})
}

func (h *handlers) getSpend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	spend, err := h.ledger.GetSpend(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Spend entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spend entry retrieved successfully", "spend": spend})
}

func (h *handlers) createSpend(c *gin.Context) {
	var req spendRequest
	if !bindJSON(c, &req) {
		return
	}
	spend := req.entry(0)
	if err := h.ledger.CreateSpend(c.Request.Context(), spend); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Spend entry added successfully", "spendId": spend.ID})
}

func (h *handlers) updateSpend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req spendRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ledger.UpdateSpend(c.Request.Context(), req.entry(id)); err != nil {
		respondError(c, err, "Spend entry not found")
		return
	}
	spend, err := h.ledger.GetSpend(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Spend entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spend entry updated successfully", "spend": spend})
}

func (h *handlers) deleteSpend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteSpend(c.Request.Context(), id); err != nil {
		respondError(c, err, "Spend entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spend entry deleted successfully"})
}

// Deposits

func (h *handlers) listDeposits(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	deposits, err := h.ledger.ListDeposits(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit records retrieved successfully", "deposits": nonNil(deposits)})
}

func (h *handlers) getDeposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deposit, err := h.ledger.GetDeposit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Deposit entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit entry retrieved successfully", "deposit": deposit})
}

func (h *handlers) createDeposit(c *gin.Context) {
	var req depositRequest
	if !bindJSON(c, &req) {
		return
	}
	deposit := req.entry(0)
	if err := h.ledger.CreateDeposit(c.Request.Context(), deposit); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Deposit entry added successfully", "depositId": deposit.ID})
}

func (h *handlers) updateDeposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req depositRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ledger.UpdateDeposit(c.Request.Context(), req.entry(id)); err != nil {
		respondError(c, err, "Deposit entry not found")
		return
	}
	deposit, err := h.ledger.GetDeposit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Deposit entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit entry updated successfully", "deposit": deposit})
}

func (h *handlers) deleteDeposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteDeposit(c.Request.Context(), id); err != nil {
		respondError(c, err, "Deposit entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit entry deleted successfully"})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

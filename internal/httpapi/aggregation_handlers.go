package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/dormmess/internal/storage"
)

func (h *handlers) listMealRates(c *gin.Context) {
	rates, err := h.aggregation.ListMealRates(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal rates retrieved successfully", "mealRates": nonNil(rates)})
}

func (h *handlers) getMealRate(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	rate, err := h.aggregation.GetMealRate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Meal rate not found for this user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal rate retrieved successfully", "mealRate": rate})
}

func (h *handlers) recomputeMealRates(c *gin.Context) {
	result, err := h.aggregation.RecomputeMealRates(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Meal rates calculated and inserted successfully",
		"affectedRows": result.AffectedRows,
		"result":       result,
	})
}

func (h *handlers) listOverall(c *gin.Context) {
	calcs, err := h.aggregation.ListOverall(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Overall calculations retrieved successfully", "overallCalculations": nonNil(calcs)})
}

func (h *handlers) getOverall(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	calc, err := h.aggregation.GetOverall(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Overall calculation not found for this user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Overall calculation retrieved successfully", "overallCalculation": calc})
}

func (h *handlers) recomputeOverall(c *gin.Context) {
	result, err := h.aggregation.RecomputeOverall(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Overall calculations calculated and inserted/updated successfully",
		"affectedRows": result.AffectedRows,
		"result":       result,
	})
}

func (h *handlers) recompute(c *gin.Context) {
	result, err := h.aggregation.Recompute(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Derived tables recomputed successfully",
		"affectedRows": result.AffectedRows,
		"result":       result,
	})
}

func (h *handlers) summary(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	summary, err := h.aggregation.Preview(c.Request.Context(), storage.Period{From: from, To: to})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Summary computed successfully", "summary": summary})
}

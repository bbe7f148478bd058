package rpc

import (
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/service"
)

// RecomputeRequest selects which derived tables to rebuild. Empty means both.
type RecomputeRequest struct {
	Tables []string `json:"tables,omitempty"`
}

type RecomputeResponse struct {
	Result *service.RecomputeResult `json:"result"`
}

type ListMealRatesRequest struct{}

type ListMealRatesResponse struct {
	MealRates []*models.MealRate `json:"meal_rates"`
}

type ListOverallCalculationsRequest struct{}

type ListOverallCalculationsResponse struct {
	OverallCalculations []*models.OverallCalculation `json:"overall_calculations"`
}

// PreviewRequest bounds the statement with optional YYYY-MM-DD dates.
type PreviewRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type PreviewResponse struct {
	Summary *service.Summary `json:"summary"`
}

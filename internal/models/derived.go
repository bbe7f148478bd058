package models

import "github.com/shopspring/decimal"

// MealRate is the derived cost-per-meal row for one user.
type MealRate struct {
	UserID         int64           `json:"user_id"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
	TotalMealCount int64           `json:"total_meal_count"`

	// MealRate is TotalSpend / TotalMealCount, or zero when no meals were eaten.
	MealRate decimal.Decimal `json:"meal_rate"`

	// UpdatedAt is the Unix timestamp of the recomputation that wrote the row.
	UpdatedAt int64 `json:"updated_at"`
}

// OverallCalculation is the derived balance row for one user.
type OverallCalculation struct {
	UserID         int64           `json:"user_id"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
	TotalMealCount int64           `json:"total_meal_amount"`
	TotalDeposit   decimal.Decimal `json:"total_deposit"`

	// TotalCost is the user's meals priced at the mess-wide meal rate.
	TotalCost decimal.Decimal `json:"total_cost"`

	// DueOrGive is the net balance.
	// Positive: the mess gives money back. Negative: the user owes.
	DueOrGive decimal.Decimal `json:"due_or_give"`

	UpdatedAt int64 `json:"updated_at"`
}

// PersonalInfo is a user together with their derived rows, if computed yet.
type PersonalInfo struct {
	User               *User               `json:"user"`
	MealRate           *MealRate           `json:"meal_rate,omitempty"`
	OverallCalculation *OverallCalculation `json:"overall_calculation,omitempty"`
	Status             string              `json:"status,omitempty"`
}

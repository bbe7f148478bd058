package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/models"
)

// moneyPlaces is the number of decimal places derived money values are rounded to.
const moneyPlaces = 2

// UserTotals holds one user's sums over the source tables.
type UserTotals struct {
	UserID       int64
	TotalSpend   decimal.Decimal // All spend entries, admin ones included
	AdminSpend   decimal.Decimal // Spend entries paid from the deposit pool
	TotalMeals   int64
	TotalDeposit decimal.Decimal
}

// MessTotals holds the sums across every user of the mess.
type MessTotals struct {
	TotalSpend   decimal.Decimal
	TotalMeals   int64
	TotalDeposit decimal.Decimal

	// MealRate is TotalSpend / TotalMeals, unrounded.
	MealRate decimal.Decimal
}

// Balance statuses reported for a due_or_give value.
const (
	StatusGive    = "give"
	StatusDue     = "due"
	StatusSettled = "settled"
)

// MealRate divides spend by meals, rounded to two places.
// Returns zero when no meals were eaten.
func MealRate(spend decimal.Decimal, meals int64) decimal.Decimal {
	return mealRate(spend, meals).Round(moneyPlaces)
}

func mealRate(spend decimal.Decimal, meals int64) decimal.Decimal {
	if meals <= 0 {
		return decimal.Zero
	}
	return spend.DivRound(decimal.NewFromInt(meals), 8)
}

// CalculateMealRates computes one meal rate row per user, preserving order.
func CalculateMealRates(totals []UserTotals, now time.Time) []models.MealRate {
	rates := make([]models.MealRate, 0, len(totals))
	for _, t := range totals {
		rates = append(rates, models.MealRate{
			UserID:         t.UserID,
			TotalSpend:     t.TotalSpend.Round(moneyPlaces),
			TotalMealCount: t.TotalMeals,
			MealRate:       MealRate(t.TotalSpend, t.TotalMeals),
			UpdatedAt:      now.Unix(),
		})
	}
	return rates
}

// CalculateMessTotals sums the per-user totals across the whole mess.
func CalculateMessTotals(totals []UserTotals) MessTotals {
	mess := MessTotals{
		TotalSpend:   decimal.Zero,
		TotalDeposit: decimal.Zero,
		MealRate:     decimal.Zero,
	}
	for _, t := range totals {
		mess.TotalSpend = mess.TotalSpend.Add(t.TotalSpend)
		mess.TotalMeals += t.TotalMeals
		mess.TotalDeposit = mess.TotalDeposit.Add(t.TotalDeposit)
	}
	mess.MealRate = mealRate(mess.TotalSpend, mess.TotalMeals)
	return mess
}

// CalculateOverall computes the overall balance row for every user.
//
// Algorithm:
//   - Mess meal rate = all spend / all meals (zero when nobody ate)
//   - total_cost = user's meals × mess meal rate
//   - due_or_give = deposits + personal spend - total_cost,
//     where personal spend excludes admin spends
//
// A positive due_or_give means the mess owes the user; negative means the
// user owes the mess.
func CalculateOverall(totals []UserTotals, now time.Time) (MessTotals, []models.OverallCalculation) {
	mess := CalculateMessTotals(totals)

	rows := make([]models.OverallCalculation, 0, len(totals))
	for _, t := range totals {
		cost := mess.MealRate.Mul(decimal.NewFromInt(t.TotalMeals)).Round(moneyPlaces)
		contributed := t.TotalDeposit.Add(t.TotalSpend.Sub(t.AdminSpend))

		rows = append(rows, models.OverallCalculation{
			UserID:         t.UserID,
			TotalSpend:     t.TotalSpend.Round(moneyPlaces),
			TotalMealCount: t.TotalMeals,
			TotalDeposit:   t.TotalDeposit.Round(moneyPlaces),
			TotalCost:      cost,
			DueOrGive:      contributed.Sub(cost).Round(moneyPlaces),
			UpdatedAt:      now.Unix(),
		})
	}
	return mess, rows
}

// Status classifies a due_or_give value.
func Status(dueOrGive decimal.Decimal) string {
	switch dueOrGive.Sign() {
	case 1:
		return StatusGive
	case -1:
		return StatusDue
	default:
		return StatusSettled
	}
}

package models

import "github.com/shopspring/decimal"

// MealEntry records the number of meals a user ate at one meal time.
type MealEntry struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	// MealTime is the slot the meals were eaten in (e.g. "breakfast", "lunch", "dinner").
	MealTime string `json:"meal_time"`

	MealDate Date `json:"meal_date"`

	// MealNumber is how many meals were eaten, guests included.
	MealNumber int64 `json:"meal_number"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// SpendEntry records a shared expense paid by a user.
type SpendEntry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	SpendDate Date            `json:"spend_date"`
	Element   string          `json:"element"`
	Price     decimal.Decimal `json:"price"`

	// IsAdmin marks purchases the manager made out of the deposit pool.
	// They count toward the mess total but are not the user's own contribution.
	IsAdmin bool `json:"is_admin"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Deposit records money a user handed to the mess manager.
type Deposit struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	DepositDate Date            `json:"deposit_date"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// DepositView is a Deposit joined with its owner's name, as listed to clients.
type DepositView struct {
	Deposit
	Name string `json:"name"`
}

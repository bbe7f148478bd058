package models

// MenuItem is a planned dish on the mess menu.
type MenuItem struct {
	ID          int64  `json:"id"`
	MealName    string `json:"meal_name"`
	Description string `json:"description"`
	MealTime    string `json:"meal_time"`
	MealDate    Date   `json:"meal_date"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

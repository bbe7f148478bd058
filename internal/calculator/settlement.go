package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/models"
)

// Transfer is one suggested payment from a user who owes the mess to a
// user the mess owes.
type Transfer struct {
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type party struct {
	userID int64
	amount decimal.Decimal
}

// SettleUp pairs users with a negative due_or_give against users with a
// positive one so every balance can be cleared directly between residents.
//
// Algorithm:
//   - Debtors and creditors are sorted by amount, largest first
//   - Greedy matching: each transfer is the smaller of the current debt
//     and the current credit, and whichever side reaches zero advances
//
// When the balances do not sum to zero (deposits still held by the
// manager, rounding), the remainder is left unmatched.
func SettleUp(rows []models.OverallCalculation) []Transfer {
	var debtors, creditors []party
	for _, r := range rows {
		switch r.DueOrGive.Sign() {
		case -1:
			debtors = append(debtors, party{userID: r.UserID, amount: r.DueOrGive.Neg()})
		case 1:
			creditors = append(creditors, party{userID: r.UserID, amount: r.DueOrGive})
		}
	}
	byAmount := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].userID < ps[j].userID
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		transfers = append(transfers, Transfer{
			FromUserID: d.userID,
			ToUserID:   c.userID,
			Amount:     amount,
		})

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)
		if d.amount.IsZero() {
			i++
		}
		if c.amount.IsZero() {
			j++
		}
	}
	return transfers
}

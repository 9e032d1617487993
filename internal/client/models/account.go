package models

import "time"

// PaperAccount is the provisioned paper trading account of a user. Its
// existence gates full application access.
type PaperAccount struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Currency    string    `json:"currency"`
	CashBalance float64   `json:"cash_balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a copy of a. A nil receiver yields nil.
func (a *PaperAccount) Clone() *PaperAccount {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

package models

import "time"

// CreditCard represents a credit card with its billing cycle parameters.
// ClosingDay and DueDay are days of month in 1..31; a day beyond a given
// month's length clamps to that month's last day.
type CreditCard struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Bank       string    `json:"bank"`
	LastFour   string    `json:"last_four"`
	ClosingDay int       `json:"closing_day"`
	DueDay     int       `json:"due_day"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

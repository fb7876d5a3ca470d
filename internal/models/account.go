package models

import "time"

// Account represents a bank account. The balance is kept in integer cents
// and is only mutated through atomic credit/debit operations tied to
// completed transactions and transfers, never recomputed from history.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Bank         string    `json:"bank"`
	BalanceCents int64     `json:"balance_cents"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

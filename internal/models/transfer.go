package models

import "time"

// Transfer moves money between two accounts. Completing a transfer debits
// the source and credits the destination atomically; a partial application
// is never observable.
type Transfer struct {
	ID            int64             `json:"id"`
	FromAccountID int64             `json:"from_account_id"`
	ToAccountID   int64             `json:"to_account_id"`
	AmountCents   int64             `json:"amount_cents"`
	Date          time.Time         `json:"date"`
	Status        TransactionStatus `json:"status"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

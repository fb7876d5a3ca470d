package models

import "time"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus is the lifecycle state of a transaction or transfer.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction represents a financial transaction. AccountID is nil for
// transactions ingested from notifications that could not be resolved to an
// account or card and await manual resolution. RecurrenceID links back to
// the recurrence that a confirmed occurrence materializes.
type Transaction struct {
	ID           int64             `json:"id"`
	AccountID    *int64            `json:"account_id,omitempty"`
	AmountCents  int64             `json:"amount_cents"`
	Type         TransactionType   `json:"type"`
	Category     string            `json:"category"`
	Date         time.Time         `json:"date"`
	Status       TransactionStatus `json:"status"`
	Description  string            `json:"description"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	RecurrenceID *int64            `json:"recurrence_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

package models

import "time"

// Frequency is the repetition unit of a recurrence.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Recurrence defines a repeating income or expense. It targets at most one
// of AccountID or CreditCardID.
type Recurrence struct {
	ID           int64           `json:"id"`
	Description  string          `json:"description"`
	AmountCents  int64           `json:"amount_cents"`
	Type         TransactionType `json:"type"`
	Frequency    Frequency       `json:"frequency"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	AccountID    *int64          `json:"account_id,omitempty"`
	CreditCardID *int64          `json:"credit_card_id,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProjectedRecurrence is an ephemeral pairing of a recurrence with one
// concrete projected date. IsConfirmed reports whether a real transaction
// (or card item) already exists for that (recurrence, date).
type ProjectedRecurrence struct {
	Recurrence  Recurrence `json:"recurrence"`
	Date        time.Time  `json:"date"`
	IsConfirmed bool       `json:"is_confirmed"`
}

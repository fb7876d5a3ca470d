package models

import "time"

// CreditCardItem represents a single charge on a bill. Items that share an
// InstallmentGroupID are slices of one purchase spread across consecutive
// bills; their category is kept synchronized across the whole group.
type CreditCardItem struct {
	ID                 int64      `json:"id"`
	BillID             int64      `json:"bill_id"`
	PurchaseDate       time.Time  `json:"purchase_date"`
	Description        string     `json:"description"`
	AmountCents        int64      `json:"amount_cents"`
	Category           string     `json:"category"`
	InstallmentGroupID *string    `json:"installment_group_id,omitempty"`
	InstallmentNumber  int        `json:"installment_number,omitempty"`
	InstallmentTotal   int        `json:"installment_total,omitempty"`
	RecurrenceID       *int64     `json:"recurrence_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

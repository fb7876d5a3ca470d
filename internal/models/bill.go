package models

import "time"

// BillStatus is the lifecycle state of a credit card bill.
type BillStatus string

const (
	BillStatusOpen    BillStatus = "OPEN"
	BillStatusClosed  BillStatus = "CLOSED"
	BillStatusPaid    BillStatus = "PAID"
	BillStatusOverdue BillStatus = "OVERDUE"
)

// CreditCardBill represents one billing cycle of a credit card. Exactly one
// bill exists per (card, month, year).
type CreditCardBill struct {
	ID         int64      `json:"id"`
	CardID     int64      `json:"card_id"`
	Month      time.Month `json:"month"`
	Year       int        `json:"year"`
	Status     BillStatus `json:"status"`
	TotalCents int64      `json:"total_cents"`
	DueDate    time.Time  `json:"due_date"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EffectiveStatus derives OVERDUE from the persisted status and the due
// date. OVERDUE is a function of (status, dueDate, now), not an independent
// transition.
func (b *CreditCardBill) EffectiveStatus(now time.Time) BillStatus {
	if (b.Status == BillStatusClosed || b.Status == BillStatusOverdue) &&
		b.PaidAt == nil && now.After(b.DueDate) {
		return BillStatusOverdue
	}
	return b.Status
}

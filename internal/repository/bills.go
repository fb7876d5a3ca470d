package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const billColumns = `id, card_id, month, year, status, total_cents, due_date, paid_at, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (*models.CreditCardBill, error) {
	bill := &models.CreditCardBill{}
	var month int
	var paidAt sql.NullTime
	err := row.Scan(&bill.ID, &bill.CardID, &month, &bill.Year, &bill.Status,
		&bill.TotalCents, &bill.DueDate, &paidAt, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bill.Month = time.Month(month)
	if paidAt.Valid {
		bill.PaidAt = &paidAt.Time
	}
	return bill, nil
}

// FindBillByID retrieves a bill by id
func (r *Repository) FindBillByID(ctx context.Context, id int64) (*models.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance.credit_card_bills WHERE id = $1`
	bill, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bill %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find bill", err)
	}
	return bill, nil
}

// FindBillByPeriod retrieves a card's bill for the given (month, year) period
func (r *Repository) FindBillByPeriod(ctx context.Context, cardID int64, month time.Month, year int) (*models.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance.credit_card_bills WHERE card_id = $1 AND month = $2 AND year = $3`
	bill, err := scanBill(r.db.QueryRowContext(ctx, query, cardID, int(month), year))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bill %d/%04d-%02d: %w", cardID, year, int(month), models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find bill by period", err)
	}
	return bill, nil
}

// CreateBillIfAbsent inserts the bill unless one already exists for its
// (card, month, year), and returns the stored row either way. The unique
// constraint makes creation race-free under concurrent callers.
func (r *Repository) CreateBillIfAbsent(ctx context.Context, bill *models.CreditCardBill) (*models.CreditCardBill, error) {
	query := `
		INSERT INTO finance.credit_card_bills (card_id, month, year, status, total_cents, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (card_id, month, year) DO NOTHING
		RETURNING ` + billColumns
	created, err := scanBill(r.db.QueryRowContext(ctx, query, bill.CardID, int(bill.Month), bill.Year,
		bill.Status, bill.TotalCents, bill.DueDate))
	if err == nil {
		return created, nil
	}
	if err != sql.ErrNoRows {
		return nil, wrapStorage("create bill", err)
	}
	return r.FindBillByPeriod(ctx, bill.CardID, bill.Month, bill.Year)
}

// ListOpenBillsByCard retrieves a card's OPEN bills in chronological order
func (r *Repository) ListOpenBillsByCard(ctx context.Context, cardID int64) ([]models.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance.credit_card_bills
		WHERE card_id = $1 AND status = $2 ORDER BY year, month`
	return r.queryBills(ctx, query, cardID, models.BillStatusOpen)
}

// ListBillsByCard retrieves all of a card's bills in chronological order
func (r *Repository) ListBillsByCard(ctx context.Context, cardID int64) ([]models.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance.credit_card_bills
		WHERE card_id = $1 ORDER BY year, month`
	return r.queryBills(ctx, query, cardID)
}

// ListUnpaidBills retrieves all CLOSED or OVERDUE bills across cards
func (r *Repository) ListUnpaidBills(ctx context.Context) ([]models.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance.credit_card_bills
		WHERE status IN ($1, $2) ORDER BY due_date`
	return r.queryBills(ctx, query, models.BillStatusClosed, models.BillStatusOverdue)
}

func (r *Repository) queryBills(ctx context.Context, query string, args ...any) ([]models.CreditCardBill, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStorage("list bills", err)
	}
	defer rows.Close()

	var bills []models.CreditCardBill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, wrapStorage("scan bill", err)
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

// CloseBill transitions an OPEN bill to CLOSED with its computed total and
// due date, and creates the successor period's OPEN bill if absent, all in
// one transaction so a closure is never half-applied. Returns false when
// the bill was not OPEN, which callers treat as an idempotent no-op.
func (r *Repository) CloseBill(ctx context.Context, billID int64, totalCents int64, dueDate time.Time, successor *models.CreditCardBill) (bool, error) {
	closed := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE finance.credit_card_bills
			SET status = $1, total_cents = $2, due_date = $3, updated_at = CURRENT_TIMESTAMP
			WHERE id = $4 AND status = $5`,
			models.BillStatusClosed, totalCents, dueDate, billID, models.BillStatusOpen)
		if err != nil {
			return wrapStorage("close bill", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapStorage("close bill", err)
		}
		if n == 0 {
			return nil
		}
		closed = true

		_, err = tx.ExecContext(ctx, `
			INSERT INTO finance.credit_card_bills (card_id, month, year, status, total_cents, due_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 0, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT (card_id, month, year) DO NOTHING`,
			successor.CardID, int(successor.Month), successor.Year, models.BillStatusOpen, successor.DueDate)
		if err != nil {
			return wrapStorage("create successor bill", err)
		}
		return nil
	})
	return closed, err
}

// PayBill transitions a CLOSED or OVERDUE bill to PAID and debits the
// paying account's balance in the same transaction; the status change and
// the balance effect are never observable separately. Returns false when
// the bill is already PAID (or still OPEN), an idempotent no-op.
func (r *Repository) PayBill(ctx context.Context, billID, accountID int64, paidAt time.Time) (bool, error) {
	paid := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status models.BillStatus
		var total int64
		err := tx.QueryRowContext(ctx, `
			SELECT status, total_cents FROM finance.credit_card_bills
			WHERE id = $1 FOR UPDATE`, billID).Scan(&status, &total)
		if err == sql.ErrNoRows {
			return fmt.Errorf("bill %d: %w", billID, models.ErrNotFound)
		}
		if err != nil {
			return wrapStorage("lock bill", err)
		}
		if status != models.BillStatusClosed && status != models.BillStatusOverdue {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE finance.credit_card_bills
			SET status = $1, paid_at = $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $3`, models.BillStatusPaid, paidAt, billID)
		if err != nil {
			return wrapStorage("pay bill", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE finance.accounts
			SET balance_cents = balance_cents - $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2`, total, accountID)
		if err != nil {
			return wrapStorage("debit account", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapStorage("debit account", err)
		}
		if n == 0 {
			return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
		}
		paid = true
		return nil
	})
	return paid, err
}

// MarkOverdueBills sweeps CLOSED, unpaid bills whose due date has passed
// into OVERDUE and returns how many were updated.
func (r *Repository) MarkOverdueBills(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.credit_card_bills
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND paid_at IS NULL AND due_date < $3`,
		models.BillStatusOverdue, models.BillStatusClosed, now)
	if err != nil {
		return 0, wrapStorage("mark overdue bills", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage("mark overdue bills", err)
	}
	return int(n), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const transactionColumns = `id, account_id, amount_cents, type, category, date, status,
	description, completed_at, recurrence_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	t := &models.Transaction{}
	var accountID, recurrenceID sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(&t.ID, &accountID, &t.AmountCents, &t.Type, &t.Category, &t.Date,
		&t.Status, &t.Description, &completedAt, &recurrenceID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if accountID.Valid {
		t.AccountID = &accountID.Int64
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if recurrenceID.Valid {
		t.RecurrenceID = &recurrenceID.Int64
	}
	return t, nil
}

func insertTransaction(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, t *models.Transaction) error {
	query := `
		INSERT INTO finance.transactions
			(account_id, amount_cents, type, category, date, status, description,
			 completed_at, recurrence_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	return q.QueryRowContext(ctx, query, t.AccountID, t.AmountCents, t.Type, t.Category,
		t.Date, t.Status, t.Description, t.CompletedAt, t.RecurrenceID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// CreateTransaction creates a new transaction in the database
func (r *Repository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := insertTransaction(ctx, r.db, t); err != nil {
		return wrapStorage("create transaction", err)
	}
	return nil
}

// CreateTransactionWithDedup records the notification dedup key and creates
// the transaction in one transaction, returning ErrDuplicateEvent when the
// key was already processed.
func (r *Repository) CreateTransactionWithDedup(ctx context.Context, dedupKey string, processedAt time.Time, t *models.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		inserted, err := insertDedupKey(ctx, tx, dedupKey, processedAt)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("dedup key %s: %w", dedupKey, models.ErrDuplicateEvent)
		}
		if err := insertTransaction(ctx, tx, t); err != nil {
			return wrapStorage("create transaction", err)
		}
		return nil
	})
}

// FindTransactionByID retrieves a transaction by id
func (r *Repository) FindTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM finance.transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find transaction", err)
	}
	return t, nil
}

// CompleteTransaction transitions a PENDING transaction to COMPLETED and
// applies its balance effect to the linked account in the same database
// transaction. Returns false when the transaction is not PENDING.
func (r *Repository) CompleteTransaction(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	completed := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status models.TransactionStatus
		var txType models.TransactionType
		var amount int64
		var accountID sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT status, type, amount_cents, account_id FROM finance.transactions
			WHERE id = $1 FOR UPDATE`, id).Scan(&status, &txType, &amount, &accountID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return wrapStorage("lock transaction", err)
		}
		if status != models.TransactionStatusPending {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE finance.transactions
			SET status = $1, completed_at = $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $3`, models.TransactionStatusCompleted, completedAt, id)
		if err != nil {
			return wrapStorage("complete transaction", err)
		}

		if accountID.Valid {
			delta := amount
			if txType == models.TransactionTypeExpense {
				delta = -amount
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE finance.accounts
				SET balance_cents = balance_cents + $1, updated_at = CURRENT_TIMESTAMP
				WHERE id = $2`, delta, accountID.Int64)
			if err != nil {
				return wrapStorage("apply balance", err)
			}
		}
		completed = true
		return nil
	})
	return completed, err
}

// CancelTransaction transitions a PENDING transaction to CANCELLED. No
// balance was applied yet, so none is reverted. Returns false when the
// transaction is not PENDING.
func (r *Repository) CancelTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.transactions
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3`,
		models.TransactionStatusCancelled, id, models.TransactionStatusPending)
	if err != nil {
		return false, wrapStorage("cancel transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage("cancel transaction", err)
	}
	return n > 0, nil
}

// ListTransactionDatesByRecurrence returns the dates of COMPLETED
// transactions linked to a recurrence within [from, to], used to confirm
// projected occurrences.
func (r *Repository) ListTransactionDatesByRecurrence(ctx context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT date FROM finance.transactions
		WHERE recurrence_id = $1 AND status = $2 AND date BETWEEN $3 AND $4
		ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, recurrenceID, models.TransactionStatusCompleted, from, to)
	if err != nil {
		return nil, wrapStorage("list transaction dates", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, wrapStorage("scan transaction date", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// IncomeExpenseTotals sums COMPLETED income and expense amounts for a month
func (r *Repository) IncomeExpenseTotals(ctx context.Context, month time.Month, year int) (income, expense int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE type = $1), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE type = $2), 0)
		FROM finance.transactions
		WHERE status = $3
		  AND EXTRACT(MONTH FROM date) = $4 AND EXTRACT(YEAR FROM date) = $5`
	err = r.db.QueryRowContext(ctx, query, models.TransactionTypeIncome, models.TransactionTypeExpense,
		models.TransactionStatusCompleted, int(month), year).Scan(&income, &expense)
	if err != nil {
		return 0, 0, wrapStorage("income/expense totals", err)
	}
	return income, expense, nil
}

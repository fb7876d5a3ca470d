package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// CreateTransfer creates a new transfer in the database
func (r *Repository) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO finance.transfers
			(from_account_id, to_account_id, amount_cents, date, status, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, t.FromAccountID, t.ToAccountID, t.AmountCents,
		t.Date, t.Status, t.CompletedAt).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return wrapStorage("create transfer", err)
	}
	return nil
}

// FindTransferByID retrieves a transfer by id
func (r *Repository) FindTransferByID(ctx context.Context, id int64) (*models.Transfer, error) {
	t := &models.Transfer{}
	var completedAt sql.NullTime
	query := `
		SELECT id, from_account_id, to_account_id, amount_cents, date, status, completed_at, created_at, updated_at
		FROM finance.transfers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.AmountCents, &t.Date,
			&t.Status, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find transfer", err)
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}

// CancelTransfer transitions a PENDING transfer to CANCELLED. Returns false
// when the transfer is not PENDING.
func (r *Repository) CancelTransfer(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.transfers
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3`,
		models.TransactionStatusCancelled, id, models.TransactionStatusPending)
	if err != nil {
		return false, wrapStorage("cancel transfer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage("cancel transfer", err)
	}
	return n > 0, nil
}

// CompleteTransfer transitions a PENDING transfer to COMPLETED, debiting
// the source account and crediting the destination in the same database
// transaction; no partial application is observable. Returns false when the
// transfer is not PENDING.
func (r *Repository) CompleteTransfer(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	done := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status models.TransactionStatus
		var from, to, amount int64
		err := tx.QueryRowContext(ctx, `
			SELECT status, from_account_id, to_account_id, amount_cents
			FROM finance.transfers WHERE id = $1 FOR UPDATE`, id).
			Scan(&status, &from, &to, &amount)
		if err == sql.ErrNoRows {
			return fmt.Errorf("transfer %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return wrapStorage("lock transfer", err)
		}
		if status != models.TransactionStatusPending {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE finance.transfers
			SET status = $1, completed_at = $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $3`, models.TransactionStatusCompleted, completedAt, id)
		if err != nil {
			return wrapStorage("complete transfer", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE finance.accounts
			SET balance_cents = balance_cents - $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2`, amount, from)
		if err != nil {
			return wrapStorage("debit source account", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE finance.accounts
			SET balance_cents = balance_cents + $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2`, amount, to)
		if err != nil {
			return wrapStorage("credit destination account", err)
		}
		done = true
		return nil
	})
	return done, err
}

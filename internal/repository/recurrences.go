package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const recurrenceColumns = `id, description, amount_cents, type, frequency, start_date,
	end_date, account_id, credit_card_id, active, created_at, updated_at`

func scanRecurrence(row interface{ Scan(...any) error }) (*models.Recurrence, error) {
	rec := &models.Recurrence{}
	var endDate sql.NullTime
	var accountID, cardID sql.NullInt64
	err := row.Scan(&rec.ID, &rec.Description, &rec.AmountCents, &rec.Type, &rec.Frequency,
		&rec.StartDate, &endDate, &accountID, &cardID, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		rec.EndDate = &endDate.Time
	}
	if accountID.Valid {
		rec.AccountID = &accountID.Int64
	}
	if cardID.Valid {
		rec.CreditCardID = &cardID.Int64
	}
	return rec, nil
}

// CreateRecurrence creates a new recurrence definition in the database
func (r *Repository) CreateRecurrence(ctx context.Context, rec *models.Recurrence) error {
	query := `
		INSERT INTO finance.recurrences
			(description, amount_cents, type, frequency, start_date, end_date,
			 account_id, credit_card_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	var endDate any
	if rec.EndDate != nil {
		endDate = *rec.EndDate
	}
	err := r.db.QueryRowContext(ctx, query, rec.Description, rec.AmountCents, rec.Type,
		rec.Frequency, rec.StartDate, endDate, rec.AccountID, rec.CreditCardID, rec.Active).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return wrapStorage("create recurrence", err)
	}
	return nil
}

// FindRecurrenceByID retrieves a recurrence by id
func (r *Repository) FindRecurrenceByID(ctx context.Context, id int64) (*models.Recurrence, error) {
	query := `SELECT ` + recurrenceColumns + ` FROM finance.recurrences WHERE id = $1`
	rec, err := scanRecurrence(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recurrence %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find recurrence", err)
	}
	return rec, nil
}

// ListActiveRecurrences retrieves all active recurrence definitions
func (r *Repository) ListActiveRecurrences(ctx context.Context) ([]models.Recurrence, error) {
	query := `SELECT ` + recurrenceColumns + ` FROM finance.recurrences WHERE active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapStorage("list recurrences", err)
	}
	defer rows.Close()

	var recs []models.Recurrence
	for rows.Next() {
		rec, err := scanRecurrence(rows)
		if err != nil {
			return nil, wrapStorage("scan recurrence", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// DeactivateRecurrence clears the active flag; past occurrences stay as
// recorded transactions.
func (r *Repository) DeactivateRecurrence(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.recurrences
		SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id)
	if err != nil {
		return wrapStorage("deactivate recurrence", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStorage("deactivate recurrence", err)
	}
	if n == 0 {
		return fmt.Errorf("recurrence %d: %w", id, models.ErrNotFound)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const itemColumns = `id, bill_id, purchase_date, description, amount_cents, category,
	installment_group_id, installment_number, installment_total, recurrence_id, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.CreditCardItem, error) {
	item := &models.CreditCardItem{}
	var groupID sql.NullString
	var number, total sql.NullInt64
	var recurrenceID sql.NullInt64
	err := row.Scan(&item.ID, &item.BillID, &item.PurchaseDate, &item.Description,
		&item.AmountCents, &item.Category, &groupID, &number, &total, &recurrenceID,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if groupID.Valid {
		item.InstallmentGroupID = &groupID.String
	}
	item.InstallmentNumber = int(number.Int64)
	item.InstallmentTotal = int(total.Int64)
	if recurrenceID.Valid {
		item.RecurrenceID = &recurrenceID.Int64
	}
	return item, nil
}

func insertItem(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, item *models.CreditCardItem) error {
	query := `
		INSERT INTO finance.credit_card_items
			(bill_id, purchase_date, description, amount_cents, category,
			 installment_group_id, installment_number, installment_total, recurrence_id,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	var number, total any
	if item.InstallmentTotal > 0 {
		number, total = item.InstallmentNumber, item.InstallmentTotal
	}
	return q.QueryRowContext(ctx, query, item.BillID, item.PurchaseDate, item.Description,
		item.AmountCents, item.Category, item.InstallmentGroupID, number, total, item.RecurrenceID).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// CreateItem creates a new bill item in the database
func (r *Repository) CreateItem(ctx context.Context, item *models.CreditCardItem) error {
	if err := insertItem(ctx, r.db, item); err != nil {
		return wrapStorage("create item", err)
	}
	return nil
}

// CreateItemWithDedup records the notification dedup key and creates the
// item in one transaction. The key insert is an atomic insert-if-absent; a
// concurrent or repeated delivery of the same key returns ErrDuplicateEvent
// and creates nothing.
func (r *Repository) CreateItemWithDedup(ctx context.Context, dedupKey string, processedAt time.Time, item *models.CreditCardItem) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		inserted, err := insertDedupKey(ctx, tx, dedupKey, processedAt)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("dedup key %s: %w", dedupKey, models.ErrDuplicateEvent)
		}
		if err := insertItem(ctx, tx, item); err != nil {
			return wrapStorage("create item", err)
		}
		return nil
	})
}

// FindItemByID retrieves a bill item by id
func (r *Repository) FindItemByID(ctx context.Context, id int64) (*models.CreditCardItem, error) {
	query := `SELECT ` + itemColumns + ` FROM finance.credit_card_items WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find item", err)
	}
	return item, nil
}

// ListItemsByBill retrieves all items attached to a bill
func (r *Repository) ListItemsByBill(ctx context.Context, billID int64) ([]models.CreditCardItem, error) {
	query := `SELECT ` + itemColumns + ` FROM finance.credit_card_items WHERE bill_id = $1 ORDER BY purchase_date, id`
	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, wrapStorage("list items", err)
	}
	defer rows.Close()

	var items []models.CreditCardItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, wrapStorage("scan item", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SumItemAmounts returns the total of a bill's item amounts in cents
func (r *Repository) SumItemAmounts(ctx context.Context, billID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM finance.credit_card_items WHERE bill_id = $1`
	if err := r.db.QueryRowContext(ctx, query, billID).Scan(&total); err != nil {
		return 0, wrapStorage("sum items", err)
	}
	return total, nil
}

// UpdateItemCategory updates the category of a single ungrouped item
func (r *Repository) UpdateItemCategory(ctx context.Context, id int64, category string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.credit_card_items
		SET category = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, category, id)
	if err != nil {
		return wrapStorage("update item category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStorage("update item category", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// UpdateCategoryByGroup updates the category of every item in an
// installment group as a single group-wide write.
func (r *Repository) UpdateCategoryByGroup(ctx context.Context, groupID, category string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE finance.credit_card_items
		SET category = $1, updated_at = CURRENT_TIMESTAMP
		WHERE installment_group_id = $2`, category, groupID)
	if err != nil {
		return 0, wrapStorage("update group category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage("update group category", err)
	}
	return int(n), nil
}

// ListItemDatesByRecurrence returns the purchase dates of items linked to a
// recurrence within [from, to], used to confirm projected occurrences of
// card-targeted recurrences.
func (r *Repository) ListItemDatesByRecurrence(ctx context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT purchase_date FROM finance.credit_card_items
		WHERE recurrence_id = $1 AND purchase_date BETWEEN $2 AND $3
		ORDER BY purchase_date`
	rows, err := r.db.QueryContext(ctx, query, recurrenceID, from, to)
	if err != nil {
		return nil, wrapStorage("list item dates", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, wrapStorage("scan item date", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

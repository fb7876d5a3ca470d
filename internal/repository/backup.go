package repository

import (
	"context"
	"database/sql"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// ExportAll reads every persisted collection for a backup document.
func (r *Repository) ExportAll(ctx context.Context) (*models.BackupData, error) {
	data := &models.BackupData{}

	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	data.Accounts = accounts

	cards, err := r.queryCards(ctx, `SELECT `+cardColumns+` FROM finance.credit_cards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	data.CreditCards = cards

	bills, err := r.queryBills(ctx, `SELECT `+billColumns+` FROM finance.credit_card_bills ORDER BY id`)
	if err != nil {
		return nil, err
	}
	data.CreditCardBills = bills

	if err := r.exportItems(ctx, data); err != nil {
		return nil, err
	}
	if err := r.exportTransactions(ctx, data); err != nil {
		return nil, err
	}
	if err := r.exportRecurrences(ctx, data); err != nil {
		return nil, err
	}
	if err := r.exportTransfers(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Repository) exportItems(ctx context.Context, data *models.BackupData) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM finance.credit_card_items ORDER BY id`)
	if err != nil {
		return wrapStorage("export items", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return wrapStorage("export items", err)
		}
		data.CreditCardItems = append(data.CreditCardItems, *item)
	}
	return rows.Err()
}

func (r *Repository) exportTransactions(ctx context.Context, data *models.BackupData) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM finance.transactions ORDER BY id`)
	if err != nil {
		return wrapStorage("export transactions", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return wrapStorage("export transactions", err)
		}
		data.Transactions = append(data.Transactions, *t)
	}
	return rows.Err()
}

func (r *Repository) exportRecurrences(ctx context.Context, data *models.BackupData) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurrenceColumns+` FROM finance.recurrences ORDER BY id`)
	if err != nil {
		return wrapStorage("export recurrences", err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanRecurrence(rows)
		if err != nil {
			return wrapStorage("export recurrences", err)
		}
		data.Recurrences = append(data.Recurrences, *rec)
	}
	return rows.Err()
}

func (r *Repository) exportTransfers(ctx context.Context, data *models.BackupData) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_account_id, to_account_id, amount_cents, date, status, completed_at, created_at, updated_at
		FROM finance.transfers ORDER BY id`)
	if err != nil {
		return wrapStorage("export transfers", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Transfer
		var completedAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.AmountCents,
			&t.Date, &t.Status, &completedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return wrapStorage("export transfers", err)
		}
		if completedAt.Valid {
			t.CompletedAt = &completedAt.Time
		}
		data.Transfers = append(data.Transfers, t)
	}
	return rows.Err()
}

// ImportAll replaces every persisted collection with the backup document's
// contents in a single database transaction; either the whole document
// applies or nothing does.
func (r *Repository) ImportAll(ctx context.Context, data *models.BackupData) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		// Children first to satisfy foreign keys.
		deletes := []string{
			`DELETE FROM finance.credit_card_items`,
			`DELETE FROM finance.credit_card_bills`,
			`DELETE FROM finance.transactions`,
			`DELETE FROM finance.transfers`,
			`DELETE FROM finance.recurrences`,
			`DELETE FROM finance.credit_cards`,
			`DELETE FROM finance.accounts`,
		}
		for _, q := range deletes {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return wrapStorage("clear table", err)
			}
		}

		for i := range data.Accounts {
			a := &data.Accounts[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.accounts (id, name, bank, balance_cents, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				a.ID, a.Name, a.Bank, a.BalanceCents, a.Active, a.CreatedAt, a.UpdatedAt)
			if err != nil {
				return wrapStorage("import account", err)
			}
		}
		for i := range data.CreditCards {
			c := &data.CreditCards[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.credit_cards (id, name, bank, last_four, closing_day, due_day, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				c.ID, c.Name, c.Bank, c.LastFour, c.ClosingDay, c.DueDay, c.Active, c.CreatedAt, c.UpdatedAt)
			if err != nil {
				return wrapStorage("import card", err)
			}
		}
		for i := range data.CreditCardBills {
			b := &data.CreditCardBills[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.credit_card_bills (id, card_id, month, year, status, total_cents, due_date, paid_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				b.ID, b.CardID, int(b.Month), b.Year, b.Status, b.TotalCents, b.DueDate, b.PaidAt, b.CreatedAt, b.UpdatedAt)
			if err != nil {
				return wrapStorage("import bill", err)
			}
		}
		for i := range data.CreditCardItems {
			it := &data.CreditCardItems[i]
			var number, total any
			if it.InstallmentTotal > 0 {
				number, total = it.InstallmentNumber, it.InstallmentTotal
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.credit_card_items
					(id, bill_id, purchase_date, description, amount_cents, category,
					 installment_group_id, installment_number, installment_total, recurrence_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				it.ID, it.BillID, it.PurchaseDate, it.Description, it.AmountCents, it.Category,
				it.InstallmentGroupID, number, total, it.RecurrenceID, it.CreatedAt, it.UpdatedAt)
			if err != nil {
				return wrapStorage("import item", err)
			}
		}
		for i := range data.Transactions {
			t := &data.Transactions[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.transactions
					(id, account_id, amount_cents, type, category, date, status, description,
					 completed_at, recurrence_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				t.ID, t.AccountID, t.AmountCents, t.Type, t.Category, t.Date, t.Status,
				t.Description, t.CompletedAt, t.RecurrenceID, t.CreatedAt, t.UpdatedAt)
			if err != nil {
				return wrapStorage("import transaction", err)
			}
		}
		for i := range data.Recurrences {
			rec := &data.Recurrences[i]
			var endDate any
			if rec.EndDate != nil {
				endDate = *rec.EndDate
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.recurrences
					(id, description, amount_cents, type, frequency, start_date, end_date,
					 account_id, credit_card_id, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				rec.ID, rec.Description, rec.AmountCents, rec.Type, rec.Frequency, rec.StartDate,
				endDate, rec.AccountID, rec.CreditCardID, rec.Active, rec.CreatedAt, rec.UpdatedAt)
			if err != nil {
				return wrapStorage("import recurrence", err)
			}
		}
		for i := range data.Transfers {
			t := &data.Transfers[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO finance.transfers
					(id, from_account_id, to_account_id, amount_cents, date, status, completed_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				t.ID, t.FromAccountID, t.ToAccountID, t.AmountCents, t.Date, t.Status,
				t.CompletedAt, t.CreatedAt, t.UpdatedAt)
			if err != nil {
				return wrapStorage("import transfer", err)
			}
		}

		// Re-align sequences with the imported ids.
		sequences := []string{
			"finance.accounts", "finance.credit_cards", "finance.credit_card_bills",
			"finance.credit_card_items", "finance.transactions", "finance.recurrences",
			"finance.transfers",
		}
		for _, table := range sequences {
			_, err := tx.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence($1, 'id'), COALESCE((SELECT MAX(id) FROM `+table+`), 1))`,
				table)
			if err != nil {
				return wrapStorage("reset sequence", err)
			}
		}
		return nil
	})
}

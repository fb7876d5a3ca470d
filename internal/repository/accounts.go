package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO finance.accounts (name, bank, balance_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, account.Name, account.Bank, account.BalanceCents, account.Active).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return wrapStorage("create account", err)
	}
	return nil
}

// FindAccountByID retrieves an account by id
func (r *Repository) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, name, bank, balance_cents, active, created_at, updated_at
		FROM finance.accounts
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.Name, &account.Bank, &account.BalanceCents,
			&account.Active, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find account", err)
	}
	return account, nil
}

// ListAccounts retrieves all accounts
func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT id, name, bank, balance_cents, active, created_at, updated_at
		FROM finance.accounts
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapStorage("list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Bank, &a.BalanceCents,
			&a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, wrapStorage("scan account", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

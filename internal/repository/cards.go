package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const cardColumns = `id, name, bank, last_four, closing_day, due_day, active, created_at, updated_at`

func scanCard(row interface{ Scan(...any) error }) (*models.CreditCard, error) {
	card := &models.CreditCard{}
	err := row.Scan(&card.ID, &card.Name, &card.Bank, &card.LastFour,
		&card.ClosingDay, &card.DueDay, &card.Active, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// CreateCard creates a new credit card in the database
func (r *Repository) CreateCard(ctx context.Context, card *models.CreditCard) error {
	query := `
		INSERT INTO finance.credit_cards (name, bank, last_four, closing_day, due_day, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, card.Name, card.Bank, card.LastFour,
		card.ClosingDay, card.DueDay, card.Active).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return wrapStorage("create card", err)
	}
	return nil
}

// FindCardByID retrieves a credit card by id
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM finance.credit_cards WHERE id = $1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorage("find card", err)
	}
	return card, nil
}

// ListActiveCards retrieves all active credit cards
func (r *Repository) ListActiveCards(ctx context.Context) ([]models.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM finance.credit_cards WHERE active ORDER BY id`
	return r.queryCards(ctx, query)
}

// FindActiveCardsByLastFour retrieves active cards matching the given last
// four digits. More than one match means the caller cannot resolve the card
// unambiguously.
func (r *Repository) FindActiveCardsByLastFour(ctx context.Context, lastFour string) ([]models.CreditCard, error) {
	query := `SELECT ` + cardColumns + ` FROM finance.credit_cards WHERE active AND last_four = $1 ORDER BY id`
	return r.queryCards(ctx, query, lastFour)
}

func (r *Repository) queryCards(ctx context.Context, query string, args ...any) ([]models.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStorage("list cards", err)
	}
	defer rows.Close()

	var cards []models.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, wrapStorage("scan card", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

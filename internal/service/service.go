package service

import (
	"context"
	"fmt"

	"github.com/ialvarenga/financial-management-sub001/internal/config"
	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// Service handles business logic
type Service struct {
	repo   Repository
	log    *logrus.Logger
	config *config.Config
	rates  RateProvider
	mailer ReminderSender
}

// NewService initializes a new service. rates and mailer are optional; when
// nil the penalty estimate uses a zero rate and no reminders are sent.
func NewService(repo Repository, log *logrus.Logger, cfg *config.Config, rates RateProvider, mailer ReminderSender) *Service {
	return &Service{repo: repo, log: log, config: cfg, rates: rates, mailer: mailer}
}

// CreateAccount creates a new account
func (s *Service) CreateAccount(ctx context.Context, name, bank string, initialBalanceCents int64) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	account := &models.Account{
		Name:         name,
		Bank:         bank,
		BalanceCents: initialBalanceCents,
		Active:       true,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.log.Infof("Account created: %s (%s)", account.Name, account.Bank)
	return account, nil
}

// ListAccounts retrieves all accounts
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// CreateCard creates a new credit card after validating its cycle days
func (s *Service) CreateCard(ctx context.Context, name, bank, lastFour string, closingDay, dueDay int) (*models.CreditCard, error) {
	if name == "" {
		return nil, fmt.Errorf("card name is required")
	}
	if closingDay < 1 || closingDay > 31 {
		return nil, fmt.Errorf("closing day %d out of range 1..31: %w", closingDay, models.ErrInvalidPeriod)
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, fmt.Errorf("due day %d out of range 1..31: %w", dueDay, models.ErrInvalidPeriod)
	}
	if len(lastFour) != 4 {
		return nil, fmt.Errorf("last four digits must be exactly 4 characters")
	}
	card := &models.CreditCard{
		Name:       name,
		Bank:       bank,
		LastFour:   lastFour,
		ClosingDay: closingDay,
		DueDay:     dueDay,
		Active:     true,
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card created: %s (*%s), closes day %d, due day %d",
		card.Name, card.LastFour, card.ClosingDay, card.DueDay)
	return card, nil
}

// ListCards retrieves all active credit cards
func (s *Service) ListCards(ctx context.Context) ([]models.CreditCard, error) {
	return s.repo.ListActiveCards(ctx)
}

// getOrCreateBill returns the card's bill for the period, creating it OPEN
// with a provisional due date when absent.
func (s *Service) getOrCreateBill(ctx context.Context, card *models.CreditCard, p utils.Period) (*models.CreditCardBill, error) {
	bill := &models.CreditCardBill{
		CardID:  card.ID,
		Month:   p.Month,
		Year:    p.Year,
		Status:  models.BillStatusOpen,
		DueDate: dueDateFor(card, p),
	}
	return s.repo.CreateBillIfAbsent(ctx, bill)
}

package service

import (
	"context"
	"io"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/config"
	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestService(repo Repository) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		RetentionDays:  30,
		ClosureRetries: 3,
	}
	return NewService(repo, log, cfg, nil, nil)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCard(repo *mockRepository, name, lastFour string, closingDay, dueDay int) *models.CreditCard {
	card := &models.CreditCard{
		Name:       name,
		Bank:       "Test Bank",
		LastFour:   lastFour,
		ClosingDay: closingDay,
		DueDay:     dueDay,
		Active:     true,
	}
	repo.CreateCard(context.Background(), card)
	return card
}

func seedAccount(repo *mockRepository, name string, balance int64) *models.Account {
	account := &models.Account{Name: name, Bank: "Test Bank", BalanceCents: balance, Active: true}
	repo.CreateAccount(context.Background(), account)
	return account
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// CreateTransfer registers a PENDING transfer between two accounts
func (s *Service) CreateTransfer(ctx context.Context, fromAccountID, toAccountID, amountCents int64, date time.Time) (*models.Transfer, error) {
	if fromAccountID == toAccountID {
		return nil, fmt.Errorf("transfer source and destination must differ")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amountCents)
	}
	if _, err := s.repo.FindAccountByID(ctx, fromAccountID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindAccountByID(ctx, toAccountID); err != nil {
		return nil, err
	}

	transfer := &models.Transfer{
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		AmountCents:   amountCents,
		Date:          utils.Midnight(date),
		Status:        models.TransactionStatusPending,
	}
	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	s.log.Infof("Transfer %d created: %d cents from account %d to %d",
		transfer.ID, amountCents, fromAccountID, toAccountID)
	return transfer, nil
}

// CompleteTransfer applies a pending transfer: the source debit and
// destination credit happen in the same storage transaction as the status
// change. Completing an already-completed transfer is a no-op.
func (s *Service) CompleteTransfer(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	done, err := s.repo.CompleteTransfer(ctx, id, completedAt)
	if err != nil {
		return false, err
	}
	if !done {
		s.log.Infof("Transfer %d not pending, skipping", id)
		return false, nil
	}
	s.log.Infof("Transfer %d completed", id)
	return true, nil
}

// CancelTransfer cancels a pending transfer. No balance was applied, so
// none is reverted; cancelling a non-pending transfer is a no-op.
func (s *Service) CancelTransfer(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.FindTransferByID(ctx, id); err != nil {
		return false, err
	}
	cancelled, err := s.repo.CancelTransfer(ctx, id)
	if err != nil {
		return false, err
	}
	if !cancelled {
		s.log.Infof("Transfer %d not pending, skipping cancel", id)
	}
	return cancelled, nil
}

// GetTransfer retrieves a transfer by id
func (s *Service) GetTransfer(ctx context.Context, id int64) (*models.Transfer, error) {
	return s.repo.FindTransferByID(ctx, id)
}

// CreateTransaction registers a manual transaction for an account
func (s *Service) CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if t.AmountCents <= 0 {
		return nil, fmt.Errorf("transaction amount must be positive, got %d", t.AmountCents)
	}
	if t.AccountID != nil {
		if _, err := s.repo.FindAccountByID(ctx, *t.AccountID); err != nil {
			return nil, err
		}
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}
	t.Date = utils.Midnight(t.Date)
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CancelTransaction cancels a pending transaction before it is completed.
func (s *Service) CancelTransaction(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.FindTransactionByID(ctx, id); err != nil {
		return false, err
	}
	cancelled, err := s.repo.CancelTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if !cancelled {
		s.log.Infof("Transaction %d not pending, skipping cancel", id)
	}
	return cancelled, nil
}

// GetTransaction retrieves a transaction by id
func (s *Service) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.repo.FindTransactionByID(ctx, id)
}

// CompleteTransaction marks a pending transaction completed, applying its
// balance effect atomically with the status change.
func (s *Service) CompleteTransaction(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	done, err := s.repo.CompleteTransaction(ctx, id, completedAt)
	if err != nil {
		return false, err
	}
	if !done {
		s.log.Infof("Transaction %d not pending, skipping", id)
	}
	return done, nil
}

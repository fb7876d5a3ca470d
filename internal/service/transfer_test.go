package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

func TestCompleteTransferMovesBothBalances(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	from := seedAccount(repo, "Checking", 100000)
	to := seedAccount(repo, "Savings", 5000)

	transfer, err := svc.CreateTransfer(ctx, from.ID, to.ID, 30000, date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("CreateTransfer failed: %v", err)
	}
	if transfer.Status != models.TransactionStatusPending {
		t.Fatalf("new transfer status = %s, want PENDING", transfer.Status)
	}

	done, err := svc.CompleteTransfer(ctx, transfer.ID, time.Now().UTC())
	if err != nil || !done {
		t.Fatalf("CompleteTransfer = (%v, %v), want (true, nil)", done, err)
	}

	fromAfter, _ := repo.FindAccountByID(ctx, from.ID)
	toAfter, _ := repo.FindAccountByID(ctx, to.ID)
	if fromAfter.BalanceCents != 70000 {
		t.Errorf("source balance = %d, want 70000", fromAfter.BalanceCents)
	}
	if toAfter.BalanceCents != 35000 {
		t.Errorf("destination balance = %d, want 35000", toAfter.BalanceCents)
	}

	// Completing again must not move money twice.
	done, err = svc.CompleteTransfer(ctx, transfer.ID, time.Now().UTC())
	if err != nil || done {
		t.Fatalf("second CompleteTransfer = (%v, %v), want (false, nil)", done, err)
	}
	fromAfter, _ = repo.FindAccountByID(ctx, from.ID)
	if fromAfter.BalanceCents != 70000 {
		t.Errorf("source balance after repeat = %d, want 70000", fromAfter.BalanceCents)
	}
}

func TestCreateTransferValidation(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	a := seedAccount(repo, "Checking", 100000)

	if _, err := svc.CreateTransfer(ctx, a.ID, a.ID, 1000, date(2024, time.March, 1)); err == nil {
		t.Error("same-account transfer accepted")
	}
	if _, err := svc.CreateTransfer(ctx, a.ID, a.ID+1, 0, date(2024, time.March, 1)); err == nil {
		t.Error("zero-amount transfer accepted")
	}
	if _, err := svc.CreateTransfer(ctx, a.ID, 999, 1000, date(2024, time.March, 1)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing destination error = %v, want ErrNotFound", err)
	}
}

func TestCancelTransfer(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	from := seedAccount(repo, "Checking", 100000)
	to := seedAccount(repo, "Savings", 0)

	transfer, err := svc.CreateTransfer(ctx, from.ID, to.ID, 30000, date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("CreateTransfer failed: %v", err)
	}

	cancelled, err := svc.CancelTransfer(ctx, transfer.ID)
	if err != nil || !cancelled {
		t.Fatalf("CancelTransfer = (%v, %v), want (true, nil)", cancelled, err)
	}

	// A cancelled transfer can no longer complete, and balances stay put.
	done, err := svc.CompleteTransfer(ctx, transfer.ID, time.Now().UTC())
	if err != nil || done {
		t.Fatalf("CompleteTransfer after cancel = (%v, %v), want (false, nil)", done, err)
	}
	fromAfter, _ := repo.FindAccountByID(ctx, from.ID)
	if fromAfter.BalanceCents != 100000 {
		t.Errorf("source balance = %d, want 100000", fromAfter.BalanceCents)
	}
}

func TestCompleteTransactionAppliesDelta(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	account := seedAccount(repo, "Checking", 50000)

	txn, err := svc.CreateTransaction(ctx, &models.Transaction{
		AccountID:   &account.ID,
		AmountCents: 12000,
		Type:        models.TransactionTypeExpense,
		Category:    "Groceries",
		Date:        date(2024, time.March, 5),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	done, err := svc.CompleteTransaction(ctx, txn.ID, time.Now().UTC())
	if err != nil || !done {
		t.Fatalf("CompleteTransaction = (%v, %v), want (true, nil)", done, err)
	}
	after, _ := repo.FindAccountByID(ctx, account.ID)
	if after.BalanceCents != 38000 {
		t.Errorf("balance = %d, want 38000", after.BalanceCents)
	}

	done, err = svc.CompleteTransaction(ctx, txn.ID, time.Now().UTC())
	if err != nil || done {
		t.Fatalf("second CompleteTransaction = (%v, %v), want (false, nil)", done, err)
	}
}

func TestCancelTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	account := seedAccount(repo, "Checking", 50000)

	txn, err := svc.CreateTransaction(ctx, &models.Transaction{
		AccountID:   &account.ID,
		AmountCents: 12000,
		Type:        models.TransactionTypeExpense,
		Date:        date(2024, time.March, 5),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	cancelled, err := svc.CancelTransaction(ctx, txn.ID)
	if err != nil || !cancelled {
		t.Fatalf("CancelTransaction = (%v, %v), want (true, nil)", cancelled, err)
	}
	done, err := svc.CompleteTransaction(ctx, txn.ID, time.Now().UTC())
	if err != nil || done {
		t.Fatalf("CompleteTransaction after cancel = (%v, %v), want (false, nil)", done, err)
	}
	after, _ := repo.FindAccountByID(ctx, account.ID)
	if after.BalanceCents != 50000 {
		t.Errorf("balance = %d, want 50000", after.BalanceCents)
	}
}

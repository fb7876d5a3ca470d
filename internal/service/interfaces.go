package service

import (
	"context"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// Repository is the persistence surface the service depends on. The
// Postgres implementation lives in internal/repository; tests substitute an
// in-memory implementation. Methods that pair a state transition with a
// balance effect (PayBill, CompleteTransaction, CompleteTransfer) and the
// dedup-key variants apply their writes in a single database transaction.
type Repository interface {
	// Accounts
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByID(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// Credit cards
	CreateCard(ctx context.Context, card *models.CreditCard) error
	FindCardByID(ctx context.Context, id int64) (*models.CreditCard, error)
	ListActiveCards(ctx context.Context) ([]models.CreditCard, error)
	FindActiveCardsByLastFour(ctx context.Context, lastFour string) ([]models.CreditCard, error)

	// Bills
	FindBillByID(ctx context.Context, id int64) (*models.CreditCardBill, error)
	FindBillByPeriod(ctx context.Context, cardID int64, month time.Month, year int) (*models.CreditCardBill, error)
	CreateBillIfAbsent(ctx context.Context, bill *models.CreditCardBill) (*models.CreditCardBill, error)
	ListOpenBillsByCard(ctx context.Context, cardID int64) ([]models.CreditCardBill, error)
	ListBillsByCard(ctx context.Context, cardID int64) ([]models.CreditCardBill, error)
	ListUnpaidBills(ctx context.Context) ([]models.CreditCardBill, error)
	CloseBill(ctx context.Context, billID int64, totalCents int64, dueDate time.Time, successor *models.CreditCardBill) (bool, error)
	PayBill(ctx context.Context, billID, accountID int64, paidAt time.Time) (bool, error)
	MarkOverdueBills(ctx context.Context, now time.Time) (int, error)

	// Bill items
	CreateItem(ctx context.Context, item *models.CreditCardItem) error
	CreateItemWithDedup(ctx context.Context, dedupKey string, processedAt time.Time, item *models.CreditCardItem) error
	FindItemByID(ctx context.Context, id int64) (*models.CreditCardItem, error)
	ListItemsByBill(ctx context.Context, billID int64) ([]models.CreditCardItem, error)
	SumItemAmounts(ctx context.Context, billID int64) (int64, error)
	UpdateItemCategory(ctx context.Context, id int64, category string) error
	UpdateCategoryByGroup(ctx context.Context, groupID, category string) (int, error)
	ListItemDatesByRecurrence(ctx context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error)

	// Recurrences
	CreateRecurrence(ctx context.Context, rec *models.Recurrence) error
	FindRecurrenceByID(ctx context.Context, id int64) (*models.Recurrence, error)
	ListActiveRecurrences(ctx context.Context) ([]models.Recurrence, error)
	DeactivateRecurrence(ctx context.Context, id int64) error

	// Transactions
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	CreateTransactionWithDedup(ctx context.Context, dedupKey string, processedAt time.Time, t *models.Transaction) error
	FindTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	CompleteTransaction(ctx context.Context, id int64, completedAt time.Time) (bool, error)
	CancelTransaction(ctx context.Context, id int64) (bool, error)
	ListTransactionDatesByRecurrence(ctx context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error)
	IncomeExpenseTotals(ctx context.Context, month time.Month, year int) (income, expense int64, err error)

	// Transfers
	CreateTransfer(ctx context.Context, t *models.Transfer) error
	FindTransferByID(ctx context.Context, id int64) (*models.Transfer, error)
	CompleteTransfer(ctx context.Context, id int64, completedAt time.Time) (bool, error)
	CancelTransfer(ctx context.Context, id int64) (bool, error)

	// Processed notifications
	NotificationProcessed(ctx context.Context, dedupKey string) (bool, error)
	PruneProcessedNotifications(ctx context.Context, before time.Time) (int, error)

	// Users
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Backup
	ExportAll(ctx context.Context) (*models.BackupData, error)
	ImportAll(ctx context.Context, data *models.BackupData) error
}

// RateProvider supplies the current key rate, used as the penalty rate on
// overdue bills in credit burden analytics.
type RateProvider interface {
	GetKeyRate() (float64, error)
}

// ReminderSender delivers bill reminders after a closure run.
type ReminderSender interface {
	SendBillClosedReminder(to string, card models.CreditCard, bill models.CreditCardBill) error
	SendBillOverdueNotice(to string, card models.CreditCard, bill models.CreditCardBill) error
}

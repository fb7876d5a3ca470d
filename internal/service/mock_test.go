package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// mockRepository is an in-memory Repository for tests. Multi-row operations
// mirror the transactional guarantees of the Postgres implementation under
// a single mutex. failNext makes the next n calls fail with the given
// error, for exercising retry paths.
type mockRepository struct {
	mu sync.Mutex

	accounts      map[int64]*models.Account
	cards         map[int64]*models.CreditCard
	bills         map[int64]*models.CreditCardBill
	items         map[int64]*models.CreditCardItem
	recurrences   map[int64]*models.Recurrence
	transactions  map[int64]*models.Transaction
	transfers     map[int64]*models.Transfer
	users         map[int64]*models.User
	dedupKeys     map[string]time.Time
	nextID        int64
	failNextCalls int
	failErr       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts:     make(map[int64]*models.Account),
		cards:        make(map[int64]*models.CreditCard),
		bills:        make(map[int64]*models.CreditCardBill),
		items:        make(map[int64]*models.CreditCardItem),
		recurrences:  make(map[int64]*models.Recurrence),
		transactions: make(map[int64]*models.Transaction),
		transfers:    make(map[int64]*models.Transfer),
		users:        make(map[int64]*models.User),
		dedupKeys:    make(map[string]time.Time),
	}
}

func (m *mockRepository) failNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNextCalls = n
	m.failErr = err
}

func (m *mockRepository) maybeFail() error {
	if m.failNextCalls > 0 {
		m.failNextCalls--
		return m.failErr
	}
	return nil
}

func (m *mockRepository) id() int64 {
	m.nextID++
	return m.nextID
}

// Accounts

func (m *mockRepository) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	a.ID = m.id()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *mockRepository) FindAccountByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return nil, err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, models.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) ListAccounts(_ context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

// Cards

func (m *mockRepository) CreateCard(_ context.Context, c *models.CreditCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	c.ID = m.id()
	cp := *c
	m.cards[c.ID] = &cp
	return nil
}

func (m *mockRepository) FindCardByID(_ context.Context, id int64) (*models.CreditCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %d: %w", id, models.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) ListActiveCards(_ context.Context) ([]models.CreditCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.CreditCard
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.cards[id]; ok && c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockRepository) FindActiveCardsByLastFour(_ context.Context, lastFour string) ([]models.CreditCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CreditCard
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.cards[id]; ok && c.Active && c.LastFour == lastFour {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Bills

func (m *mockRepository) FindBillByID(_ context.Context, id int64) (*models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %d: %w", id, models.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepository) findBillByPeriodLocked(cardID int64, month time.Month, year int) *models.CreditCardBill {
	for _, b := range m.bills {
		if b.CardID == cardID && b.Month == month && b.Year == year {
			return b
		}
	}
	return nil
}

func (m *mockRepository) FindBillByPeriod(_ context.Context, cardID int64, month time.Month, year int) (*models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return nil, err
	}
	if b := m.findBillByPeriodLocked(cardID, month, year); b != nil {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("bill %d/%04d-%02d: %w", cardID, year, int(month), models.ErrNotFound)
}

func (m *mockRepository) CreateBillIfAbsent(_ context.Context, bill *models.CreditCardBill) (*models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return nil, err
	}
	if b := m.findBillByPeriodLocked(bill.CardID, bill.Month, bill.Year); b != nil {
		cp := *b
		return &cp, nil
	}
	bill.ID = m.id()
	cp := *bill
	m.bills[bill.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockRepository) ListOpenBillsByCard(_ context.Context, cardID int64) ([]models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.CreditCardBill
	for _, b := range m.bills {
		if b.CardID == cardID && b.Status == models.BillStatusOpen {
			out = append(out, *b)
		}
	}
	sortBills(out)
	return out, nil
}

func (m *mockRepository) ListBillsByCard(_ context.Context, cardID int64) ([]models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CreditCardBill
	for _, b := range m.bills {
		if b.CardID == cardID {
			out = append(out, *b)
		}
	}
	sortBills(out)
	return out, nil
}

func (m *mockRepository) ListUnpaidBills(_ context.Context) ([]models.CreditCardBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CreditCardBill
	for _, b := range m.bills {
		if b.Status == models.BillStatusClosed || b.Status == models.BillStatusOverdue {
			out = append(out, *b)
		}
	}
	sortBills(out)
	return out, nil
}

func sortBills(bills []models.CreditCardBill) {
	for i := 1; i < len(bills); i++ {
		for j := i; j > 0; j-- {
			a, b := &bills[j-1], &bills[j]
			if b.Year < a.Year || (b.Year == a.Year && b.Month < a.Month) {
				bills[j-1], bills[j] = bills[j], bills[j-1]
			}
		}
	}
}

func (m *mockRepository) CloseBill(_ context.Context, billID int64, totalCents int64, dueDate time.Time, successor *models.CreditCardBill) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return false, err
	}
	b, ok := m.bills[billID]
	if !ok || b.Status != models.BillStatusOpen {
		return false, nil
	}
	b.Status = models.BillStatusClosed
	b.TotalCents = totalCents
	b.DueDate = dueDate
	if m.findBillByPeriodLocked(successor.CardID, successor.Month, successor.Year) == nil {
		successor.ID = m.id()
		cp := *successor
		m.bills[successor.ID] = &cp
	}
	return true, nil
}

func (m *mockRepository) PayBill(_ context.Context, billID, accountID int64, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return false, err
	}
	b, ok := m.bills[billID]
	if !ok {
		return false, fmt.Errorf("bill %d: %w", billID, models.ErrNotFound)
	}
	if b.Status != models.BillStatusClosed && b.Status != models.BillStatusOverdue {
		return false, nil
	}
	a, ok := m.accounts[accountID]
	if !ok {
		return false, fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	b.Status = models.BillStatusPaid
	b.PaidAt = &paidAt
	a.BalanceCents -= b.TotalCents
	return true, nil
}

func (m *mockRepository) MarkOverdueBills(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range m.bills {
		if b.Status == models.BillStatusClosed && b.PaidAt == nil && b.DueDate.Before(now) {
			b.Status = models.BillStatusOverdue
			n++
		}
	}
	return n, nil
}

// Items

func (m *mockRepository) CreateItem(_ context.Context, item *models.CreditCardItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	item.ID = m.id()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepository) CreateItemWithDedup(_ context.Context, dedupKey string, processedAt time.Time, item *models.CreditCardItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	if _, exists := m.dedupKeys[dedupKey]; exists {
		return fmt.Errorf("dedup key %s: %w", dedupKey, models.ErrDuplicateEvent)
	}
	m.dedupKeys[dedupKey] = processedAt
	item.ID = m.id()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepository) FindItemByID(_ context.Context, id int64) (*models.CreditCardItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, models.ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (m *mockRepository) ListItemsByBill(_ context.Context, billID int64) ([]models.CreditCardItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CreditCardItem
	for id := int64(1); id <= m.nextID; id++ {
		if it, ok := m.items[id]; ok && it.BillID == billID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockRepository) SumItemAmounts(_ context.Context, billID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return 0, err
	}
	var total int64
	for _, it := range m.items {
		if it.BillID == billID {
			total += it.AmountCents
		}
	}
	return total, nil
}

func (m *mockRepository) UpdateItemCategory(_ context.Context, id int64, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, models.ErrNotFound)
	}
	it.Category = category
	return nil
}

func (m *mockRepository) UpdateCategoryByGroup(_ context.Context, groupID, category string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.InstallmentGroupID != nil && *it.InstallmentGroupID == groupID {
			it.Category = category
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) ListItemDatesByRecurrence(_ context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, it := range m.items {
		if it.RecurrenceID != nil && *it.RecurrenceID == recurrenceID &&
			!it.PurchaseDate.Before(from) && !it.PurchaseDate.After(to) {
			out = append(out, it.PurchaseDate)
		}
	}
	return out, nil
}

// Recurrences

func (m *mockRepository) CreateRecurrence(_ context.Context, rec *models.Recurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	cp := *rec
	m.recurrences[rec.ID] = &cp
	return nil
}

func (m *mockRepository) FindRecurrenceByID(_ context.Context, id int64) (*models.Recurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recurrences[id]
	if !ok {
		return nil, fmt.Errorf("recurrence %d: %w", id, models.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepository) ListActiveRecurrences(_ context.Context) ([]models.Recurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Recurrence
	for id := int64(1); id <= m.nextID; id++ {
		if rec, ok := m.recurrences[id]; ok && rec.Active {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockRepository) DeactivateRecurrence(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recurrences[id]
	if !ok {
		return fmt.Errorf("recurrence %d: %w", id, models.ErrNotFound)
	}
	rec.Active = false
	return nil
}

// Transactions

func (m *mockRepository) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	t.ID = m.id()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *mockRepository) CreateTransactionWithDedup(_ context.Context, dedupKey string, processedAt time.Time, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	if _, exists := m.dedupKeys[dedupKey]; exists {
		return fmt.Errorf("dedup key %s: %w", dedupKey, models.ErrDuplicateEvent)
	}
	m.dedupKeys[dedupKey] = processedAt
	t.ID = m.id()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *mockRepository) FindTransactionByID(_ context.Context, id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) CompleteTransaction(_ context.Context, id int64, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return false, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	if t.Status != models.TransactionStatusPending {
		return false, nil
	}
	t.Status = models.TransactionStatusCompleted
	t.CompletedAt = &completedAt
	if t.AccountID != nil {
		if a, ok := m.accounts[*t.AccountID]; ok {
			if t.Type == models.TransactionTypeExpense {
				a.BalanceCents -= t.AmountCents
			} else {
				a.BalanceCents += t.AmountCents
			}
		}
	}
	return true, nil
}

func (m *mockRepository) CancelTransaction(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.Status != models.TransactionStatusPending {
		return false, nil
	}
	t.Status = models.TransactionStatusCancelled
	return true, nil
}

func (m *mockRepository) ListTransactionDatesByRecurrence(_ context.Context, recurrenceID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, t := range m.transactions {
		if t.RecurrenceID != nil && *t.RecurrenceID == recurrenceID &&
			t.Status == models.TransactionStatusCompleted &&
			!t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t.Date)
		}
	}
	return out, nil
}

func (m *mockRepository) IncomeExpenseTotals(_ context.Context, month time.Month, year int) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var income, expense int64
	for _, t := range m.transactions {
		if t.Status != models.TransactionStatusCompleted || t.Date.Month() != month || t.Date.Year() != year {
			continue
		}
		if t.Type == models.TransactionTypeIncome {
			income += t.AmountCents
		} else {
			expense += t.AmountCents
		}
	}
	return income, expense, nil
}

// Transfers

func (m *mockRepository) CreateTransfer(_ context.Context, t *models.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	cp := *t
	m.transfers[t.ID] = &cp
	return nil
}

func (m *mockRepository) FindTransferByID(_ context.Context, id int64) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return nil, fmt.Errorf("transfer %d: %w", id, models.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) CompleteTransfer(_ context.Context, id int64, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return false, fmt.Errorf("transfer %d: %w", id, models.ErrNotFound)
	}
	if t.Status != models.TransactionStatusPending {
		return false, nil
	}
	t.Status = models.TransactionStatusCompleted
	t.CompletedAt = &completedAt
	if from, ok := m.accounts[t.FromAccountID]; ok {
		from.BalanceCents -= t.AmountCents
	}
	if to, ok := m.accounts[t.ToAccountID]; ok {
		to.BalanceCents += t.AmountCents
	}
	return true, nil
}

func (m *mockRepository) CancelTransfer(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok || t.Status != models.TransactionStatusPending {
		return false, nil
	}
	t.Status = models.TransactionStatusCancelled
	return true, nil
}

// Processed notifications

func (m *mockRepository) NotificationProcessed(_ context.Context, dedupKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return false, err
	}
	_, ok := m.dedupKeys[dedupKey]
	return ok, nil
}

func (m *mockRepository) PruneProcessedNotifications(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return 0, err
	}
	n := 0
	for key, at := range m.dedupKeys {
		if at.Before(before) {
			delete(m.dedupKeys, key)
			n++
		}
	}
	return n, nil
}

// Users

func (m *mockRepository) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockRepository) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
}

// Backup

func (m *mockRepository) ExportAll(_ context.Context) (*models.BackupData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := &models.BackupData{}
	for _, a := range m.accounts {
		data.Accounts = append(data.Accounts, *a)
	}
	for _, c := range m.cards {
		data.CreditCards = append(data.CreditCards, *c)
	}
	for _, b := range m.bills {
		data.CreditCardBills = append(data.CreditCardBills, *b)
	}
	for _, it := range m.items {
		data.CreditCardItems = append(data.CreditCardItems, *it)
	}
	for _, t := range m.transactions {
		data.Transactions = append(data.Transactions, *t)
	}
	for _, rec := range m.recurrences {
		data.Recurrences = append(data.Recurrences, *rec)
	}
	for _, t := range m.transfers {
		data.Transfers = append(data.Transfers, *t)
	}
	return data, nil
}

func (m *mockRepository) ImportAll(_ context.Context, data *models.BackupData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.maybeFail(); err != nil {
		return err
	}
	m.accounts = make(map[int64]*models.Account)
	m.cards = make(map[int64]*models.CreditCard)
	m.bills = make(map[int64]*models.CreditCardBill)
	m.items = make(map[int64]*models.CreditCardItem)
	m.recurrences = make(map[int64]*models.Recurrence)
	m.transactions = make(map[int64]*models.Transaction)
	m.transfers = make(map[int64]*models.Transfer)
	for i := range data.Accounts {
		a := data.Accounts[i]
		m.accounts[a.ID] = &a
	}
	for i := range data.CreditCards {
		c := data.CreditCards[i]
		m.cards[c.ID] = &c
	}
	for i := range data.CreditCardBills {
		b := data.CreditCardBills[i]
		m.bills[b.ID] = &b
	}
	for i := range data.CreditCardItems {
		it := data.CreditCardItems[i]
		m.items[it.ID] = &it
	}
	for i := range data.Recurrences {
		rec := data.Recurrences[i]
		m.recurrences[rec.ID] = &rec
	}
	for i := range data.Transactions {
		t := data.Transactions[i]
		m.transactions[t.ID] = &t
	}
	for i := range data.Transfers {
		t := data.Transfers[i]
		m.transfers[t.ID] = &t
	}
	return nil
}

var _ Repository = (*mockRepository)(nil)

package handler

import (
	"net/http"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// ListBills returns all bills of a card with the overdue status derived.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	bills, err := h.svc.ListBillsByCard(r.Context(), cardID, time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bills)
}

// ListBillItems returns the purchases on one bill.
func (h *Handler) ListBillItems(w http.ResponseWriter, r *http.Request) {
	billID, err := pathID(r, "billID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	items, err := h.svc.ListBillItems(r.Context(), billID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, items)
}

// PayBill marks a bill as paid and debits the paying account.
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	billID, err := pathID(r, "billID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid bill id")
		return
	}
	var req struct {
		AccountID int64 `json:"account_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	paid, err := h.svc.PayBill(r.Context(), billID, req.AccountID, time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"paid": paid})
}

// RunClosure triggers a closure run immediately, outside the daily schedule.
func (h *Handler) RunClosure(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RunClosure(r.Context(), time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// CreatePurchase allocates a purchase, possibly split into installments.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	var req struct {
		Date         string `json:"date"`
		AmountCents  int64  `json:"amount_cents"`
		Installments int    `json:"installments"`
		Description  string `json:"description"`
		Category     string `json:"category"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	items, err := h.svc.AllocateInstallments(r.Context(), cardID, date, req.AmountCents, req.Installments, req.Description, req.Category)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, items)
}

// UpdateItemCategory changes an item's category, propagating across its
// installment group.
func (h *Handler) UpdateItemCategory(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req struct {
		Category string `json:"category"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.UpdateItemCategory(r.Context(), itemID, req.Category); err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"category": req.Category})
}

// ImportCSV imports a bill CSV onto a card.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	report, err := h.importer.Import(r.Context(), cardID, r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// IngestNotification receives a raw bank push notification, parses it and
// records the resulting financial event.
func (h *Handler) IngestNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source          string `json:"source"`
		Title           string `json:"title"`
		Text            string `json:"text"`
		TimestampMillis int64  `json:"timestamp_millis"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.TimestampMillis == 0 {
		req.TimestampMillis = time.Now().UnixMilli()
	}

	ev, ok := h.parsers.Parse(req.Source, req.Title, req.Text, req.TimestampMillis)
	if !ok {
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "notification not recognized as a financial event"})
		return
	}

	outcome, err := h.svc.IngestNotification(r.Context(), ev)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, outcome)
}

// CreateRecurrence registers a recurring income or expense definition.
func (h *Handler) CreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description  string  `json:"description"`
		AmountCents  int64   `json:"amount_cents"`
		Type         string  `json:"type"`
		Frequency    string  `json:"frequency"`
		StartDate    string  `json:"start_date"`
		EndDate      *string `json:"end_date"`
		AccountID    *int64  `json:"account_id"`
		CreditCardID *int64  `json:"credit_card_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	rec := &models.Recurrence{
		Description:  req.Description,
		AmountCents:  req.AmountCents,
		Type:         models.TransactionType(req.Type),
		Frequency:    models.Frequency(req.Frequency),
		StartDate:    start,
		AccountID:    req.AccountID,
		CreditCardID: req.CreditCardID,
		Active:       true,
	}
	if req.EndDate != nil {
		end, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		rec.EndDate = &end
	}

	created, err := h.svc.CreateRecurrence(r.Context(), rec)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

// ProjectRecurrence returns the projected occurrences of a recurrence within
// a window, each flagged with whether a confirmed transaction already exists.
func (h *Handler) ProjectRecurrence(w http.ResponseWriter, r *http.Request) {
	recurrenceID, err := pathID(r, "recurrenceID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid recurrence id")
		return
	}
	now := time.Now().UTC()
	from, err := queryDate(r, "from", now)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := queryDate(r, "to", now.AddDate(0, 3, 0))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	projected, err := h.svc.ProjectedOccurrences(r.Context(), recurrenceID, from, to)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, projected)
}

// ConfirmOccurrence materializes one projected occurrence as a real
// transaction or card item.
func (h *Handler) ConfirmOccurrence(w http.ResponseWriter, r *http.Request) {
	recurrenceID, err := pathID(r, "recurrenceID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid recurrence id")
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	if err := h.svc.ConfirmOccurrence(r.Context(), recurrenceID, date); err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"confirmed": req.Date})
}

// DeactivateRecurrence stops a recurrence from projecting new occurrences.
func (h *Handler) DeactivateRecurrence(w http.ResponseWriter, r *http.Request) {
	recurrenceID, err := pathID(r, "recurrenceID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid recurrence id")
		return
	}

	if err := h.svc.DeactivateRecurrence(r.Context(), recurrenceID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"active": false})
}

// CreateTransfer creates a pending transfer between two accounts.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID int64  `json:"from_account_id"`
		ToAccountID   int64  `json:"to_account_id"`
		AmountCents   int64  `json:"amount_cents"`
		Date          string `json:"date"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		var err error
		if date, err = time.Parse("2006-01-02", req.Date); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid date")
			return
		}
	}

	transfer, err := h.svc.CreateTransfer(r.Context(), req.FromAccountID, req.ToAccountID, req.AmountCents, date)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, transfer)
}

// CompleteTransfer applies a pending transfer to both account balances.
func (h *Handler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	completed, err := h.svc.CompleteTransfer(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

// GetTransfer returns one transfer.
func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := h.svc.GetTransfer(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, transfer)
}

// CancelTransfer cancels a pending transfer.
func (h *Handler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	cancelled, err := h.svc.CancelTransfer(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// CancelTransaction cancels a pending transaction.
func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	cancelled, err := h.svc.CancelTransaction(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// GetTransaction returns one transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	transaction, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction records a manual transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID   *int64 `json:"account_id"`
		AmountCents int64  `json:"amount_cents"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	t := &models.Transaction{
		AccountID:   req.AccountID,
		AmountCents: req.AmountCents,
		Type:        models.TransactionType(req.Type),
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		Status:      models.TransactionStatusPending,
	}
	created, err := h.svc.CreateTransaction(r.Context(), t)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

// CompleteTransaction applies a pending transaction to its account balance.
func (h *Handler) CompleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	completed, err := h.svc.CompleteTransaction(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

// ExportBackup returns the full data set as a versioned document.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportBackup(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

// ImportBackup replaces the full data set from a versioned document.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var doc models.BackupDocument
	if !h.decode(w, r, &doc) {
		return
	}

	if err := h.svc.ImportBackup(r.Context(), &doc); err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// MonthlyStats returns income/expense totals for a month.
func (h *Handler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	month := now.Month()
	year := now.Year()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
			return
		}
		month, year = parsed.Month(), parsed.Year()
	}

	stats, err := h.svc.MonthlyStats(r.Context(), month, year)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// BalanceForecast projects an account's balance over the coming days using
// its active recurrences.
func (h *Handler) BalanceForecast(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = parsePositiveInt(raw); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid days")
			return
		}
	}

	forecast, err := h.svc.BalanceForecast(r.Context(), accountID, days, time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, forecast)
}

// CreditBurden summarizes unpaid credit card debt with a penalty estimate.
func (h *Handler) CreditBurden(w http.ResponseWriter, r *http.Request) {
	burden, err := h.svc.CreditBurden(r.Context(), time.Now().UTC())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, burden)
}

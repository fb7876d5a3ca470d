package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// ProjectRecurrence computes the calendar occurrences a recurrence implies
// within [windowStart, windowEnd], without persisting anything. Every
// occurrence is derived from the start-date anchor, never from the previous
// occurrence: weekly steps are exact 7-day increments from the anchor, and
// monthly steps preserve the anchor's day-of-month with end-of-month
// clamping, so a series starting Jan 31 yields Feb 28/29, Mar 31, Apr 30.
func ProjectRecurrence(rec *models.Recurrence, windowStart, windowEnd time.Time) []time.Time {
	windowStart = utils.Midnight(windowStart)
	windowEnd = utils.Midnight(windowEnd)
	anchor := utils.Midnight(rec.StartDate)

	end := windowEnd
	if rec.EndDate != nil {
		if recEnd := utils.Midnight(*rec.EndDate); recEnd.Before(end) {
			end = recEnd
		}
	}

	var occurrences []time.Time
	for i := 0; ; i++ {
		occ, ok := occurrenceAt(rec.Frequency, anchor, i)
		if !ok || occ.After(end) {
			break
		}
		if !occ.Before(windowStart) {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences
}

// occurrenceAt returns the i-th occurrence of a series anchored at anchor.
func occurrenceAt(freq models.Frequency, anchor time.Time, i int) (time.Time, bool) {
	switch freq {
	case models.FrequencyDaily:
		return anchor.AddDate(0, 0, i), true
	case models.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*i), true
	case models.FrequencyMonthly:
		return utils.AddMonthsClamped(anchor, i), true
	case models.FrequencyYearly:
		return utils.AddYearsClamped(anchor, i), true
	default:
		return time.Time{}, false
	}
}

// CreateRecurrence creates a recurrence definition after validation. A
// recurrence targets at most one of an account or a credit card.
func (s *Service) CreateRecurrence(ctx context.Context, rec *models.Recurrence) (*models.Recurrence, error) {
	if _, ok := occurrenceAt(rec.Frequency, rec.StartDate, 0); !ok {
		return nil, fmt.Errorf("unknown frequency %q", rec.Frequency)
	}
	if rec.AmountCents <= 0 {
		return nil, fmt.Errorf("recurrence amount must be positive")
	}
	if rec.AccountID != nil && rec.CreditCardID != nil {
		return nil, fmt.Errorf("recurrence cannot target both an account and a card")
	}
	if rec.EndDate != nil && rec.EndDate.Before(rec.StartDate) {
		return nil, fmt.Errorf("recurrence end date precedes start date")
	}
	if rec.AccountID != nil {
		if _, err := s.repo.FindAccountByID(ctx, *rec.AccountID); err != nil {
			return nil, err
		}
	}
	if rec.CreditCardID != nil {
		if _, err := s.repo.FindCardByID(ctx, *rec.CreditCardID); err != nil {
			return nil, err
		}
	}
	rec.Active = true
	if err := s.repo.CreateRecurrence(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Infof("Recurrence created: %s %s from %s",
		rec.Frequency, rec.Description, rec.StartDate.Format("2006-01-02"))
	return rec, nil
}

// DeactivateRecurrence stops a recurrence from projecting further
// occurrences. Already-confirmed transactions and items are untouched.
func (s *Service) DeactivateRecurrence(ctx context.Context, id int64) error {
	if _, err := s.repo.FindRecurrenceByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeactivateRecurrence(ctx, id); err != nil {
		return err
	}
	s.log.Infof("Recurrence %d deactivated", id)
	return nil
}

// ProjectedOccurrences projects a recurrence over a window and marks each
// occurrence confirmed when a matching real transaction (or, for
// card-targeted recurrences, a card item) already exists for that date.
func (s *Service) ProjectedOccurrences(ctx context.Context, recurrenceID int64, windowStart, windowEnd time.Time) ([]models.ProjectedRecurrence, error) {
	rec, err := s.repo.FindRecurrenceByID(ctx, recurrenceID)
	if err != nil {
		return nil, err
	}

	dates := ProjectRecurrence(rec, windowStart, windowEnd)
	if len(dates) == 0 {
		return nil, nil
	}

	var confirmedDates []time.Time
	if rec.CreditCardID != nil {
		confirmedDates, err = s.repo.ListItemDatesByRecurrence(ctx, rec.ID, dates[0], dates[len(dates)-1])
	} else {
		confirmedDates, err = s.repo.ListTransactionDatesByRecurrence(ctx, rec.ID, dates[0], dates[len(dates)-1])
	}
	if err != nil {
		return nil, err
	}
	confirmed := make(map[string]bool, len(confirmedDates))
	for _, d := range confirmedDates {
		confirmed[d.Format("2006-01-02")] = true
	}

	projected := make([]models.ProjectedRecurrence, 0, len(dates))
	for _, d := range dates {
		projected = append(projected, models.ProjectedRecurrence{
			Recurrence:  *rec,
			Date:        d,
			IsConfirmed: confirmed[d.Format("2006-01-02")],
		})
	}
	return projected, nil
}

// ConfirmOccurrence materializes one projected occurrence as a real record:
// a completed transaction for account-targeted recurrences, or a bill item
// for card-targeted ones. The date must be an occurrence the recurrence
// actually projects. Confirming an occurrence that already has its record
// is an idempotent no-op, so a retried or double-submitted confirm never
// duplicates money records.
func (s *Service) ConfirmOccurrence(ctx context.Context, recurrenceID int64, date time.Time) error {
	rec, err := s.repo.FindRecurrenceByID(ctx, recurrenceID)
	if err != nil {
		return err
	}
	date = utils.Midnight(date)
	if len(ProjectRecurrence(rec, date, date)) == 0 {
		return fmt.Errorf("date %s is not an occurrence of recurrence %d: %w",
			date.Format("2006-01-02"), recurrenceID, models.ErrInconsistentState)
	}
	confirmed, err := s.occurrenceConfirmed(ctx, rec, date)
	if err != nil {
		return err
	}
	if confirmed {
		s.log.Infof("Recurrence %d already confirmed for %s, skipping",
			rec.ID, date.Format("2006-01-02"))
		return nil
	}

	if rec.CreditCardID != nil {
		card, err := s.repo.FindCardByID(ctx, *rec.CreditCardID)
		if err != nil {
			return err
		}
		bill, err := s.getOrCreateBill(ctx, card, ResolveBillPeriod(card, date))
		if err != nil {
			return err
		}
		item := &models.CreditCardItem{
			BillID:       bill.ID,
			PurchaseDate: date,
			Description:  rec.Description,
			AmountCents:  rec.AmountCents,
			Category:     "Recurring",
			RecurrenceID: &rec.ID,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return err
		}
		s.log.Infof("Recurrence %d confirmed as item on bill %d for %s",
			rec.ID, bill.ID, date.Format("2006-01-02"))
		return nil
	}

	txn := &models.Transaction{
		AccountID:    rec.AccountID,
		AmountCents:  rec.AmountCents,
		Type:         rec.Type,
		Category:     "Recurring",
		Date:         date,
		Status:       models.TransactionStatusPending,
		Description:  rec.Description,
		RecurrenceID: &rec.ID,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return err
	}
	if _, err := s.repo.CompleteTransaction(ctx, txn.ID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Infof("Recurrence %d confirmed as transaction %d for %s",
		rec.ID, txn.ID, date.Format("2006-01-02"))
	return nil
}

// occurrenceConfirmed reports whether the occurrence date already has its
// confirming record, on whichever side the recurrence targets.
func (s *Service) occurrenceConfirmed(ctx context.Context, rec *models.Recurrence, date time.Time) (bool, error) {
	var dates []time.Time
	var err error
	if rec.CreditCardID != nil {
		dates, err = s.repo.ListItemDatesByRecurrence(ctx, rec.ID, date, date)
	} else {
		dates, err = s.repo.ListTransactionDatesByRecurrence(ctx, rec.ID, date, date)
	}
	if err != nil {
		return false, err
	}
	return len(dates) > 0, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// ResolveBillPeriod returns the billing period a purchase date belongs to
// under the card's closing-day rule: a purchase dated after the closing day
// falls into the next month's bill, a purchase on the closing day itself
// still belongs to the current one. A closing day beyond the month's length
// clamps to the month's last day, so a closingDay of 30 closes February on
// Feb 28/29 rather than rolling into March.
func ResolveBillPeriod(card *models.CreditCard, date time.Time) utils.Period {
	p := utils.PeriodOf(date)
	if date.Day() > utils.ClampDay(p.Year, p.Month, card.ClosingDay) {
		p = p.Next()
	}
	return p
}

// closingDateFor is the day a bill for period p stops accepting items.
func closingDateFor(card *models.CreditCard, p utils.Period) time.Time {
	return p.DateIn(card.ClosingDay)
}

// dueDateFor computes the due date for a bill of period p. A due day that
// does not come after the closing day in the same numbering rolls into the
// month following the close; either way the day clamps to the target
// month's length.
func dueDateFor(card *models.CreditCard, p utils.Period) time.Time {
	duePeriod := p
	if card.DueDay <= card.ClosingDay {
		duePeriod = p.Next()
	}
	return duePeriod.DateIn(card.DueDay)
}

// closedBill pairs a bill closed during a run with its card, so the
// orchestrator can send reminders afterwards.
type closedBill struct {
	card models.CreditCard
	bill models.CreditCardBill
}

// closeBillForPeriod closes the card's OPEN bill for the given period:
// totals its items, sets the due date, and creates the successor period's
// OPEN bill, all in one atomic repository operation. A missing or non-OPEN
// bill is an idempotent no-op.
func (s *Service) closeBillForPeriod(ctx context.Context, card *models.CreditCard, p utils.Period) (*closedBill, error) {
	bill, err := s.repo.FindBillByPeriod(ctx, card.ID, p.Month, p.Year)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if bill.Status != models.BillStatusOpen {
		return nil, nil
	}

	total, err := s.repo.SumItemAmounts(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	dueDate := dueDateFor(card, p)
	next := p.Next()
	successor := &models.CreditCardBill{
		CardID:  card.ID,
		Month:   next.Month,
		Year:    next.Year,
		Status:  models.BillStatusOpen,
		DueDate: dueDateFor(card, next),
	}

	closed, err := s.repo.CloseBill(ctx, bill.ID, total, dueDate, successor)
	if err != nil {
		return nil, err
	}
	if !closed {
		// Lost a race with another run; the other one owns the closure.
		return nil, nil
	}

	s.log.Infof("Closed bill %s for card %s: total %d cents, due %s",
		p, card.Name, total, dueDate.Format("2006-01-02"))
	bill.Status = models.BillStatusClosed
	bill.TotalCents = total
	bill.DueDate = dueDate
	return &closedBill{card: *card, bill: *bill}, nil
}

// closeBillsForCards closes, for each card whose closing day is today, the
// OPEN bill of the period ending today. Failures are isolated per card.
func (s *Service) closeBillsForCards(ctx context.Context, cards []models.CreditCard, today time.Time) ([]closedBill, error) {
	var closed []closedBill
	var firstErr error
	for i := range cards {
		card := &cards[i]
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		p := utils.PeriodOf(today)
		if utils.ClampDay(p.Year, p.Month, card.ClosingDay) != today.Day() {
			continue
		}
		cb, err := s.closeBillForPeriod(ctx, card, p)
		if err != nil {
			s.log.Errorf("Failed to close bill for card %d: %v", card.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if cb != nil {
			closed = append(closed, *cb)
		}
	}
	return closed, firstErr
}

// closeOverdueBillsForCards closes every OPEN bill whose closing date has
// already passed (strictly before today), oldest first. Closing a bill
// creates its successor, which may itself be past due after a long idle
// gap, so each card loops until no eligible bill remains, producing one
// bill per missed period instead of merging them.
func (s *Service) closeOverdueBillsForCards(ctx context.Context, cards []models.CreditCard, today time.Time) ([]closedBill, error) {
	day := utils.Midnight(today)
	var closed []closedBill
	var firstErr error
	for i := range cards {
		card := &cards[i]
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		for {
			bills, err := s.repo.ListOpenBillsByCard(ctx, card.ID)
			if err != nil {
				s.log.Errorf("Failed to list open bills for card %d: %v", card.ID, err)
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			var target *models.CreditCardBill
			for j := range bills {
				p := utils.Period{Month: bills[j].Month, Year: bills[j].Year}
				if closingDateFor(card, p).Before(day) {
					target = &bills[j]
					break
				}
			}
			if target == nil {
				break
			}
			cb, err := s.closeBillForPeriod(ctx, card, utils.Period{Month: target.Month, Year: target.Year})
			if err != nil {
				s.log.Errorf("Failed to close overdue bill %d for card %d: %v", target.ID, card.ID, err)
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			if cb == nil {
				break
			}
			closed = append(closed, *cb)
		}
	}
	return closed, firstErr
}

// CloseBillsForCards closes bills whose closing day is today and returns
// how many were closed. Invoking it again the same day closes nothing.
func (s *Service) CloseBillsForCards(ctx context.Context, cards []models.CreditCard, today time.Time) (int, error) {
	closed, err := s.closeBillsForCards(ctx, cards, today)
	return len(closed), err
}

// CloseOverdueBillsForCards catches up bills whose closing date was missed
// and returns how many were closed.
func (s *Service) CloseOverdueBillsForCards(ctx context.Context, cards []models.CreditCard, today time.Time) (int, error) {
	closed, err := s.closeOverdueBillsForCards(ctx, cards, today)
	return len(closed), err
}

// PayBill marks a CLOSED or OVERDUE bill as paid and debits the paying
// account in the same storage transaction. Paying an already-paid bill is
// an idempotent no-op and reports paid=false.
func (s *Service) PayBill(ctx context.Context, billID, accountID int64, paidAt time.Time) (bool, error) {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		return false, err
	}
	paid, err := s.repo.PayBill(ctx, billID, accountID, paidAt)
	if err != nil {
		return false, err
	}
	if !paid {
		s.log.Infof("Bill %d not payable in its current state, skipping", billID)
		return false, nil
	}
	s.log.Infof("Bill %d paid from account %d", billID, accountID)
	return true, nil
}

// MarkOverdueBills sweeps unpaid CLOSED bills past their due date into
// OVERDUE. The same derivation is available read-side via EffectiveStatus.
func (s *Service) MarkOverdueBills(ctx context.Context, now time.Time) (int, error) {
	n, err := s.repo.MarkOverdueBills(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("Marked %d bills overdue", n)
	}
	return n, nil
}

// ListBillItems retrieves the items of one bill
func (s *Service) ListBillItems(ctx context.Context, billID int64) ([]models.CreditCardItem, error) {
	if _, err := s.repo.FindBillByID(ctx, billID); err != nil {
		return nil, err
	}
	return s.repo.ListItemsByBill(ctx, billID)
}

// ListBillsByCard retrieves a card's bills with OVERDUE derived for display
func (s *Service) ListBillsByCard(ctx context.Context, cardID int64, now time.Time) ([]models.CreditCardBill, error) {
	bills, err := s.repo.ListBillsByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Status = bills[i].EffectiveStatus(now)
	}
	return bills, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// ClosureReport summarizes one daily closure run.
type ClosureReport struct {
	OverdueClosed       int `json:"overdue_closed"`
	Closed              int `json:"closed"`
	MarkedOverdue       int `json:"marked_overdue"`
	NotificationsPruned int `json:"notifications_pruned"`
	Attempts            int `json:"attempts"`
}

// RunClosure is the daily entry point invoked by the scheduler. It closes
// bills missed in past periods, then bills closing today, sweeps overdue
// statuses, prunes dedup records past the retention horizon, and sends
// reminders for bills closed in this run. The run is idempotent under
// at-least-once delivery: repeating it the same day closes nothing further.
// A failed run is retried up to the configured bound; each bill closure is
// individually atomic, so a failure mid-batch leaves the batch safely
// resumable rather than corrupted.
func (s *Service) RunClosure(ctx context.Context, today time.Time) (ClosureReport, error) {
	var report ClosureReport
	var lastErr error

	for attempt := 1; attempt <= s.config.ClosureRetries; attempt++ {
		report, lastErr = s.runClosureOnce(ctx, today)
		report.Attempts = attempt
		if lastErr == nil {
			s.log.Infof("Closure run done: %d overdue closed, %d closed, %d marked overdue, %d dedup keys pruned",
				report.OverdueClosed, report.Closed, report.MarkedOverdue, report.NotificationsPruned)
			return report, nil
		}
		if ctx.Err() != nil {
			return report, lastErr
		}
		s.log.Warnf("Closure run attempt %d/%d failed: %v", attempt, s.config.ClosureRetries, lastErr)
	}
	return report, fmt.Errorf("closure run failed after %d attempts: %w", s.config.ClosureRetries, lastErr)
}

func (s *Service) runClosureOnce(ctx context.Context, today time.Time) (ClosureReport, error) {
	var report ClosureReport

	cards, err := s.repo.ListActiveCards(ctx)
	if err != nil {
		return report, err
	}

	overdueClosed, overdueErr := s.closeOverdueBillsForCards(ctx, cards, today)
	report.OverdueClosed = len(overdueClosed)

	closed, closeErr := s.closeBillsForCards(ctx, cards, today)
	report.Closed = len(closed)

	marked, markErr := s.MarkOverdueBills(ctx, today)
	report.MarkedOverdue = marked

	pruned, pruneErr := s.PruneProcessedNotifications(ctx, today)
	report.NotificationsPruned = pruned

	s.sendReminders(append(overdueClosed, closed...))
	if marked > 0 {
		s.sendOverdueNotices(ctx, cards, today)
	}

	for _, err := range []error{overdueErr, closeErr, markErr, pruneErr} {
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// sendReminders emails a due-date notice for each bill closed in this run.
// Email failures are logged, never failing the run.
func (s *Service) sendReminders(closed []closedBill) {
	if s.mailer == nil || s.config.ReminderEmail == "" {
		return
	}
	for _, cb := range closed {
		if err := s.mailer.SendBillClosedReminder(s.config.ReminderEmail, cb.card, cb.bill); err != nil {
			s.log.Errorf("Failed to send reminder for bill %d: %v", cb.bill.ID, err)
		}
	}
}

// sendOverdueNotices emails a notice for every unpaid overdue bill. Called
// only when the sweep marked new bills, so unchanged overdue debt is not
// nagged about daily.
func (s *Service) sendOverdueNotices(ctx context.Context, cards []models.CreditCard, now time.Time) {
	if s.mailer == nil || s.config.ReminderEmail == "" {
		return
	}
	byID := make(map[int64]models.CreditCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	bills, err := s.repo.ListUnpaidBills(ctx)
	if err != nil {
		s.log.Errorf("Failed to list unpaid bills for overdue notices: %v", err)
		return
	}
	for _, bill := range bills {
		if bill.EffectiveStatus(now) != models.BillStatusOverdue {
			continue
		}
		card, ok := byID[bill.CardID]
		if !ok {
			continue
		}
		if err := s.mailer.SendBillOverdueNotice(s.config.ReminderEmail, card, bill); err != nil {
			s.log.Errorf("Failed to send overdue notice for bill %d: %v", bill.ID, err)
		}
	}
}

// PruneProcessedNotifications deletes dedup records older than the
// retention horizon. Nothing newer is touched, so a redelivery arriving
// within the horizon still deduplicates.
func (s *Service) PruneProcessedNotifications(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -s.config.RetentionDays)
	n, err := s.repo.PruneProcessedNotifications(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("Pruned %d processed notification records older than %s",
			n, cutoff.Format("2006-01-02"))
	}
	return n, nil
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// DedupKey derives the deduplication fingerprint of a parsed notification
// event from its source, amount and timestamp. The timestamp is bucketed to
// the minute: OS redeliveries of one notification carry the same payload
// timestamp and collapse onto one key, while distinct real transactions
// differ in amount or minute.
func DedupKey(ev *models.ParsedEvent) string {
	minute := ev.TimestampMillis / 60_000
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", ev.Source, ev.AmountCents, minute))
	return hex.EncodeToString(sum[:])
}

// IngestOutcome reports what ingesting one event produced: a transaction,
// a card item, or a skip with its reason.
type IngestOutcome struct {
	Skipped     bool                   `json:"skipped"`
	Reason      string                 `json:"reason,omitempty"`
	Transaction *models.Transaction    `json:"transaction,omitempty"`
	Item        *models.CreditCardItem `json:"item,omitempty"`
}

// IngestNotification materializes a parsed notification event exactly once.
// The dedup key is recorded and the record created in one atomic storage
// operation, so concurrent ingests of the same event produce exactly one
// transaction. Expense events carrying last-four digits that resolve to
// exactly one active card become items on that card's current bill;
// ambiguous or unmatched digits fall back to an unassigned transaction
// awaiting manual resolution.
func (s *Service) IngestNotification(ctx context.Context, ev *models.ParsedEvent) (*IngestOutcome, error) {
	if ev.AmountCents <= 0 {
		return nil, fmt.Errorf("event amount must be positive, got %d", ev.AmountCents)
	}

	key := DedupKey(ev)
	processed, err := s.repo.NotificationProcessed(ctx, key)
	if err != nil {
		return nil, err
	}
	if processed {
		// Write-free skip: a known redelivery must not even create the
		// target-period bill. The insert-if-absent below still arbitrates
		// when two ingests of a fresh key race past this check.
		s.log.Debugf("Skipping duplicate event from %s", ev.Source)
		return &IngestOutcome{Skipped: true, Reason: "duplicate event"}, nil
	}

	eventDate := utils.Midnight(time.UnixMilli(ev.TimestampMillis).UTC())
	now := time.Now().UTC()

	txType := models.TransactionTypeExpense
	if ev.Type != nil {
		txType = *ev.Type
	}

	if ev.LastFour != nil && txType == models.TransactionTypeExpense {
		cards, err := s.repo.FindActiveCardsByLastFour(ctx, *ev.LastFour)
		if err != nil {
			return nil, err
		}
		if len(cards) == 1 {
			card := cards[0]
			bill, err := s.getOrCreateBill(ctx, &card, ResolveBillPeriod(&card, eventDate))
			if err != nil {
				return nil, err
			}
			item := &models.CreditCardItem{
				BillID:       bill.ID,
				PurchaseDate: eventDate,
				Description:  ev.Description,
				AmountCents:  ev.AmountCents,
				Category:     "Uncategorized",
			}
			if err := s.repo.CreateItemWithDedup(ctx, key, now, item); err != nil {
				if errors.Is(err, models.ErrDuplicateEvent) {
					s.log.Debugf("Skipping duplicate event from %s", ev.Source)
					return &IngestOutcome{Skipped: true, Reason: "duplicate event"}, nil
				}
				return nil, err
			}
			s.log.Infof("Ingested event from %s as item %d on card %s", ev.Source, item.ID, card.Name)
			return &IngestOutcome{Item: item}, nil
		}
		if len(cards) > 1 {
			s.log.Warnf("Last four %q matches %d active cards, leaving event unassigned",
				*ev.LastFour, len(cards))
		}
	}

	txn := &models.Transaction{
		AmountCents: ev.AmountCents,
		Type:        txType,
		Category:    "Uncategorized",
		Date:        eventDate,
		Status:      models.TransactionStatusPending,
		Description: ev.Description,
	}
	if err := s.repo.CreateTransactionWithDedup(ctx, key, now, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateEvent) {
			s.log.Debugf("Skipping duplicate event from %s", ev.Source)
			return &IngestOutcome{Skipped: true, Reason: "duplicate event"}, nil
		}
		return nil, err
	}
	s.log.Infof("Ingested event from %s as transaction %d", ev.Source, txn.ID)
	return &IngestOutcome{Transaction: txn}, nil
}

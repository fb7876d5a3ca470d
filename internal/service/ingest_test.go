package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

func eventAt(source string, amount int64, ts time.Time) *models.ParsedEvent {
	return &models.ParsedEvent{
		Source:          source,
		AmountCents:     amount,
		Description:     "COFFEE SHOP",
		TimestampMillis: ts.UnixMilli(),
	}
}

func TestIngestNotificationTwiceCreatesOneTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)

	ev := eventAt("bank-app", 1250, date(2024, time.March, 5).Add(9*time.Hour))

	first, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if first.Skipped || first.Transaction == nil {
		t.Fatalf("first ingest did not create a transaction: %+v", first)
	}

	second, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if !second.Skipped {
		t.Fatal("second ingest was not skipped")
	}
	if len(repo.transactions) != 1 {
		t.Errorf("got %d transactions, want 1", len(repo.transactions))
	}
}

func TestIngestNotificationConcurrentSameEvent(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)

	ev := eventAt("bank-app", 990, date(2024, time.March, 5).Add(12*time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.IngestNotification(ctx, ev)
		}()
	}
	wg.Wait()

	if len(repo.transactions) != 1 {
		t.Errorf("got %d transactions from concurrent ingests, want 1", len(repo.transactions))
	}
}

func TestIngestResolvesCardByLastFour(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	card := seedCard(repo, "Visa", "4421", 10, 20)

	lastFour := "4421"
	ev := eventAt("bank-app", 5600, date(2024, time.January, 15).Add(18*time.Hour))
	ev.LastFour = &lastFour

	out, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if out.Item == nil {
		t.Fatalf("expected a card item, got %+v", out)
	}

	// Jan 15 is past closing day 10, so the item belongs to February's bill.
	bill, err := repo.FindBillByPeriod(ctx, card.ID, time.February, 2024)
	if err != nil {
		t.Fatalf("February bill not created: %v", err)
	}
	if out.Item.BillID != bill.ID {
		t.Errorf("item on bill %d, want %d", out.Item.BillID, bill.ID)
	}
	if len(repo.transactions) != 0 {
		t.Error("card-resolved event also created a transaction")
	}
}

func TestIngestAmbiguousLastFourFallsBackToTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	seedCard(repo, "Visa", "4421", 10, 20)
	seedCard(repo, "Master", "4421", 5, 15)

	lastFour := "4421"
	ev := eventAt("bank-app", 5600, date(2024, time.January, 15).Add(18*time.Hour))
	ev.LastFour = &lastFour

	out, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if out.Transaction == nil {
		t.Fatalf("expected fallback transaction, got %+v", out)
	}
	if out.Transaction.AccountID != nil {
		t.Error("fallback transaction assigned an account")
	}
	if len(repo.items) != 0 {
		t.Error("ambiguous event created a card item")
	}
}

func TestIngestDuplicateRedeliveryIsWriteFree(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	seedCard(repo, "Visa", "4421", 10, 20)
	retired := seedCard(repo, "Master", "4421", 5, 15)

	lastFour := "4421"
	ev := eventAt("bank-app", 5600, date(2024, time.January, 15).Add(18*time.Hour))
	ev.LastFour = &lastFour

	// Ambiguous last four: the first delivery falls back to a transaction
	// and no bill exists yet.
	if _, err := svc.IngestNotification(ctx, ev); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if len(repo.bills) != 0 {
		t.Fatalf("first ingest created %d bills, want 0", len(repo.bills))
	}

	// With one card retired the last four now resolves uniquely, but a
	// redelivery of the same event must be skipped without creating the
	// target-period bill on the way.
	repo.cards[retired.ID].Active = false

	out, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("redelivery ingest failed: %v", err)
	}
	if !out.Skipped {
		t.Fatal("redelivery was not skipped")
	}
	if len(repo.bills) != 0 {
		t.Errorf("redelivery created %d bills, want 0", len(repo.bills))
	}
	if len(repo.items) != 0 {
		t.Errorf("redelivery created %d items, want 0", len(repo.items))
	}
}

func TestIngestIncomeEventIgnoresLastFour(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	seedCard(repo, "Visa", "4421", 10, 20)

	lastFour := "4421"
	income := models.TransactionTypeIncome
	ev := eventAt("bank-app", 300000, date(2024, time.January, 15).Add(10*time.Hour))
	ev.LastFour = &lastFour
	ev.Type = &income

	out, err := svc.IngestNotification(ctx, ev)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if out.Transaction == nil || out.Transaction.Type != models.TransactionTypeIncome {
		t.Fatalf("expected income transaction, got %+v", out)
	}
}

func TestDedupKeyGranularity(t *testing.T) {
	base := date(2024, time.March, 5).Add(9 * time.Hour)

	t.Run("redelivery in same minute collapses", func(t *testing.T) {
		a := eventAt("bank-app", 1250, base)
		b := eventAt("bank-app", 1250, base.Add(30*time.Second))
		if DedupKey(a) != DedupKey(b) {
			t.Error("same-minute redelivery produced distinct keys")
		}
	})

	t.Run("distinct amount distinguishes", func(t *testing.T) {
		a := eventAt("bank-app", 1250, base)
		b := eventAt("bank-app", 1300, base)
		if DedupKey(a) == DedupKey(b) {
			t.Error("different amounts collided")
		}
	})

	t.Run("distinct minute distinguishes", func(t *testing.T) {
		a := eventAt("bank-app", 1250, base)
		b := eventAt("bank-app", 1250, base.Add(2*time.Minute))
		if DedupKey(a) == DedupKey(b) {
			t.Error("different minutes collided")
		}
	})

	t.Run("distinct source distinguishes", func(t *testing.T) {
		a := eventAt("bank-app", 1250, base)
		b := eventAt("other-bank", 1250, base)
		if DedupKey(a) == DedupKey(b) {
			t.Error("different sources collided")
		}
	})
}

func TestIngestRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newMockRepository())
	ev := eventAt("bank-app", 0, date(2024, time.March, 5))
	if _, err := svc.IngestNotification(context.Background(), ev); err == nil {
		t.Error("zero-amount event accepted")
	}
}

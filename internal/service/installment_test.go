package service

import (
	"context"
	"testing"
	"time"
)

func TestSplitAmountExactSum(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  []int64
	}{
		{"even split", 9000, 3, []int64{3000, 3000, 3000}},
		{"remainder goes to first", 10000, 3, []int64{3334, 3333, 3333}},
		{"single installment", 9999, 1, []int64{9999}},
		{"one cent each plus remainder", 7, 5, []int64{3, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitAmount(tt.total, tt.count)
			if err != nil {
				t.Fatalf("SplitAmount failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d amounts, want %d", len(got), len(tt.want))
			}
			var sum int64
			for i, amount := range got {
				if amount != tt.want[i] {
					t.Errorf("amount[%d] = %d, want %d", i, amount, tt.want[i])
				}
				sum += amount
			}
			if sum != tt.total {
				t.Errorf("sum = %d, want %d", sum, tt.total)
			}
		})
	}
}

// Every split must preserve the total exactly, and all installments past
// the first must equal total/count.
func TestSplitAmountProperty(t *testing.T) {
	for total := int64(1); total <= 500; total++ {
		for count := 1; count <= 12; count++ {
			amounts, err := SplitAmount(total, count)
			if err != nil {
				t.Fatalf("SplitAmount(%d, %d) failed: %v", total, count, err)
			}
			var sum int64
			for _, a := range amounts {
				sum += a
			}
			if sum != total {
				t.Fatalf("SplitAmount(%d, %d): sum = %d", total, count, sum)
			}
			base := total / int64(count)
			for i := 1; i < count; i++ {
				if amounts[i] != base {
					t.Fatalf("SplitAmount(%d, %d): amounts[%d] = %d, want %d", total, count, i, amounts[i], base)
				}
			}
		}
	}
}

func TestSplitAmountRejectsInvalidInput(t *testing.T) {
	if _, err := SplitAmount(1000, 0); err == nil {
		t.Error("count 0 accepted")
	}
	if _, err := SplitAmount(1000, -2); err == nil {
		t.Error("negative count accepted")
	}
	if _, err := SplitAmount(0, 3); err == nil {
		t.Error("zero total accepted")
	}
}

func TestAllocateInstallmentsAcrossSuccessivePeriods(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	card := seedCard(repo, "Visa", "1234", 10, 20)

	// Jan 15 is past the closing day, so the first slice lands on February.
	items, err := svc.AllocateInstallments(ctx, card.ID, date(2024, time.January, 15), 10000, 3, "Laptop", "Electronics")
	if err != nil {
		t.Fatalf("AllocateInstallments failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	wantPeriods := []struct {
		month time.Month
		year  int
	}{
		{time.February, 2024},
		{time.March, 2024},
		{time.April, 2024},
	}
	for i, item := range items {
		bill, err := repo.FindBillByID(ctx, item.BillID)
		if err != nil {
			t.Fatalf("bill for item %d: %v", i, err)
		}
		if bill.Month != wantPeriods[i].month || bill.Year != wantPeriods[i].year {
			t.Errorf("item %d on %04d-%02d, want %04d-%02d",
				i, bill.Year, int(bill.Month), wantPeriods[i].year, int(wantPeriods[i].month))
		}
		if item.InstallmentNumber != i+1 || item.InstallmentTotal != 3 {
			t.Errorf("item %d numbering = %d/%d, want %d/3", i, item.InstallmentNumber, item.InstallmentTotal, i+1)
		}
	}

	if items[0].AmountCents != 3334 || items[1].AmountCents != 3333 || items[2].AmountCents != 3333 {
		t.Errorf("amounts = %d, %d, %d, want 3334, 3333, 3333",
			items[0].AmountCents, items[1].AmountCents, items[2].AmountCents)
	}

	if items[0].InstallmentGroupID == nil {
		t.Fatal("installment group id missing")
	}
	for _, item := range items[1:] {
		if item.InstallmentGroupID == nil || *item.InstallmentGroupID != *items[0].InstallmentGroupID {
			t.Error("items do not share one installment group id")
		}
	}
}

func TestAllocateSingleInstallmentHasNoGroup(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	card := seedCard(repo, "Visa", "1234", 10, 20)

	items, err := svc.AllocateInstallments(ctx, card.ID, date(2024, time.January, 5), 4200, 1, "Lunch", "Food")
	if err != nil {
		t.Fatalf("AllocateInstallments failed: %v", err)
	}
	if items[0].InstallmentGroupID != nil {
		t.Error("single installment carries a group id")
	}
	if items[0].InstallmentNumber != 0 || items[0].InstallmentTotal != 0 {
		t.Error("single installment carries numbering")
	}
}

func TestUpdateItemCategoryPropagatesAcrossGroup(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	card := seedCard(repo, "Visa", "1234", 10, 20)

	items, err := svc.AllocateInstallments(ctx, card.ID, date(2024, time.January, 15), 9000, 3, "Sofa", "Home")
	if err != nil {
		t.Fatalf("AllocateInstallments failed: %v", err)
	}

	if err := svc.UpdateItemCategory(ctx, items[1].ID, "Furniture"); err != nil {
		t.Fatalf("UpdateItemCategory failed: %v", err)
	}
	for _, item := range items {
		got, _ := repo.FindItemByID(ctx, item.ID)
		if got.Category != "Furniture" {
			t.Errorf("item %d category = %q, want Furniture", item.ID, got.Category)
		}
	}
}

func TestUpdateItemCategorySingleItem(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo)
	card := seedCard(repo, "Visa", "1234", 10, 20)

	items, err := svc.AllocateInstallments(ctx, card.ID, date(2024, time.January, 5), 4200, 1, "Lunch", "Food")
	if err != nil {
		t.Fatalf("AllocateInstallments failed: %v", err)
	}
	if err := svc.UpdateItemCategory(ctx, items[0].ID, "Restaurants"); err != nil {
		t.Fatalf("UpdateItemCategory failed: %v", err)
	}
	got, _ := repo.FindItemByID(ctx, items[0].ID)
	if got.Category != "Restaurants" {
		t.Errorf("category = %q, want Restaurants", got.Category)
	}
}

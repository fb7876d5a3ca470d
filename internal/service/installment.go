package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// SplitAmount splits a total into count installment amounts. Each
// installment gets total/count (integer division); the remainder goes to
// the first one so the sum equals the total exactly; no cent is ever lost
// or invented by the split.
func SplitAmount(totalCents int64, count int) ([]int64, error) {
	if count <= 0 {
		return nil, fmt.Errorf("installment count must be positive, got %d", count)
	}
	if totalCents <= 0 {
		return nil, fmt.Errorf("installment total must be positive, got %d", totalCents)
	}
	base := totalCents / int64(count)
	amounts := make([]int64, count)
	for i := range amounts {
		amounts[i] = base
	}
	amounts[0] += totalCents % int64(count)
	return amounts, nil
}

// AllocateInstallments splits a purchase into count installments and
// attaches each to successive monthly bills, starting at the bill period
// the purchase date resolves to under the card's closing-day rule. Bills
// that do not exist yet are created OPEN. All created items share one
// installment group id so category edits propagate group-wide.
func (s *Service) AllocateInstallments(ctx context.Context, cardID int64, purchaseDate time.Time, totalCents int64, count int, description, category string) ([]models.CreditCardItem, error) {
	card, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	amounts, err := SplitAmount(totalCents, count)
	if err != nil {
		return nil, err
	}

	purchaseDate = utils.Midnight(purchaseDate)
	firstPeriod := ResolveBillPeriod(card, purchaseDate)

	var groupID *string
	if count > 1 {
		g := uuid.New().String()
		groupID = &g
	}

	items := make([]models.CreditCardItem, 0, count)
	for k := 0; k < count; k++ {
		bill, err := s.getOrCreateBill(ctx, card, firstPeriod.AddMonths(k))
		if err != nil {
			return nil, err
		}
		item := models.CreditCardItem{
			BillID:             bill.ID,
			PurchaseDate:       purchaseDate,
			Description:        description,
			AmountCents:        amounts[k],
			Category:           category,
			InstallmentGroupID: groupID,
		}
		if count > 1 {
			item.InstallmentNumber = k + 1
			item.InstallmentTotal = count
		}
		if err := s.repo.CreateItem(ctx, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	s.log.Infof("Allocated %d installments of %d cents for card %s starting %s",
		count, totalCents, card.Name, firstPeriod)
	return items, nil
}

// UpdateItemCategory changes an item's category. For an installment item
// the change is a single group-wide write covering every slice of the
// purchase, whichever bill it sits on.
func (s *Service) UpdateItemCategory(ctx context.Context, itemID int64, category string) error {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.InstallmentGroupID != nil {
		n, err := s.repo.UpdateCategoryByGroup(ctx, *item.InstallmentGroupID, category)
		if err != nil {
			return err
		}
		s.log.Infof("Category of installment group %s set to %q on %d items",
			*item.InstallmentGroupID, category, n)
		return nil
	}
	return s.repo.UpdateItemCategory(ctx, itemID, category)
}

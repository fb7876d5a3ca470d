package service

import (
	"context"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/utils"
)

// MonthlyStats sums completed income and expenses for a month
func (s *Service) MonthlyStats(ctx context.Context, month time.Month, year int) (*models.IncomeExpenseStats, error) {
	income, expense, err := s.repo.IncomeExpenseTotals(ctx, month, year)
	if err != nil {
		return nil, err
	}
	return &models.IncomeExpenseStats{
		IncomeCents:  income,
		ExpenseCents: expense,
		NetCents:     income - expense,
	}, nil
}

// BalanceForecast projects an account's balance over the next N days by
// applying the occurrences of every active recurrence targeting it.
func (s *Service) BalanceForecast(ctx context.Context, accountID int64, days int, from time.Time) (*models.BalanceForecast, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListActiveRecurrences(ctx)
	if err != nil {
		return nil, err
	}

	from = utils.Midnight(from)
	end := from.AddDate(0, 0, days)

	// Net cents per forecast day, keyed by date.
	deltas := make(map[string]int64)
	for i := range recs {
		rec := &recs[i]
		if rec.AccountID == nil || *rec.AccountID != accountID {
			continue
		}
		for _, occ := range ProjectRecurrence(rec, from.AddDate(0, 0, 1), end) {
			key := occ.Format("2006-01-02")
			if rec.Type == models.TransactionTypeIncome {
				deltas[key] += rec.AmountCents
			} else {
				deltas[key] -= rec.AmountCents
			}
		}
	}

	forecast := &models.BalanceForecast{
		AccountID:           accountID,
		InitialBalanceCents: account.BalanceCents,
		ForecastedDays:      days,
		DailyForecast:       make([]models.DailyBalance, 0, days),
	}
	balance := account.BalanceCents
	for d := 1; d <= days; d++ {
		date := from.AddDate(0, 0, d)
		balance += deltas[date.Format("2006-01-02")]
		forecast.DailyForecast = append(forecast.DailyForecast, models.DailyBalance{
			Date:         date.Format("2006-01-02"),
			BalanceCents: balance,
		})
	}
	return forecast, nil
}

// CreditBurden totals unpaid bills and estimates the monthly penalty on the
// overdue part at the current key rate.
func (s *Service) CreditBurden(ctx context.Context, now time.Time) (*models.CreditBurden, error) {
	bills, err := s.repo.ListUnpaidBills(ctx)
	if err != nil {
		return nil, err
	}

	burden := &models.CreditBurden{}
	for i := range bills {
		burden.UnpaidTotalCents += bills[i].TotalCents
		if bills[i].EffectiveStatus(now) == models.BillStatusOverdue {
			burden.OverdueTotalCents += bills[i].TotalCents
		}
	}

	if s.rates != nil && burden.OverdueTotalCents > 0 {
		rate, err := s.rates.GetKeyRate()
		if err != nil {
			s.log.Warnf("Key rate unavailable, omitting penalty estimate: %v", err)
		} else {
			burden.PenaltyRatePercent = rate
			burden.MonthlyPenaltyCents = int64(float64(burden.OverdueTotalCents) * rate / 100 / 12)
		}
	}
	return burden, nil
}

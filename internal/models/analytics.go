package models

// IncomeExpenseStats represents monthly income and expense statistics
type IncomeExpenseStats struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	NetCents     int64 `json:"net_cents"`
}

// CreditBurden represents the outstanding credit card debt and the
// estimated penalty on the overdue part at the current key rate.
type CreditBurden struct {
	UnpaidTotalCents    int64   `json:"unpaid_total_cents"`
	OverdueTotalCents   int64   `json:"overdue_total_cents"`
	PenaltyRatePercent  float64 `json:"penalty_rate_percent"`
	MonthlyPenaltyCents int64   `json:"monthly_penalty_cents"`
}

// BalanceForecast represents balance forecast for N days
type BalanceForecast struct {
	AccountID           int64          `json:"account_id"`
	InitialBalanceCents int64          `json:"initial_balance_cents"`
	ForecastedDays      int            `json:"forecasted_days"`
	DailyForecast       []DailyBalance `json:"daily_forecast"`
}

// DailyBalance represents the projected balance for a specific day
type DailyBalance struct {
	Date         string `json:"date"` // Format: YYYY-MM-DD
	BalanceCents int64  `json:"balance_cents"`
}

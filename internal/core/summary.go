package core

// AccountMonth is one account's movement across a single month.
type AccountMonth struct {
	Account      string `json:"account"`
	BalanceStart Money  `json:"balance_start"`
	BalanceEnd   Money  `json:"balance_end"`
	Difference   Money  `json:"difference"`
}

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
	Count    int64  `json:"count"`
}

// MonthlySnapshot is the computed overview of one month. It is never stored.
type MonthlySnapshot struct {
	Month      MonthKey        `json:"month"`
	Accounts   []AccountMonth  `json:"accounts"`
	Categories []CategoryTotal `json:"categories"`
}

// MonthPagination describes a page over distinct months.
type MonthPagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalMonths int `json:"totalMonths"`
	Limit       int `json:"limit"`
}

// MonthlyStatsPage is the result of a monthly stats request.
type MonthlyStatsPage struct {
	MonthlyStats []MonthlySnapshot `json:"monthlyStats"`
	Pagination   MonthPagination   `json:"pagination"`
}

// AccountBalance is the all-time balance of one account.
type AccountBalance struct {
	Account          string `json:"account"`
	Balance          Money  `json:"balance"`
	TransactionCount int64  `json:"transaction_count"`
}

// Totals holds income/expense figures for a period. Expenses are reported as
// a positive amount.
type Totals struct {
	Income           Money `json:"income"`
	Expenses         Money `json:"expenses"`
	Balance          Money `json:"balance"`
	TransactionCount int64 `json:"transactionCount"`
}

// Summary is the period overview returned by the summary report.
type Summary struct {
	Summary           Totals          `json:"summary"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
}

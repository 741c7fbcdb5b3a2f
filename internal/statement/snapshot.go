// Package statement turns a flat transaction list into monthly cash-basis and
// accrual-basis statistics.
package statement

import "microbiz/internal/core"

// CategoryShare is one expense account's slice of a period's deductible expense.
type CategoryShare struct {
	ID         core.Category `json:"id"`
	Name       string        `json:"name"`
	Amount     core.Money    `json:"amount"`
	Percentage float64       `json:"percentage"`
}

// OverdueInvoice is an unpaid income transaction past its due date.
type OverdueInvoice struct {
	core.Transaction
	DueDate   string `json:"dueDate"`
	DelayDays int    `json:"delayDays"`
}

// Snapshot is the full set of statistics derived from (transactions, period,
// capital, now). It is recomputed from scratch on every call.
type Snapshot struct {
	Period       core.Period `json:"period"`
	MonthStr     string      `json:"monthStr"`
	DisplayMonth string      `json:"displayMonth"`

	// Cash basis
	MonthActualIncome  core.Money `json:"monthActualIncome"`
	MonthActualExpense core.Money `json:"monthActualExpense"`
	MonthActualBalance core.Money `json:"monthActualBalance"`
	MonthCollected     core.Money `json:"monthCollected"`

	// Accrual basis
	MonthTotalSales             core.Money `json:"monthTotalSales"`
	MonthReceivable             core.Money `json:"monthReceivable"`
	MonthTotalDeductibleExpense core.Money `json:"monthTotalDeductibleExpense"`

	// Tax estimates
	MonthTaxBalance core.Money `json:"monthTaxBalance"`
	MonthSalesTax   core.Money `json:"monthSalesTax"`

	// All-time cash position
	LifetimeActualIncome  core.Money `json:"lifetimeActualIncome"`
	LifetimeActualExpense core.Money `json:"lifetimeActualExpense"`
	TotalAccountBalance   core.Money `json:"totalAccountBalance"`

	Count           int                `json:"count"`
	Transactions    []core.Transaction `json:"transactions"`
	TopExpenses     []CategoryShare    `json:"topExpenses"`
	OverdueInvoices []OverdueInvoice   `json:"overdueInvoices"`
}

package statement

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"microbiz/internal/core"
)

// SalesTaxRate is the flat business tax estimated on gross sales.
var SalesTaxRate = decimal.RequireFromString("0.05")

// Aggregate computes the statistics snapshot for period.
//
// txs is read but never modified; its order does not affect any total. now is
// only used for overdue detection, which covers every transaction regardless
// of period. Aggregate holds no state and is safe for concurrent use.
func Aggregate(txs []core.Transaction, period core.Period, capital core.Money, now time.Time) Snapshot {
	s := Snapshot{
		Period:       period,
		MonthStr:     period.String(),
		DisplayMonth: period.Label(),
	}

	monthTxs := make([]core.Transaction, 0)
	overdue := make([]OverdueInvoice, 0)
	byCategory := newRollup()

	for _, t := range txs {
		if inv, ok := overdueInvoice(t, now); ok {
			overdue = append(overdue, inv)
		}

		switch t.Type {
		case core.Income:
			if t.PaymentStatus == core.Paid {
				s.LifetimeActualIncome = s.LifetimeActualIncome.Add(t.Amount)
			}
		case core.Expense:
			if !t.IsNonCash {
				s.LifetimeActualExpense = s.LifetimeActualExpense.Add(t.Amount)
			}
		}

		if !period.Contains(t.Date) {
			continue
		}
		monthTxs = append(monthTxs, t)

		switch t.Type {
		case core.Income:
			s.MonthTotalSales = s.MonthTotalSales.Add(t.Amount)
			if t.PaymentStatus == core.Paid {
				s.MonthCollected = s.MonthCollected.Add(t.Amount)
				s.MonthActualIncome = s.MonthActualIncome.Add(t.Amount)
			} else {
				s.MonthReceivable = s.MonthReceivable.Add(t.Amount)
			}
		case core.Expense:
			if !t.IsNonCash {
				s.MonthActualExpense = s.MonthActualExpense.Add(t.Amount)
			}
			s.MonthTotalDeductibleExpense = s.MonthTotalDeductibleExpense.Add(t.Amount)
			byCategory.add(t.Category, t.Amount)
		}
	}

	s.MonthActualBalance = s.MonthActualIncome.Sub(s.MonthActualExpense)
	s.MonthTaxBalance = s.MonthActualIncome.Sub(s.MonthTotalDeductibleExpense)
	s.MonthSalesTax = s.MonthTotalSales.MulRate(SalesTaxRate).Round()
	s.TotalAccountBalance = capital.Add(s.LifetimeActualIncome).Sub(s.LifetimeActualExpense)

	sortByDateDesc(monthTxs, func(i int) string { return monthTxs[i].Date.String() })
	sortByDateDesc(overdue, func(i int) string { return overdue[i].Date.String() })

	s.Count = len(monthTxs)
	s.Transactions = monthTxs
	s.OverdueInvoices = overdue
	s.TopExpenses = byCategory.shares(s.MonthTotalDeductibleExpense)
	return s
}

// overdueInvoice reports whether t is an unpaid receivable strictly past its due date.
func overdueInvoice(t core.Transaction, now time.Time) (OverdueInvoice, bool) {
	if t.Type != core.Income || t.PaymentStatus != core.Unpaid {
		return OverdueInvoice{}, false
	}
	due := t.DueDate()
	if !now.After(due.Time) {
		return OverdueInvoice{}, false
	}
	days := math.Ceil(now.Sub(due.Time).Hours() / 24)
	return OverdueInvoice{
		Transaction: t,
		DueDate:     due.String(),
		DelayDays:   int(days),
	}, true
}

// NewestFirst returns a copy of txs ordered by date, newest first.
func NewestFirst(txs []core.Transaction) []core.Transaction {
	out := slices.Clone(txs)
	sortByDateDesc(out, func(i int) string { return out[i].Date.String() })
	return out
}

// sortByDateDesc orders by ISO date string, newest first; equal dates keep input order.
func sortByDateDesc[T any](items []T, date func(i int) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return date(i) > date(j)
	})
}

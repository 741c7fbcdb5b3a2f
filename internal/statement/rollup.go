package statement

import (
	"sort"

	"microbiz/internal/core"
)

// rollup sums expense amounts per category, remembering first-seen order so
// that equal amounts sort deterministically.
type rollup struct {
	order  []core.Category
	totals map[core.Category]core.Money
}

func newRollup() *rollup {
	return &rollup{totals: make(map[core.Category]core.Money)}
}

func (r *rollup) add(c core.Category, amount core.Money) {
	if _, seen := r.totals[c]; !seen {
		r.order = append(r.order, c)
	}
	r.totals[c] = r.totals[c].Add(amount)
}

// shares returns one entry per category sorted by amount descending.
func (r *rollup) shares(total core.Money) []CategoryShare {
	out := make([]CategoryShare, 0, len(r.order))
	for _, c := range r.order {
		amount := r.totals[c]
		out = append(out, CategoryShare{
			ID:         c,
			Name:       core.CategoryName(c, core.Expense),
			Amount:     amount,
			Percentage: amount.Percentage(total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cmp(out[j].Amount) > 0
	})
	return out
}

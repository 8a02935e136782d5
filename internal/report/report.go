// Package report computes summaries over an expense snapshot. Every
// function is a pure reduction: it never mutates its input and re-sorts
// on copies, so the ledger's insertion order stays intact.
package report

import (
	"sort"

	"expenses/internal/core"
)

// CategoryBreakdown is one row of the per-category summary.
type CategoryBreakdown struct {
	Category core.Category
	Subtotal core.Money
	Percent  float64
}

// RecentSummary describes spending inside a trailing date window.
type RecentSummary struct {
	From         core.Date
	To           core.Date
	Subtotal     core.Money
	Count        int
	AverageDaily core.Money
	Expenses     []core.Expense
}

// CategoryStats describes a single category across the whole collection.
type CategoryStats struct {
	Category   core.Category
	Count      int
	Total      core.Money
	Average    core.Money
	MostRecent []core.Expense
}

// Total sums all amounts. An empty snapshot yields zero.
func Total(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory groups amounts by category and computes each share of the
// grand total. Rows are ordered by subtotal descending, with ties broken
// by category name ascending so equal subtotals render deterministically.
// An empty snapshot yields no rows and no division.
func ByCategory(expenses []core.Expense) []CategoryBreakdown {
	if len(expenses) == 0 {
		return nil
	}
	subtotals := make(map[core.Category]core.Money)
	for _, e := range expenses {
		subtotals[e.Category] = subtotals[e.Category].Add(e.Amount)
	}
	total := Total(expenses)

	out := make([]CategoryBreakdown, 0, len(subtotals))
	for cat, sub := range subtotals {
		row := CategoryBreakdown{Category: cat, Subtotal: sub}
		if total.Cents > 0 {
			row.Percent = float64(sub.Cents) / float64(total.Cents) * 100
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subtotal.Cents != out[j].Subtotal.Cents {
			return out[i].Subtotal.Cents > out[j].Subtotal.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Recent reports spending in the window [asOf-windowDays, asOf], both
// ends inclusive. The average is the subtotal spread over windowDays with
// half-up rounding. A non-positive window collapses to the single day
// asOf and a zero average.
func Recent(expenses []core.Expense, asOf core.Date, windowDays int) RecentSummary {
	if windowDays < 0 {
		windowDays = 0
	}
	from := asOf.AddDays(-windowDays)
	summary := RecentSummary{From: from, To: asOf}
	for _, e := range expenses {
		if e.Date.Before(from.Time) || e.Date.After(asOf.Time) {
			continue
		}
		summary.Expenses = append(summary.Expenses, e)
		summary.Subtotal = summary.Subtotal.Add(e.Amount)
	}
	summary.Count = len(summary.Expenses)
	summary.AverageDaily = summary.Subtotal.DivRound(int64(windowDays))
	return summary
}

// CategoryDetail reports count, total, per-record average and the most
// recent records of one category. The recent list is ordered by date
// descending and capped at limit; records sharing a date keep their
// insertion order. The second return value is false when the category
// has no records, so callers never divide by a zero count.
func CategoryDetail(expenses []core.Expense, category core.Category, limit int) (CategoryStats, bool) {
	stats := CategoryStats{Category: category}
	var matching []core.Expense
	for _, e := range expenses {
		if e.Category != category {
			continue
		}
		matching = append(matching, e)
		stats.Total = stats.Total.Add(e.Amount)
	}
	stats.Count = len(matching)
	if stats.Count == 0 {
		return stats, false
	}
	stats.Average = stats.Total.DivRound(int64(stats.Count))

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Date.After(matching[j].Date.Time)
	})
	if limit < 0 {
		limit = 0
	}
	if limit > len(matching) {
		limit = len(matching)
	}
	stats.MostRecent = matching[:limit]
	return stats, true
}

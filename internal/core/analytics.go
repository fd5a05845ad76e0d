// Package core holds the transaction model and the analytics engine.
//
// Analytics are computed fresh from the full transaction set on every call.
// There is no caching or incremental maintenance: volumes are small and
// correctness wins over performance here.
package core

import (
	"math"
	"sort"
)

type (
	// Stats are aggregate totals over all transactions. Expenses are reported
	// as a positive magnitude.
	Stats struct {
		TotalIncome      float64 `json:"totalIncome" bson:"totalIncome"`
		TotalExpenses    float64 `json:"totalExpenses" bson:"totalExpenses"`
		Balance          float64 `json:"balance" bson:"balance"`
		TransactionCount int     `json:"transactionCount" bson:"transactionCount"`
	}

	// MonthlyExpense is the expense total for one calendar month.
	MonthlyExpense struct {
		Month  string  `json:"month" bson:"month"`
		Amount float64 `json:"amount" bson:"amount"`
	}
)

// Round2 rounds to two decimal places, half away from zero on the cent
// boundary.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeStats derives income, expense and balance totals. Zero-amount
// records contribute to neither total but still count.
func ComputeStats(transactions []Transaction) Stats {
	var income, expenses float64
	for _, t := range transactions {
		switch {
		case t.Amount > 0:
			income += t.Amount
		case t.Amount < 0:
			expenses += math.Abs(t.Amount)
		}
	}
	income = Round2(income)
	expenses = Round2(expenses)
	return Stats{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		Balance:          Round2(income - expenses),
		TransactionCount: len(transactions),
	}
}

// ComputeMonthlyExpenses buckets expense transactions by "YYYY-MM" and sums
// their magnitudes, sorted ascending by month. Months without expenses are
// omitted.
func ComputeMonthlyExpenses(transactions []Transaction) []MonthlyExpense {
	buckets := make(map[string]float64)
	for _, t := range transactions {
		if t.Amount >= 0 {
			continue
		}
		buckets[t.Date.MonthKey()] += math.Abs(t.Amount)
	}

	out := make([]MonthlyExpense, 0, len(buckets))
	for month, amount := range buckets {
		out = append(out, MonthlyExpense{Month: month, Amount: Round2(amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

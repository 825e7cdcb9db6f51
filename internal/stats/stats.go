// Package stats derives aggregate KPIs and chart series from a set of trades.
// Every function here is pure: inputs are never mutated.
package stats

import (
	"slices"

	"github.com/shopspring/decimal"

	"trading-journal-go/internal/models"
)

var hundred = decimal.NewFromInt(100)

type pairTotal struct {
	pair   string
	profit decimal.Decimal
}

// Compute folds trades into a KPI record.
func Compute(trades []models.Trade, initialCapital decimal.Decimal) models.KPI {
	if len(trades) == 0 {
		return models.KPI{
			TotalProfit:    decimal.Zero,
			AvgProfit:      decimal.Zero,
			AvgLoss:        decimal.Zero,
			BestPair:       models.NoPair,
			WorstPair:      models.NoPair,
			CurrentBalance: initialCapital,
			ReturnPct:      decimal.Zero,
		}
	}

	kpi := models.KPI{TotalTrades: len(trades)}
	totalProfit := decimal.Zero
	winSum := decimal.Zero
	lossSum := decimal.Zero

	for _, t := range trades {
		totalProfit = totalProfit.Add(t.Profit)
		switch t.Result {
		case models.ResultWin:
			kpi.Wins++
			winSum = winSum.Add(t.Profit)
		case models.ResultLoss:
			kpi.Losses++
			lossSum = lossSum.Add(t.Profit)
		case models.ResultBreakEven:
			kpi.BreakEven++
		}
	}

	kpi.TotalProfit = totalProfit
	kpi.WinRate = float64(kpi.Wins) / float64(kpi.TotalTrades) * 100
	kpi.AvgProfit = mean(winSum, kpi.Wins)
	kpi.AvgLoss = mean(lossSum, kpi.Losses)
	kpi.BestPair, kpi.WorstPair = bestAndWorstPair(trades)
	kpi.CurrentBalance = initialCapital.Add(totalProfit)
	kpi.ReturnPct = decimal.Zero
	if !initialCapital.IsZero() {
		kpi.ReturnPct = totalProfit.Div(initialCapital).Mul(hundred)
	}

	return kpi
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// bestAndWorstPair sums profit per pair in first-encounter order; the stable sorts make
// ties go to the pair seen first.
func bestAndWorstPair(trades []models.Trade) (string, string) {
	index := make(map[string]int)
	var totals []pairTotal
	for _, t := range trades {
		i, ok := index[t.Pair]
		if !ok {
			i = len(totals)
			index[t.Pair] = i
			totals = append(totals, pairTotal{pair: t.Pair, profit: decimal.Zero})
		}
		totals[i].profit = totals[i].profit.Add(t.Profit)
	}
	if len(totals) == 0 {
		return models.NoPair, models.NoPair
	}

	best := slices.Clone(totals)
	slices.SortStableFunc(best, func(a, b pairTotal) int { return b.profit.Cmp(a.profit) })

	worst := slices.Clone(totals)
	slices.SortStableFunc(worst, func(a, b pairTotal) int { return a.profit.Cmp(b.profit) })

	return best[0].pair, worst[0].pair
}

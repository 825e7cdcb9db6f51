package models

import "github.com/shopspring/decimal"

// NoPair is shown as best/worst pair when there are no trades.
const NoPair = "-"

// KPI holds aggregate performance metrics over a set of trades.
type KPI struct {
	TotalTrades    int             `json:"totalTrades"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	BreakEven      int             `json:"breakEven"`
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	WinRate        float64         `json:"winRate"` // percent
	AvgProfit      decimal.Decimal `json:"avgProfit"`
	AvgLoss        decimal.Decimal `json:"avgLoss"`
	BestPair       string          `json:"bestPair"`
	WorstPair      string          `json:"worstPair"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	ReturnPct      decimal.Decimal `json:"returnPct"`
}

package stats

import (
	"slices"

	"github.com/shopspring/decimal"

	"trading-journal-go/internal/models"
)

const dayKeyLayout = "2006-01-02"

// EquityPoint is one point of the equity curve.
type EquityPoint struct {
	Date      string          `json:"date"`
	Timestamp int64           `json:"timestamp"`
	Equity    decimal.Decimal `json:"equity"`
}

// DailyPoint is the summed profit of one calendar day.
type DailyPoint struct {
	Day    string          `json:"day"`  // YYYY-MM-DD, UTC
	Date   string          `json:"date"` // display label
	Profit decimal.Decimal `json:"profit"`
}

// Slice is one category of the win-rate breakdown.
type Slice struct {
	Name  models.Result `json:"name"`
	Value int           `json:"value"`
}

// Charts bundles all series rendered by the dashboard and stats views.
type Charts struct {
	Equity    []EquityPoint `json:"equity"`
	Daily     []DailyPoint  `json:"daily"`
	Breakdown []Slice       `json:"breakdown"`
}

// BuildCharts computes every chart series at once.
func BuildCharts(trades []models.Trade) Charts {
	return Charts{
		Equity:    EquityCurve(trades),
		Daily:     DailyPL(trades),
		Breakdown: Breakdown(trades),
	}
}

// EquityCurve returns the running cumulative profit in ascending date order.
// Trades sharing a date keep their relative order.
func EquityCurve(trades []models.Trade) []EquityPoint {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b models.Trade) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})

	points := make([]EquityPoint, 0, len(sorted))
	cumulative := decimal.Zero
	for _, t := range sorted {
		cumulative = cumulative.Add(t.Profit)
		points = append(points, EquityPoint{
			Date:      t.DisplayDate(),
			Timestamp: t.Date,
			Equity:    cumulative,
		})
	}
	return points
}

// DailyPL sums profit per UTC calendar day, ordered by day. Grouping is on the day key,
// not on the display label, so identical labels from different years never merge.
func DailyPL(trades []models.Trade) []DailyPoint {
	index := make(map[string]int)
	var points []DailyPoint
	for _, t := range trades {
		key := t.Time().Format(dayKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, DailyPoint{Day: key, Date: t.DisplayDate(), Profit: decimal.Zero})
		}
		points[i].Profit = points[i].Profit.Add(t.Profit)
	}

	// The key layout sorts lexically in chronological order.
	slices.SortStableFunc(points, func(a, b DailyPoint) int {
		switch {
		case a.Day < b.Day:
			return -1
		case a.Day > b.Day:
			return 1
		}
		return 0
	})
	if points == nil {
		points = []DailyPoint{}
	}
	return points
}

// Breakdown counts Win, Loss and BreakEven trades, omitting empty categories.
func Breakdown(trades []models.Trade) []Slice {
	counts := make(map[models.Result]int, 3)
	for _, t := range trades {
		counts[t.Result]++
	}

	out := make([]Slice, 0, 3)
	for _, r := range []models.Result{models.ResultWin, models.ResultLoss, models.ResultBreakEven} {
		if counts[r] > 0 {
			out = append(out, Slice{Name: r, Value: counts[r]})
		}
	}
	return out
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the direction of a trade.
type Position string

const (
	PositionBuy  Position = "Buy"
	PositionSell Position = "Sell"
)

// Result classifies a trade by the sign of its profit.
type Result string

const (
	ResultWin       Result = "Win"
	ResultLoss      Result = "Loss"
	ResultBreakEven Result = "BreakEven"
)

// DisplayDateLayout is the fixed date format used by charts and exports.
const DisplayDateLayout = "Jan 2, 2006"

// Trade represents one journaled trade.
type Trade struct {
	ID       string          `json:"id,omitempty"`
	Date     int64           `json:"date"` // Unix milliseconds
	Pair     string          `json:"pair"`
	Position Position        `json:"position"`
	Entry    decimal.Decimal `json:"entry"` // legacy, always zero from the editor
	Exit     decimal.Decimal `json:"exit"`  // legacy, always zero from the editor
	Lot      decimal.Decimal `json:"lot"`
	// StopLoss and TakeProfit are legacy and always nil from the editor.
	StopLoss   *decimal.Decimal `json:"stopLoss"`
	TakeProfit *decimal.Decimal `json:"takeProfit"`
	Profit     decimal.Decimal  `json:"profit"`
	Result     Result           `json:"result"`
	Notes      string           `json:"notes"`
	CreatedAt  *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
}

// Time returns the trade date as a UTC time.
func (t Trade) Time() time.Time {
	return time.UnixMilli(t.Date).UTC()
}

// DisplayDate returns the trade date in the display format.
func (t Trade) DisplayDate() string {
	return FormatDate(t.Date)
}

// FormatDate renders a Unix millisecond timestamp as e.g. "Jan 15, 2024".
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(DisplayDateLayout)
}

// ClassifyProfit maps the sign of a profit to a Result.
func ClassifyProfit(profit decimal.Decimal) Result {
	switch profit.Sign() {
	case 1:
		return ResultWin
	case -1:
		return ResultLoss
	default:
		return ResultBreakEven
	}
}

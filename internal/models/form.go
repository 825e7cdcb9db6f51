package models

import "github.com/shopspring/decimal"

// TradeForm is the raw input of the trade editor.
type TradeForm struct {
	DateStr  string          `json:"dateStr" validate:"required,datetime=2006-01-02"`
	Pair     string          `json:"pair" validate:"required"`
	Position Position        `json:"position" validate:"required,oneof=Buy Sell"`
	Lot      decimal.Decimal `json:"lot" validate:"gt=0"`
	Profit   decimal.Decimal `json:"profit"`
	Notes    string          `json:"notes"`
}

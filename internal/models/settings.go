package models

import "github.com/shopspring/decimal"

// DefaultInitialCapital is used until a settings document has been written.
var DefaultInitialCapital = decimal.NewFromInt(1000)

// AppSettings is the singleton settings document.
type AppSettings struct {
	InitialCapital decimal.Decimal `json:"initialCapital"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() AppSettings {
	return AppSettings{InitialCapital: DefaultInitialCapital}
}

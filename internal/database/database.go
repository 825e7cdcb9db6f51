package database

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trading-journal-go/internal/models"
)

// TradeRow is the SQL representation of a trade document.
type TradeRow struct {
	ID         string              `gorm:"primaryKey;size:40"`
	Date       int64               `gorm:"index;not null"`
	Pair       string              `gorm:"index;not null"`
	Position   string              `gorm:"size:8;not null"`
	Entry      decimal.Decimal     `gorm:"type:numeric"`
	Exit       decimal.Decimal     `gorm:"type:numeric"`
	Lot        decimal.Decimal     `gorm:"type:numeric;not null"`
	StopLoss   decimal.NullDecimal `gorm:"type:numeric"`
	TakeProfit decimal.NullDecimal `gorm:"type:numeric"`
	Profit     decimal.Decimal     `gorm:"type:numeric;not null"`
	Result     string              `gorm:"size:16;not null"`
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName keeps the document-store collection name.
func (TradeRow) TableName() string { return "trades" }

// SettingsRow is the singleton settings document.
type SettingsRow struct {
	ID             string          `gorm:"primaryKey;size:40"`
	InitialCapital decimal.Decimal `gorm:"type:numeric;not null"`
	UpdatedAt      time.Time
}

// TableName keeps the document-store collection name.
func (SettingsRow) TableName() string { return "settings" }

// NewDatabase opens the SQLite database at dsn and migrates the schema.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the journal tables. Existing data is kept.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&TradeRow{}, &SettingsRow{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// ToRow converts a trade into its row form.
func ToRow(t models.Trade) TradeRow {
	row := TradeRow{
		ID:       t.ID,
		Date:     t.Date,
		Pair:     t.Pair,
		Position: string(t.Position),
		Entry:    t.Entry,
		Exit:     t.Exit,
		Lot:      t.Lot,
		Profit:   t.Profit,
		Result:   string(t.Result),
		Notes:    t.Notes,
	}
	if t.StopLoss != nil {
		row.StopLoss = decimal.NewNullDecimal(*t.StopLoss)
	}
	if t.TakeProfit != nil {
		row.TakeProfit = decimal.NewNullDecimal(*t.TakeProfit)
	}
	return row
}

// ToTrade converts a row back into a trade.
func (r TradeRow) ToTrade() models.Trade {
	createdAt, updatedAt := r.CreatedAt, r.UpdatedAt
	t := models.Trade{
		ID:        r.ID,
		Date:      r.Date,
		Pair:      r.Pair,
		Position:  models.Position(r.Position),
		Entry:     r.Entry,
		Exit:      r.Exit,
		Lot:       r.Lot,
		Profit:    r.Profit,
		Result:    models.Result(r.Result),
		Notes:     r.Notes,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
	if r.StopLoss.Valid {
		v := r.StopLoss.Decimal
		t.StopLoss = &v
	}
	if r.TakeProfit.Valid {
		v := r.TakeProfit.Decimal
		t.TakeProfit = &v
	}
	return t
}

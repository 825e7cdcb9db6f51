// Package sqlstore implements the trade store on SQLite through GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trading-journal-go/internal/database"
	"trading-journal-go/internal/ids"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
)

// Store is a store.Store backed by a *gorm.DB.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps an already migrated database.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("sqlstore"), now: time.Now}
}

// Open connects to the SQLite database at dsn.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := database.NewDatabase(dsn)
	if err != nil {
		return nil, err
	}
	return New(db, log), nil
}

func (s *Store) CreateTrade(ctx context.Context, trade models.Trade) (string, error) {
	row := database.ToRow(trade)
	row.ID = ids.New()
	now := s.now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Error("Error adding trade", zap.Error(err))
		return "", fmt.Errorf("failed to create trade: %w", err)
	}
	return row.ID, nil
}

func (s *Store) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	var rows []database.TradeRow
	err := s.db.WithContext(ctx).
		Order("date desc").
		Limit(store.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		s.log.Error("Error fetching trades", zap.Error(err))
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, r.ToTrade())
	}
	return trades, nil
}

func (s *Store) UpdateTrade(ctx context.Context, id string, trade models.Trade) error {
	row := database.ToRow(trade)
	// A map so that zero values and NULLs are written too.
	updates := map[string]interface{}{
		"date":        row.Date,
		"pair":        row.Pair,
		"position":    row.Position,
		"entry":       row.Entry,
		"exit":        row.Exit,
		"lot":         row.Lot,
		"stop_loss":   row.StopLoss,
		"take_profit": row.TakeProfit,
		"profit":      row.Profit,
		"result":      row.Result,
		"notes":       row.Notes,
		"updated_at":  s.now().UTC(),
	}

	res := s.db.WithContext(ctx).Model(&database.TradeRow{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		s.log.Error("Error updating trade", zap.String("id", id), zap.Error(res.Error))
		return fmt.Errorf("failed to update trade %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("trade %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&database.TradeRow{}).Error; err != nil {
		s.log.Error("Error deleting trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteTrades(ctx context.Context, maxBatch int) (int, error) {
	var deleted int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch []string
		if err := tx.Model(&database.TradeRow{}).Limit(store.ClampBatch(maxBatch)).Pluck("id", &batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		res := tx.Where("id IN ?", batch).Delete(&database.TradeRow{})
		if res.Error != nil {
			return res.Error
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		s.log.Error("Error deleting trades", zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return deleted, nil
}

func (s *Store) GetSettings(ctx context.Context) (models.AppSettings, error) {
	var row database.SettingsRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", store.SettingsDocID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		s.log.Error("Error getting settings", zap.Error(err))
		return models.AppSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return models.AppSettings{InitialCapital: row.InitialCapital}, nil
}

func (s *Store) SetSettings(ctx context.Context, settings models.AppSettings) error {
	row := database.SettingsRow{
		ID:             store.SettingsDocID,
		InitialCapital: settings.InitialCapital,
		UpdatedAt:      s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"initial_capital", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		s.log.Error("Error saving settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

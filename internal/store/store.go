// Package store defines the contract of the remote trade store. Backends live in
// subpackages.
package store

import (
	"context"
	"errors"

	"trading-journal-go/internal/models"
)

const (
	// DefaultListLimit caps how many trades a session loads.
	DefaultListLimit = 200
	// MaxBatch is the most documents a single bulk delete removes.
	MaxBatch = 500

	TradesCollection   = "trades"
	SettingsCollection = "settings"
	SettingsDocID      = "user_preferences"
)

// ErrNotFound is returned when a trade id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable source of truth for trades and settings.
type Store interface {
	// CreateTrade persists a new trade and returns its store-assigned id.
	CreateTrade(ctx context.Context, trade models.Trade) (string, error)

	// ListTrades returns up to limit trades, newest date first.
	ListTrades(ctx context.Context, limit int) ([]models.Trade, error)

	// UpdateTrade overwrites the mutable fields of an existing trade.
	UpdateTrade(ctx context.Context, id string, trade models.Trade) error

	// DeleteTrade removes one trade. Deleting a missing id is not an error.
	DeleteTrade(ctx context.Context, id string) error

	// DeleteTrades removes up to maxBatch trades and reports how many were removed.
	DeleteTrades(ctx context.Context, maxBatch int) (int, error)

	// GetSettings returns the settings, or the defaults if none were saved.
	GetSettings(ctx context.Context) (models.AppSettings, error)

	// SetSettings merges settings into the stored document.
	SetSettings(ctx context.Context, settings models.AppSettings) error

	Close() error
}

// ClampBatch bounds a requested batch size to (0, MaxBatch].
func ClampBatch(n int) int {
	if n <= 0 || n > MaxBatch {
		return MaxBatch
	}
	return n
}

// ClampLimit replaces a non-positive limit with DefaultListLimit.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}

// Package bootstrap wires configuration into a concrete trade store.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/store"
	"trading-journal-go/internal/store/fsstore"
	"trading-journal-go/internal/store/httpstore"
	"trading-journal-go/internal/store/mongostore"
	"trading-journal-go/internal/store/sqlstore"
)

const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverSQLite    = "sqlite"
	DriverHTTP      = "http"
)

// OpenStore opens the backend named by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	log.Info("Opening trade store", zap.String("driver", driver))

	switch driver {
	case DriverFirestore:
		return fsstore.Open(ctx, cfg.Firestore, log)
	case DriverMongo:
		return mongostore.Open(ctx, cfg.Mongo, log)
	case DriverSQLite, "":
		return sqlstore.Open(cfg.Database.DSN, log)
	case DriverHTTP:
		return httpstore.New(cfg.Remote, log), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

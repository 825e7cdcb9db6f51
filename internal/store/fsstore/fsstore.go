// Package fsstore implements the trade store on Cloud Firestore.
package fsstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
)

// tradeDoc is the document shape in the trades collection. Date is written as
// epoch milliseconds; older documents may hold a Timestamp instead.
type tradeDoc struct {
	Date       interface{} `firestore:"date"`
	Pair       string    `firestore:"pair"`
	Position   string    `firestore:"position"`
	Entry      float64   `firestore:"entry"`
	Exit       float64   `firestore:"exit"`
	Lot        float64   `firestore:"lot"`
	StopLoss   *float64  `firestore:"stopLoss"`
	TakeProfit *float64  `firestore:"takeProfit"`
	Profit     float64   `firestore:"profit"`
	Result     string    `firestore:"result"`
	Notes      string    `firestore:"notes"`
	CreatedAt  time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt  time.Time `firestore:"updatedAt,serverTimestamp"`
}

type settingsDoc struct {
	InitialCapital float64 `firestore:"initialCapital"`
}

// Store is a store.Store backed by a Firestore client.
type Store struct {
	client *firestore.Client
	log    *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open initializes a Firebase app and its Firestore client. Without a credentials file the
// application default credentials (or FIRESTORE_EMULATOR_HOST) are used.
func Open(ctx context.Context, cfg config.Firestore, log *zap.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}

	log.Info("Firestore initialized successfully", zap.String("project_id", cfg.ProjectID))
	return New(client, log), nil
}

// New wraps an existing Firestore client.
func New(client *firestore.Client, log *zap.Logger) *Store {
	return &Store{client: client, log: log.Named("firestore")}
}

func (s *Store) trades() *firestore.CollectionRef {
	return s.client.Collection(store.TradesCollection)
}

func (s *Store) settings() *firestore.DocumentRef {
	return s.client.Collection(store.SettingsCollection).Doc(store.SettingsDocID)
}

func (s *Store) CreateTrade(ctx context.Context, trade models.Trade) (string, error) {
	ref, _, err := s.trades().Add(ctx, toDoc(trade))
	if err != nil {
		s.log.Error("Error adding trade", zap.Error(err))
		return "", fmt.Errorf("failed to create trade: %w", err)
	}
	return ref.ID, nil
}

func (s *Store) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	snaps, err := s.trades().
		OrderBy("date", firestore.Desc).
		Limit(store.ClampLimit(limit)).
		Documents(ctx).
		GetAll()
	if err != nil {
		s.log.Error("Error fetching trades", zap.Error(err))
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(snaps))
	for _, snap := range snaps {
		var doc tradeDoc
		if err := snap.DataTo(&doc); err != nil {
			s.log.Warn("Skipping undecodable trade", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		trade, err := fromDoc(snap.Ref.ID, doc)
		if err != nil {
			s.log.Warn("Skipping undecodable trade", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (s *Store) UpdateTrade(ctx context.Context, id string, trade models.Trade) error {
	_, err := s.trades().Doc(id).Update(ctx, updatesFor(trade))
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("trade %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		s.log.Error("Error updating trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update trade %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, id string) error {
	if _, err := s.trades().Doc(id).Delete(ctx); err != nil {
		s.log.Error("Error deleting trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteTrades(ctx context.Context, maxBatch int) (int, error) {
	refs, err := s.trades().Limit(store.ClampBatch(maxBatch)).Documents(ctx).GetAll()
	if err != nil {
		s.log.Error("Error querying trades for deletion", zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, snap := range refs {
		batch.Delete(snap.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		s.log.Error("Error committing delete batch", zap.Int("size", len(refs)), zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return len(refs), nil
}

func (s *Store) GetSettings(ctx context.Context) (models.AppSettings, error) {
	snap, err := s.settings().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		s.log.Error("Error getting settings", zap.Error(err))
		return models.AppSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	var doc settingsDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return models.AppSettings{InitialCapital: decimal.NewFromFloat(doc.InitialCapital)}, nil
}

func (s *Store) SetSettings(ctx context.Context, settings models.AppSettings) error {
	data := map[string]interface{}{
		"initialCapital": settings.InitialCapital.InexactFloat64(),
	}
	if _, err := s.settings().Set(ctx, data, firestore.MergeAll); err != nil {
		s.log.Error("Error saving settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func toDoc(t models.Trade) tradeDoc {
	return tradeDoc{
		Date:       t.Date,
		Pair:       t.Pair,
		Position:   string(t.Position),
		Entry:      t.Entry.InexactFloat64(),
		Exit:       t.Exit.InexactFloat64(),
		Lot:        t.Lot.InexactFloat64(),
		StopLoss:   floatPtr(t.StopLoss),
		TakeProfit: floatPtr(t.TakeProfit),
		Profit:     t.Profit.InexactFloat64(),
		Result:     string(t.Result),
		Notes:      t.Notes,
	}
}

func fromDoc(id string, doc tradeDoc) (models.Trade, error) {
	date, err := dateMillis(doc.Date)
	if err != nil {
		return models.Trade{}, err
	}
	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	return models.Trade{
		ID:         id,
		Date:       date,
		Pair:       doc.Pair,
		Position:   models.Position(doc.Position),
		Entry:      decimal.NewFromFloat(doc.Entry),
		Exit:       decimal.NewFromFloat(doc.Exit),
		Lot:        decimal.NewFromFloat(doc.Lot),
		StopLoss:   decimalPtr(doc.StopLoss),
		TakeProfit: decimalPtr(doc.TakeProfit),
		Profit:     decimal.NewFromFloat(doc.Profit),
		Result:     models.Result(doc.Result),
		Notes:      doc.Notes,
		CreatedAt:  &createdAt,
		UpdatedAt:  &updatedAt,
	}, nil
}

// dateMillis accepts both stored forms of the trade date.
func dateMillis(v interface{}) (int64, error) {
	switch d := v.(type) {
	case int64:
		return d, nil
	case float64:
		return int64(d), nil
	case time.Time:
		return d.UnixMilli(), nil
	case *time.Time:
		if d != nil {
			return d.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unsupported date value %T", v)
}

// updatesFor lists every mutable field so an edit fully overwrites them.
func updatesFor(t models.Trade) []firestore.Update {
	doc := toDoc(t)
	return []firestore.Update{
		{Path: "date", Value: doc.Date},
		{Path: "pair", Value: doc.Pair},
		{Path: "position", Value: doc.Position},
		{Path: "entry", Value: doc.Entry},
		{Path: "exit", Value: doc.Exit},
		{Path: "lot", Value: doc.Lot},
		{Path: "stopLoss", Value: doc.StopLoss},
		{Path: "takeProfit", Value: doc.TakeProfit},
		{Path: "profit", Value: doc.Profit},
		{Path: "result", Value: doc.Result},
		{Path: "notes", Value: doc.Notes},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

// Package mongostore implements the trade store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
)

const opTimeout = 5 * time.Second

type tradeDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Date       int64              `bson:"date"`
	Pair       string             `bson:"pair"`
	Position   string             `bson:"position"`
	Entry      float64            `bson:"entry"`
	Exit       float64            `bson:"exit"`
	Lot        float64            `bson:"lot"`
	StopLoss   *float64           `bson:"stopLoss"`
	TakeProfit *float64           `bson:"takeProfit"`
	Profit     float64            `bson:"profit"`
	Result     string             `bson:"result"`
	Notes      string             `bson:"notes"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

type settingsDoc struct {
	ID             string  `bson:"_id"`
	InitialCapital float64 `bson:"initialCapital"`
}

// Store is a store.Store backed by two MongoDB collections.
type Store struct {
	client   *mongo.Client
	trades   *mongo.Collection
	settings *mongo.Collection
	log      *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to MongoDB and pings it.
func Open(ctx context.Context, cfg config.Mongo, log *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return New(client, cfg.Database, log), nil
}

// New wraps a connected client.
func New(client *mongo.Client, dbName string, log *zap.Logger) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		trades:   db.Collection(store.TradesCollection),
		settings: db.Collection(store.SettingsCollection),
		log:      log.Named("mongostore"),
	}
}

func (s *Store) CreateTrade(ctx context.Context, trade models.Trade) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := toDoc(trade)
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err := s.trades.InsertOne(ctx, doc); err != nil {
		s.log.Error("Error adding trade", zap.Error(err))
		return "", fmt.Errorf("failed to create trade: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(store.ClampLimit(limit)))
	cursor, err := s.trades.Find(ctx, bson.M{}, opts)
	if err != nil {
		s.log.Error("Error fetching trades", zap.Error(err))
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []tradeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		s.log.Error("Error decoding trades", zap.Error(err))
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(docs))
	for _, doc := range docs {
		trades = append(trades, fromDoc(doc))
	}
	return trades, nil
}

func (s *Store) UpdateTrade(ctx context.Context, id string, trade models.Trade) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("trade %s: %w", id, store.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := toDoc(trade)
	update := bson.M{
		"$set": bson.M{
			"date":       doc.Date,
			"pair":       doc.Pair,
			"position":   doc.Position,
			"entry":      doc.Entry,
			"exit":       doc.Exit,
			"lot":        doc.Lot,
			"stopLoss":   doc.StopLoss,
			"takeProfit": doc.TakeProfit,
			"profit":     doc.Profit,
			"result":     doc.Result,
			"notes":      doc.Notes,
			"updatedAt":  time.Now().UTC(),
		},
	}

	res, err := s.trades.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		s.log.Error("Error updating trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update trade %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("trade %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// No document can carry a malformed id.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.trades.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		s.log.Error("Error deleting trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteTrades(ctx context.Context, maxBatch int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(store.ClampBatch(maxBatch))).
		SetProjection(bson.M{"_id": 1})
	cursor, err := s.trades.Find(ctx, bson.M{}, opts)
	if err != nil {
		s.log.Error("Error querying trades for deletion", zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	defer cursor.Close(ctx)

	var batch []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &batch); err != nil {
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	oids := make([]primitive.ObjectID, 0, len(batch))
	for _, b := range batch {
		oids = append(oids, b.ID)
	}
	res, err := s.trades.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		s.log.Error("Error deleting trades", zap.Int("size", len(oids)), zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) GetSettings(ctx context.Context) (models.AppSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc settingsDoc
	err := s.settings.FindOne(ctx, bson.M{"_id": store.SettingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		s.log.Error("Error getting settings", zap.Error(err))
		return models.AppSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return models.AppSettings{InitialCapital: decimal.NewFromFloat(doc.InitialCapital)}, nil
}

func (s *Store) SetSettings(ctx context.Context, settings models.AppSettings) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"initialCapital": settings.InitialCapital.InexactFloat64()}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.settings.UpdateOne(ctx, bson.M{"_id": store.SettingsDocID}, update, opts); err != nil {
		s.log.Error("Error saving settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toDoc(t models.Trade) tradeDoc {
	doc := tradeDoc{
		Date:     t.Date,
		Pair:     t.Pair,
		Position: string(t.Position),
		Entry:    t.Entry.InexactFloat64(),
		Exit:     t.Exit.InexactFloat64(),
		Lot:      t.Lot.InexactFloat64(),
		Profit:   t.Profit.InexactFloat64(),
		Result:   string(t.Result),
		Notes:    t.Notes,
	}
	if t.StopLoss != nil {
		f := t.StopLoss.InexactFloat64()
		doc.StopLoss = &f
	}
	if t.TakeProfit != nil {
		f := t.TakeProfit.InexactFloat64()
		doc.TakeProfit = &f
	}
	return doc
}

func fromDoc(doc tradeDoc) models.Trade {
	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	t := models.Trade{
		ID:        doc.ID.Hex(),
		Date:      doc.Date,
		Pair:      doc.Pair,
		Position:  models.Position(doc.Position),
		Entry:     decimal.NewFromFloat(doc.Entry),
		Exit:      decimal.NewFromFloat(doc.Exit),
		Lot:       decimal.NewFromFloat(doc.Lot),
		Profit:    decimal.NewFromFloat(doc.Profit),
		Result:    models.Result(doc.Result),
		Notes:     doc.Notes,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
	if doc.StopLoss != nil {
		d := decimal.NewFromFloat(*doc.StopLoss)
		t.StopLoss = &d
	}
	if doc.TakeProfit != nil {
		d := decimal.NewFromFloat(*doc.TakeProfit)
		t.TakeProfit = &d
	}
	return t
}

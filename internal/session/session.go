// Package session holds the journal's application state and applies user actions
// to it, optimistically, against a trade store.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trading-journal-go/internal/editor"
	"trading-journal-go/internal/export"
	"trading-journal-go/internal/filter"
	"trading-journal-go/internal/ids"
	"trading-journal-go/internal/logger"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/prefs"
	"trading-journal-go/internal/stats"
	"trading-journal-go/internal/store"
)

// View is the screen the user is on.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewJournal   View = "journal"
	ViewAdd       View = "add"
	ViewEdit      View = "edit"
	ViewStats     View = "stats"
	ViewSettings  View = "settings"
)

// Valid reports whether v names a known view.
func (v View) Valid() bool {
	switch v {
	case ViewDashboard, ViewJournal, ViewAdd, ViewEdit, ViewStats, ViewSettings:
		return true
	}
	return false
}

// Banner messages.
const (
	MsgLoadFailed    = "Failed to load data."
	MsgSaveFailed    = "Failed to save trade."
	MsgDeleteFailed  = "Failed to delete trade."
	MsgResetFailed   = "Failed to reset data."
	MsgCapitalFailed = "Failed to update capital"
)

// ErrUnknownTrade is returned by StartEdit for an id that is not in the list.
var ErrUnknownTrade = errors.New("unknown trade")

// ErrPendingTrade is returned for a trade whose create has not been confirmed yet.
var ErrPendingTrade = errors.New("trade is still being saved")

// Banner is the error shown to the user. Blocking banners come from a failed load.
type Banner struct {
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// State is everything the views render from.
type State struct {
	View           View             `json:"view"`
	Trades         []models.Trade   `json:"trades"`
	InitialCapital decimal.Decimal  `json:"initialCapital"`
	Loading        bool             `json:"loading"`
	Error          *Banner          `json:"error"`
	EditingID      string           `json:"editingId,omitempty"`
	Form           models.TradeForm `json:"form"`
	Filters        filter.Criteria  `json:"filters"`
	Theme          prefs.Theme      `json:"theme"`
}

// ThemeStore persists the theme flag on this device.
type ThemeStore interface {
	LoadTheme() (prefs.Theme, error)
	SaveTheme(theme prefs.Theme) error
}

// Options tunes store access.
type Options struct {
	ListLimit int
	BatchSize int
}

// Session owns one State. It is safe for concurrent use; store calls run
// without holding the lock.
type Session struct {
	mu    sync.Mutex
	state State
	// rev changes whenever trades or capital change.
	rev uint64

	store store.Store
	prefs ThemeStore
	log   *zap.Logger
	opts  Options
	memo  *cache.Cache
	now   func() time.Time
}

// New creates a session on the dashboard view with no trades loaded.
// The saved theme is read from prefs immediately.
func New(st store.Store, themes ThemeStore, log *zap.Logger, opts Options) *Session {
	if opts.ListLimit <= 0 {
		opts.ListLimit = store.DefaultListLimit
	}
	opts.BatchSize = store.ClampBatch(opts.BatchSize)

	s := &Session{
		store: st,
		prefs: themes,
		log:   log.Named("session"),
		opts:  opts,
		memo:  cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}

	theme, err := themes.LoadTheme()
	if err != nil {
		s.log.Warn("Could not read theme preference", zap.Error(err))
		theme = prefs.ThemeLight
	}

	s.state = State{
		View:           ViewDashboard,
		Trades:         []models.Trade{},
		InitialCapital: models.DefaultInitialCapital,
		Form:           editor.DefaultForm(s.now()),
		Theme:          theme,
	}
	return s
}

// Load fetches trades and settings concurrently. On failure the list is left
// empty and a blocking banner is shown.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	var (
		trades   []models.Trade
		settings models.AppSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trades, err = s.store.ListTrades(gctx, s.opts.ListLimit)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.store.GetSettings(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		s.log.Error("Initial load failed", zap.Error(err))
		s.state.Trades = []models.Trade{}
		s.state.Error = &Banner{Message: MsgLoadFailed, Blocking: true}
		s.rev++
		return fmt.Errorf("load: %w", err)
	}

	if trades == nil {
		trades = []models.Trade{}
	}
	s.state.Trades = trades
	s.state.InitialCapital = settings.InitialCapital
	s.state.Error = nil
	s.rev++
	s.log.Info("Journal loaded", zap.Int("trades", len(trades)))
	return nil
}

// Refetch replaces the in-memory list with the store's. A failure is logged and
// the list is left as it was.
func (s *Session) Refetch(ctx context.Context) error {
	trades, err := s.store.ListTrades(ctx, s.opts.ListLimit)
	if err != nil {
		s.log.Error("Refetch failed", zap.Error(err))
		return err
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	s.mu.Lock()
	s.state.Trades = trades
	s.rev++
	s.mu.Unlock()
	return nil
}

// Submit validates form and either updates the trade editingID names or creates
// a new one. An invalid form changes nothing and returns editor.ErrInvalidForm.
func (s *Session) Submit(ctx context.Context, form models.TradeForm, editingID string) error {
	trade, err := editor.Prepare(form)
	if err != nil {
		return err
	}
	if ids.IsTemp(editingID) {
		return fmt.Errorf("%w: %s", ErrPendingTrade, editingID)
	}
	if editingID != "" {
		return s.update(ctx, editingID, trade)
	}
	return s.create(ctx, trade)
}

func (s *Session) update(ctx context.Context, id string, trade models.Trade) error {
	s.mu.Lock()
	// The loaded slice belongs to the store; edit a copy.
	trades := slices.Clone(s.state.Trades)
	for i, t := range trades {
		if t.ID == id {
			trade.ID = id
			trade.CreatedAt = t.CreatedAt
			trade.UpdatedAt = t.UpdatedAt
			trades[i] = trade
			break
		}
	}
	s.state.Trades = trades
	s.state.EditingID = ""
	s.rev++
	s.mu.Unlock()

	if err := s.store.UpdateTrade(ctx, id, trade); err != nil {
		s.fail(ctx, MsgSaveFailed, err)
		return err
	}
	s.log.Debug("Trade updated", logger.Trade(id, trade.Pair)...)

	s.mu.Lock()
	s.state.View = ViewJournal
	s.mu.Unlock()
	return nil
}

func (s *Session) create(ctx context.Context, trade models.Trade) error {
	tempID := ids.NewTemp()
	trade.ID = tempID

	s.mu.Lock()
	s.state.Trades = append([]models.Trade{trade}, s.state.Trades...)
	s.state.EditingID = ""
	s.rev++
	s.mu.Unlock()

	id, err := s.store.CreateTrade(ctx, trade)
	if err != nil {
		s.mu.Lock()
		s.state.Trades = slices.DeleteFunc(slices.Clone(s.state.Trades), func(t models.Trade) bool { return t.ID == tempID })
		s.rev++
		s.mu.Unlock()
		s.fail(ctx, MsgSaveFailed, err)
		return err
	}

	s.mu.Lock()
	trades := slices.Clone(s.state.Trades)
	for i := range trades {
		if trades[i].ID == tempID {
			trades[i].ID = id
			break
		}
	}
	s.state.Trades = trades
	s.state.Form = editor.DefaultForm(s.now())
	s.state.View = ViewDashboard
	s.mu.Unlock()

	s.log.Debug("Trade created", logger.Trade(id, trade.Pair)...)
	return nil
}

// StartEdit prefills the form from trade id and switches to the edit view.
func (s *Session) StartEdit(id string) (models.TradeForm, error) {
	if ids.IsTemp(id) {
		return models.TradeForm{}, fmt.Errorf("%w: %s", ErrPendingTrade, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Trades, func(t models.Trade) bool { return t.ID == id })
	if idx < 0 {
		return models.TradeForm{}, fmt.Errorf("%w: %s", ErrUnknownTrade, id)
	}
	s.state.Form = editor.FormFromTrade(s.state.Trades[idx])
	s.state.EditingID = id
	s.state.View = ViewEdit
	return s.state.Form, nil
}

// Delete removes a trade locally, then from the store.
func (s *Session) Delete(ctx context.Context, id string) error {
	if ids.IsTemp(id) {
		return fmt.Errorf("%w: %s", ErrPendingTrade, id)
	}
	s.mu.Lock()
	s.state.Trades = slices.DeleteFunc(slices.Clone(s.state.Trades), func(t models.Trade) bool { return t.ID == id })
	s.rev++
	s.mu.Unlock()

	if err := s.store.DeleteTrade(ctx, id); err != nil {
		s.fail(ctx, MsgDeleteFailed, err)
		return err
	}
	s.log.Debug("Trade deleted", zap.String("trade_id", id))
	return nil
}

// ResetAll deletes every trade in the store, one batch at a time. Callers confirm
// with the user first.
func (s *Session) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
	}()

	total := 0
	for {
		n, err := s.store.DeleteTrades(ctx, s.opts.BatchSize)
		if err != nil {
			s.fail(ctx, MsgResetFailed, err)
			return err
		}
		total += n
		if n < s.opts.BatchSize {
			break
		}
	}

	s.mu.Lock()
	s.state.Trades = []models.Trade{}
	s.rev++
	s.mu.Unlock()
	s.log.Info("All trades deleted", zap.Int("count", total))
	return nil
}

// UpdateCapital parses input as the new initial capital. Input that is not a
// number is ignored and reports false.
func (s *Session) UpdateCapital(ctx context.Context, input string) (bool, error) {
	capital, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return false, nil
	}

	s.mu.Lock()
	previous := s.state.InitialCapital
	s.state.InitialCapital = capital
	s.rev++
	s.mu.Unlock()

	if err := s.store.SetSettings(ctx, models.AppSettings{InitialCapital: capital}); err != nil {
		s.log.Error("Saving capital failed", zap.Error(err))
		restored := previous
		if settings, getErr := s.store.GetSettings(ctx); getErr == nil {
			restored = settings.InitialCapital
		}

		s.mu.Lock()
		s.state.Error = &Banner{Message: MsgCapitalFailed}
		s.state.InitialCapital = restored
		s.rev++
		s.mu.Unlock()
		return true, err
	}
	return true, nil
}

// ToggleTheme flips the theme and persists it.
func (s *Session) ToggleTheme() (prefs.Theme, error) {
	s.mu.Lock()
	theme := s.state.Theme.Toggle()
	s.state.Theme = theme
	s.mu.Unlock()

	if err := s.prefs.SaveTheme(theme); err != nil {
		s.log.Warn("Could not save theme preference", zap.Error(err))
		return theme, err
	}
	return theme, nil
}

// SetView navigates. Opening the add view discards any edit in progress.
func (s *Session) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == ViewAdd {
		s.state.EditingID = ""
		s.state.Form = editor.DefaultForm(s.now())
	}
	s.state.View = v
}

// CancelEdit abandons an edit and returns to the journal.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EditingID = ""
	s.state.Form = editor.DefaultForm(s.now())
	s.state.View = ViewJournal
}

func (s *Session) SetFilters(c filter.Criteria) {
	s.mu.Lock()
	s.state.Filters = c
	s.mu.Unlock()
}

func (s *Session) DismissError() {
	s.mu.Lock()
	s.state.Error = nil
	s.mu.Unlock()
}

// Snapshot returns a copy of the state that later mutations do not affect.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Trades = slices.Clone(s.state.Trades)
	if s.state.Error != nil {
		banner := *s.state.Error
		out.Error = &banner
	}
	return out
}

// Filtered returns the trades passing the current filters.
func (s *Session) Filtered() []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Apply(s.state.Trades, s.state.Filters)
}

// FilteredBy applies c without saving it. Zero criteria fall back to the current filters.
func (s *Session) FilteredBy(c filter.Criteria) []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsZero() {
		c = s.state.Filters
	}
	return filter.Apply(s.state.Trades, c)
}

// Pairs lists the distinct pairs for the pair filter.
func (s *Session) Pairs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.UniquePairs(s.state.Trades)
}

// KPI returns the dashboard figures, recomputed only after trades or capital change.
func (s *Session) KPI() models.KPI {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("kpi:%d", s.rev)
	if v, ok := s.memo.Get(key); ok {
		return v.(models.KPI)
	}
	kpi := stats.Compute(s.state.Trades, s.state.InitialCapital)
	s.memo.Flush()
	s.memo.SetDefault(key, kpi)
	return kpi
}

func (s *Session) Charts() stats.Charts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.BuildCharts(s.state.Trades)
}

// ExportCSV writes all loaded trades to w in their current order.
func (s *Session) ExportCSV(w io.Writer) error {
	s.mu.Lock()
	trades := slices.Clone(s.state.Trades)
	s.mu.Unlock()
	return export.WriteCSV(w, trades)
}

// fail shows a dismissible banner and reconverges with the store.
func (s *Session) fail(ctx context.Context, msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	s.mu.Lock()
	s.state.Error = &Banner{Message: msg}
	s.mu.Unlock()
	_ = s.Refetch(ctx)
}

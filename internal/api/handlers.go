package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"trading-journal-go/internal/editor"
	"trading-journal-go/internal/export"
	"trading-journal-go/internal/filter"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/session"
)

// Handler exposes one journal session.
type Handler struct {
	sess      *session.Session
	log       *zap.Logger
	startTime time.Time
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session, log *zap.Logger, startTime time.Time) *Handler {
	return &Handler{sess: sess, log: log, startTime: startTime}
}

// Register adds the session routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", h.StatusHandler)
	mux.HandleFunc("GET /api/trades", h.TradesHandler)
	mux.HandleFunc("PUT /api/filters", h.FiltersHandler)
	mux.HandleFunc("POST /api/trades", h.CreateTradeHandler)
	mux.HandleFunc("PUT /api/trades/{id}", h.UpdateTradeHandler)
	mux.HandleFunc("POST /api/trades/{id}/edit", h.StartEditHandler)
	mux.HandleFunc("DELETE /api/trades/{id}", h.DeleteTradeHandler)
	mux.HandleFunc("DELETE /api/trades", h.ResetHandler)
	mux.HandleFunc("POST /api/refresh", h.RefreshHandler)
	mux.HandleFunc("GET /api/pairs", h.PairsHandler)
	mux.HandleFunc("GET /api/statistics", h.StatisticsHandler)
	mux.HandleFunc("GET /api/charts", h.ChartsHandler)
	mux.HandleFunc("GET /api/settings", h.SettingsHandler)
	mux.HandleFunc("PUT /api/settings", h.UpdateSettingsHandler)
	mux.HandleFunc("PUT /api/theme", h.ThemeHandler)
	mux.HandleFunc("PUT /api/view", h.ViewHandler)
	mux.HandleFunc("DELETE /api/error", h.DismissErrorHandler)
	mux.HandleFunc("GET /api/export.csv", h.ExportHandler)
}

// StatusResponse is the state of the session without the trade list.
type StatusResponse struct {
	View       session.View     `json:"view"`
	Loading    bool             `json:"loading"`
	Error      *session.Banner  `json:"error"`
	EditingID  string           `json:"editingId,omitempty"`
	Form       models.TradeForm `json:"form"`
	Filters    filter.Criteria  `json:"filters"`
	Theme      string           `json:"theme"`
	TradeCount int              `json:"tradeCount"`
	StartTime  string           `json:"startTime"`
	Uptime     string           `json:"uptime"`
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.sess.Snapshot()
	writeJSON(w, http.StatusOK, StatusResponse{
		View:       snap.View,
		Loading:    snap.Loading,
		Error:      snap.Error,
		EditingID:  snap.EditingID,
		Form:       snap.Form,
		Filters:    snap.Filters,
		Theme:      string(snap.Theme),
		TradeCount: len(snap.Trades),
		StartTime:  h.startTime.Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).String(),
	})
}

// TradesHandler returns the trades matching the search, pair and result query
// parameters, or the saved journal filters when none are given. It never changes state.
func (h *Handler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.sess.FilteredBy(filter.Criteria{
		Search: q.Get("search"),
		Pair:   q.Get("pair"),
		Result: models.Result(q.Get("result")),
	}))
}

// FiltersHandler saves the journal filters and returns the trades they match.
func (h *Handler) FiltersHandler(w http.ResponseWriter, r *http.Request) {
	var c filter.Criteria
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	h.sess.SetFilters(c)
	writeJSON(w, http.StatusOK, h.sess.Filtered())
}

func (h *Handler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateTradeHandler(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, editingID string, okStatus int) {
	var form models.TradeForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.sess.Submit(detach(r), form, editingID); err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, okStatus, h.sess.Snapshot())
}

func (h *Handler) StartEditHandler(w http.ResponseWriter, r *http.Request) {
	form, err := h.sess.StartEdit(r.PathValue("id"))
	if errors.Is(err, session.ErrUnknownTrade) {
		sendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, session.ErrPendingTrade) {
		sendJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) DeleteTradeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Delete(detach(r), r.PathValue("id")); err != nil {
		h.mutationFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetHandler deletes every trade. It requires ?confirm=true.
func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		sendJSONError(w, "reset requires confirm=true", http.StatusBadRequest)
		return
	}
	if err := h.sess.ResetAll(detach(r)); err != nil {
		h.mutationFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Load(detach(r)); err != nil {
		h.log.Warn("Refresh failed", zap.Error(err))
		sendJSONError(w, session.MsgLoadFailed, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

func (h *Handler) PairsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Pairs())
}

func (h *Handler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.KPI())
}

func (h *Handler) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Charts())
}

func (h *Handler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AppSettings{InitialCapital: h.sess.Snapshot().InitialCapital})
}

// CapitalRequest carries the raw text of the capital input.
type CapitalRequest struct {
	Input string `json:"input"`
}

// CapitalResponse reports whether the input was a number and the resulting capital.
type CapitalResponse struct {
	Applied bool `json:"applied"`
	models.AppSettings
}

func (h *Handler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req CapitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	applied, err := h.sess.UpdateCapital(detach(r), req.Input)
	if err != nil {
		h.mutationFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CapitalResponse{
		Applied:     applied,
		AppSettings: models.AppSettings{InitialCapital: h.sess.Snapshot().InitialCapital},
	})
}

func (h *Handler) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	theme, err := h.sess.ToggleTheme()
	if err != nil {
		h.log.Warn("Theme not persisted", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
}

func (h *Handler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View session.View `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.View.Valid() {
		sendJSONError(w, "unknown view", http.StatusBadRequest)
		return
	}
	if req.View == session.ViewJournal && h.sess.Snapshot().EditingID != "" {
		h.sess.CancelEdit()
	} else {
		h.sess.SetView(req.View)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DismissErrorHandler(w http.ResponseWriter, r *http.Request) {
	h.sess.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if err := h.sess.ExportCSV(w); err != nil {
		h.log.Error("Failed to write export", zap.Error(err))
	}
}

// mutationFailed maps a session error onto a response. Store failures have
// already been surfaced as a banner and reconciled by the session.
func (h *Handler) mutationFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, editor.ErrInvalidForm) {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, session.ErrPendingTrade) {
		sendJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	msg := "request failed"
	if banner := h.sess.Snapshot().Error; banner != nil {
		msg = banner.Message
	}
	sendJSONError(w, msg, http.StatusBadGateway)
}

// detach keeps a store call running after the client goes away; in-flight
// mutations are never aborted halfway.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
	"trading-journal-go/internal/store/httpstore"
)

// StoreHandler serves the store contract under httpstore.BasePath, so that one
// journal server can act as the remote store of another client.
type StoreHandler struct {
	store store.Store
	log   *zap.Logger
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(st store.Store, log *zap.Logger) *StoreHandler {
	return &StoreHandler{store: st, log: log.Named("store-api")}
}

// Register adds the store routes to mux.
func (h *StoreHandler) Register(mux *http.ServeMux) {
	p := httpstore.BasePath
	mux.HandleFunc("POST "+p+"/trades", h.createTrade)
	mux.HandleFunc("GET "+p+"/trades", h.listTrades)
	mux.HandleFunc("PATCH "+p+"/trades/{id}", h.updateTrade)
	mux.HandleFunc("DELETE "+p+"/trades/{id}", h.deleteTrade)
	mux.HandleFunc("DELETE "+p+"/trades", h.deleteTrades)
	mux.HandleFunc("GET "+p+"/settings", h.getSettings)
	mux.HandleFunc("PUT "+p+"/settings", h.setSettings)
}

func (h *StoreHandler) createTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	id, err := h.store.CreateTrade(r.Context(), trade)
	if err != nil {
		h.storeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, httpstore.CreateResponse{ID: id})
}

func (h *StoreHandler) listTrades(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	trades, err := h.store.ListTrades(r.Context(), limit)
	if err != nil {
		h.storeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (h *StoreHandler) updateTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateTrade(r.Context(), r.PathValue("id"), trade); err != nil {
		h.storeFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) deleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTrade(r.Context(), r.PathValue("id")); err != nil {
		h.storeFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) deleteTrades(w http.ResponseWriter, r *http.Request) {
	batch, err := intParam(r, "batch")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.store.DeleteTrades(r.Context(), batch)
	if err != nil {
		h.storeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpstore.DeleteBatchResponse{Deleted: n})
}

func (h *StoreHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.storeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *StoreHandler) setSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		sendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.store.SetSettings(r.Context(), settings); err != nil {
		h.storeFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) storeFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		sendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.log.Error("Store request failed", zap.Error(err))
	sendJSONError(w, "store request failed", http.StatusInternalServerError)
}

// intParam reads an optional integer query parameter; absent means 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

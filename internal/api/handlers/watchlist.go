package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// WatchlistHandler manages per-user watchlists (user ids come from the caller)
type WatchlistHandler struct {
	watchlist contracts.WatchlistRepository
	logger    *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlist contracts.WatchlistRepository, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, logger: log}
}

func userParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["user"], 10, 64)
	return id, err == nil && id > 0
}

// List returns the watchlist of a user
// GET /api/users/{user}/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	items, err := h.watchlist.List(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list watchlist")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve watchlist")
		return
	}
	if items == nil {
		items = []contracts.Watched{}
	}

	respondJSON(w, http.StatusOK, items)
}

// Add puts a ticker on the watchlist
// PUT /api/users/{user}/watchlist/{ticker}
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	ticker := tickerParam(r)

	if err := h.watchlist.Add(r.Context(), userID, ticker); err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to add to watchlist")
		respondError(w, http.StatusInternalServerError, "Failed to add to watchlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"ticker": ticker})
}

// Remove takes a ticker off the watchlist
// DELETE /api/users/{user}/watchlist/{ticker}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	ticker := tickerParam(r)

	err := h.watchlist.Remove(r.Context(), userID, ticker)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, ticker+" is not on the watchlist")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to remove from watchlist")
		respondError(w, http.StatusInternalServerError, "Failed to remove from watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/stockdash/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// tickerParam reads {ticker}; ?market=TW appends the .TW suffix to bare codes
func tickerParam(r *http.Request) string {
	raw := mux.Vars(r)["ticker"]
	market := contracts.Market(strings.ToUpper(r.URL.Query().Get("market")))
	if market != contracts.MarketTW {
		market = contracts.MarketOf(raw)
	}
	return contracts.NormalizeTicker(raw, market)
}

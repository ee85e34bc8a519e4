package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wonny/stockdash/internal/sentiment"
)

// maxHeadlines bounds one sentiment request
const maxHeadlines = 50

// HeadlineAnalyzer labels headlines
type HeadlineAnalyzer interface {
	AnalyzeBatch(ctx context.Context, texts []string) []sentiment.Label
}

// SentimentHandler labels news headlines
type SentimentHandler struct {
	analyzer HeadlineAnalyzer
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(analyzer HeadlineAnalyzer) *SentimentHandler {
	return &SentimentHandler{analyzer: analyzer}
}

// SentimentRequest is the body of POST /api/sentiment
type SentimentRequest struct {
	Headlines []string `json:"headlines"`
}

// HeadlineSentiment is one labelled headline
type HeadlineSentiment struct {
	Headline string          `json:"headline"`
	Label    sentiment.Label `json:"label"`
}

// Analyze labels up to maxHeadlines headlines
// POST /api/sentiment
func (h *SentimentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Headlines) > maxHeadlines {
		respondError(w, http.StatusBadRequest, "too many headlines")
		return
	}

	labels := h.analyzer.AnalyzeBatch(r.Context(), req.Headlines)
	out := make([]HeadlineSentiment, len(req.Headlines))
	for i, text := range req.Headlines {
		out[i] = HeadlineSentiment{Headline: text, Label: labels[i]}
	}

	respondJSON(w, http.StatusOK, out)
}

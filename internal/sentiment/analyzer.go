// Package sentiment labels news headlines as positive, negative or neutral.
// The classifier itself is a black box injected at startup.
package sentiment

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/wonny/stockdash/pkg/logger"
)

// Label is a normalised sentiment
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// DefaultMinScore is the confidence under which a label counts as neutral
const DefaultMinScore = 0.6

// maxInputRunes truncates long inputs before classification
const maxInputRunes = 512

// Classification is the raw classifier output
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier is the black-box model
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// BatchClassifier is implemented by classifiers that can label many texts in one call
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]Classification, error)
}

// Analyzer normalises classifier output. 분류기 실패는 neutral
type Analyzer struct {
	classifier Classifier
	minScore   float64
	logger     *logger.Logger
}

// NewAnalyzer creates an analyzer; classifier may be nil (everything neutral)
func NewAnalyzer(classifier Classifier, minScore float64, log *logger.Logger) *Analyzer {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		classifier: classifier,
		minScore:   minScore,
		logger:     log.WithField("module", "sentiment"),
	}
}

// Analyze labels one text
func (a *Analyzer) Analyze(ctx context.Context, text string) Label {
	text = prepare(text)
	if text == "" || a.classifier == nil {
		return Neutral
	}

	c, err := a.classifier.Classify(ctx, text)
	if err != nil {
		a.logger.WithError(err).Warn("Sentiment classification failed")
		return Neutral
	}
	return a.normalize(c)
}

// AnalyzeBatch labels texts, preserving order
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts []string) []Label {
	labels := make([]Label, len(texts))
	for i := range labels {
		labels[i] = Neutral
	}
	if len(texts) == 0 || a.classifier == nil {
		return labels
	}

	batch, ok := a.classifier.(BatchClassifier)
	if !ok {
		for i, t := range texts {
			labels[i] = a.Analyze(ctx, t)
		}
		return labels
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = prepare(t)
	}

	results, err := batch.ClassifyBatch(ctx, prepared)
	if err != nil || len(results) != len(texts) {
		a.logger.WithError(err).WithField("count", len(texts)).Warn("Batch sentiment classification failed")
		return labels
	}

	for i, c := range results {
		if prepared[i] == "" {
			continue
		}
		labels[i] = a.normalize(c)
	}
	return labels
}

// normalize maps a raw label onto positive/negative/neutral
func (a *Analyzer) normalize(c Classification) Label {
	if c.Score < a.minScore {
		return Neutral
	}

	label := strings.ToLower(c.Label)
	switch {
	case strings.Contains(label, "positive"):
		return Positive
	case strings.Contains(label, "negative"):
		return Negative
	}
	return Neutral
}

func prepare(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxInputRunes {
		text = string([]rune(text)[:maxInputRunes])
	}
	return text
}

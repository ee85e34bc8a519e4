package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when SENTIMENT_MODEL is empty
const DefaultModel = "gemini-2.0-flash"

const systemPrompt = `You classify the sentiment of financial news headlines (English or Chinese).
Answer with JSON only: {"label": "positive" | "negative" | "neutral", "score": <confidence 0..1>}.
For a list of headlines answer with a JSON array of such objects, same order.`

// GenAIClassifier classifies with a Gemini model
type GenAIClassifier struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenAIClassifier creates the Gemini-backed classifier
func NewGenAIClassifier(ctx context.Context, apiKey, model string) (*GenAIClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}

	return &GenAIClassifier{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	}, nil
}

// Classify implements Classifier
func (g *GenAIClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	out, err := g.generate(ctx, text)
	if err != nil {
		return Classification{}, err
	}
	return parseClassification(out)
}

// ClassifyBatch implements BatchClassifier
func (g *GenAIClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]Classification, error) {
	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}

	out, err := g.generate(ctx, string(payload))
	if err != nil {
		return nil, err
	}
	return parseClassifications(out, len(texts))
}

func (g *GenAIClassifier) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return text, nil
}

// parseClassification decodes one {"label","score"} object, tolerating code fences
func parseClassification(out string) (Classification, error) {
	var c Classification
	if err := json.Unmarshal([]byte(stripFence(out)), &c); err != nil {
		return Classification{}, fmt.Errorf("decode classification %q: %w", out, err)
	}
	return c, nil
}

func parseClassifications(out string, want int) ([]Classification, error) {
	var cs []Classification
	if err := json.Unmarshal([]byte(stripFence(out)), &cs); err != nil {
		return nil, fmt.Errorf("decode classifications: %w", err)
	}
	if len(cs) != want {
		return nil, fmt.Errorf("got %d classifications for %d texts", len(cs), want)
	}
	return cs, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

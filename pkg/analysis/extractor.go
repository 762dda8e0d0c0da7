// Package analysis adapts the LLM analysis collaborator: it extracts
// classification candidates from a document's text. The engine only ever
// sees the strict Candidate shape; all of the LLM's JSON sloppiness is
// absorbed here.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/logging"
	"github.com/canvass-labs/canvass-engine/pkg/models"
)

// CandidateExtractor supplies, per document, the candidate list that feeds
// the classification mapper.
type CandidateExtractor interface {
	ExtractCandidates(ctx context.Context, summary, bodyText string) ([]models.Candidate, error)
}

const extractionSystemPrompt = `You are an analyst cataloging political campaign documents. Given a document's summary and body text, extract the key issues and themes it addresses.

Return ONLY a JSON array. Each element must have:
- "phrase": a short keyword phrase naming the issue (e.g. "universal background checks")
- "primary_category": a broad issue category (e.g. "Public Safety", "Economy", "Healthcare")
- "subcategory": an optional narrower grouping (e.g. "Guns"), or null
- "relevance_score": how central the issue is to the document, 0.0-1.0
- "synonyms": optional alternate phrasings, as an array of strings

Extract at most 15 candidates. Return the JSON array and nothing else.`

// maxBodyChars bounds how much body text is sent per extraction request.
const maxBodyChars = 12000

// Extractor implements CandidateExtractor against the Anthropic API.
type Extractor struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// Config holds configuration for the candidate extractor.
type Config struct {
	APIKey string
	Model  string
}

// NewExtractor creates a candidate extractor.
func NewExtractor(cfg *Config, logger *zap.Logger) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &Extractor{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("analysis"),
	}, nil
}

var _ CandidateExtractor = (*Extractor)(nil)

// ExtractCandidates asks the model for issue/theme candidates in the
// document. The response is parsed through the strict candidate boundary;
// malformed entries are dropped, not fatal.
func (e *Extractor) ExtractCandidates(ctx context.Context, summary, bodyText string) ([]models.Candidate, error) {
	if len(bodyText) > maxBodyChars {
		bodyText = bodyText[:maxBodyChars]
	}

	prompt := fmt.Sprintf("Summary:\n%s\n\nBody text:\n%s", summary, bodyText)

	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		System:    extractionSystemPrompt,
		MaxTokens: 2000,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: anthropic.MessagesContentTypeText, Text: &prompt},
			}},
		},
	})
	if err != nil {
		e.logger.Warn("Candidate extraction failed",
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("candidate extraction: %w", err)
	}

	responseText := ""
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			responseText = *block.Text
			break
		}
	}

	candidates, err := models.ParseCandidates([]byte(extractJSONArray(responseText)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse candidate list: %w", err)
	}

	e.logger.Debug("Extracted candidates", zap.Int("count", len(candidates)))
	return candidates, nil
}

// extractJSONArray finds the JSON array in a response that may be wrapped in
// prose or code fences.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// Unavailable is a CandidateExtractor for deployments without an analysis
// collaborator configured. Every extraction fails with a clear error.
type Unavailable struct{}

func (Unavailable) ExtractCandidates(ctx context.Context, summary, bodyText string) ([]models.Candidate, error) {
	return nil, fmt.Errorf("analysis collaborator is not configured")
}

var _ CandidateExtractor = Unavailable{}

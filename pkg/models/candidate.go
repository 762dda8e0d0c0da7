package models

import (
	"encoding/json"
	"strings"

	"github.com/canvass-labs/canvass-engine/pkg/jsonutil"
)

// Candidate is a raw keyword/phrase proposal from the upstream analyzer,
// normalized into a strict shape at the boundary. Relevance scores are
// always 0.0-1.0 after parsing regardless of the producer's scale.
type Candidate struct {
	Phrase          string   `json:"phrase"`
	PrimaryCategory string   `json:"primary_category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	RelevanceScore  float64  `json:"relevance_score"`
	Synonyms        []string `json:"synonyms,omitempty"`
}

// rawCandidate mirrors the loosely typed JSON the analysis collaborator
// emits. Every field is coerced individually; the engine never operates on
// untyped maps.
type rawCandidate struct {
	Phrase          json.RawMessage `json:"phrase"`
	Keyword         json.RawMessage `json:"keyword"` // some producers use "keyword"
	PrimaryCategory json.RawMessage `json:"primary_category"`
	Subcategory     json.RawMessage `json:"subcategory"`
	RelevanceScore  json.RawMessage `json:"relevance_score"`
	Synonyms        json.RawMessage `json:"synonyms"`
}

// UnmarshalJSON parses a candidate from LLM-shaped JSON with explicit
// default substitution per field.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw rawCandidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	phrase := jsonutil.FlexibleStringValue(raw.Phrase)
	if phrase == "" {
		phrase = jsonutil.FlexibleStringValue(raw.Keyword)
	}

	c.Phrase = strings.TrimSpace(phrase)
	c.PrimaryCategory = strings.TrimSpace(jsonutil.FlexibleStringValue(raw.PrimaryCategory))
	c.Subcategory = strings.TrimSpace(jsonutil.FlexibleStringValue(raw.Subcategory))
	c.RelevanceScore = jsonutil.FlexibleScore(raw.RelevanceScore)
	c.Synonyms = jsonutil.FlexibleStringSlice(raw.Synonyms)

	return nil
}

// ParseCandidates decodes a candidate list from raw analyzer output.
// Entries that fail to decode entirely are dropped rather than failing the
// whole batch.
func ParseCandidates(data []byte) ([]Candidate, error) {
	var rawList []json.RawMessage
	if err := json.Unmarshal(data, &rawList); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(rawList))
	for _, item := range rawList {
		var c Candidate
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

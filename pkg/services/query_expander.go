package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/cache"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// minExpandableLength is the shortest query that triggers taxonomy lookups;
// anything shorter is returned as-is. The same floor applies to expansion
// results.
const minExpandableLength = 3

// QueryExpander broadens a raw search string into related taxonomy terms and
// synonyms so retrieval can match documents tagged with different wording.
type QueryExpander interface {
	// Expand returns a non-empty set of lowercase terms that always
	// includes the lowercased original query.
	Expand(ctx context.Context, rawQuery string) ([]string, error)
}

type queryExpander struct {
	taxonomyRepo repositories.TaxonomyRepository
	cache        cache.Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewQueryExpander creates a new QueryExpander. Expansion results are cached
// per distinct query for cacheTTL.
func NewQueryExpander(taxonomyRepo repositories.TaxonomyRepository, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) QueryExpander {
	return &queryExpander{
		taxonomyRepo: taxonomyRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
		logger:       logger.Named("query_expander"),
	}
}

var _ QueryExpander = (*queryExpander)(nil)

func (s *queryExpander) Expand(ctx context.Context, rawQuery string) ([]string, error) {
	query := strings.ToLower(strings.TrimSpace(rawQuery))
	if len(query) < minExpandableLength {
		return []string{query}, nil
	}

	cacheKey := "expand:" + query
	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached []string
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	expanded, err := s.expand(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(expanded); err == nil {
		s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
	}

	return expanded, nil
}

func (s *queryExpander) expand(ctx context.Context, query string) ([]string, error) {
	byTerm, err := s.taxonomyRepo.SearchTerms(ctx, query)
	if err != nil {
		return nil, err
	}
	bySynonym, err := s.taxonomyRepo.SearchBySynonym(ctx, query)
	if err != nil {
		return nil, err
	}

	// Union the two match sets by term identity.
	matched := make([]*models.TaxonomyTerm, 0, len(byTerm)+len(bySynonym))
	seen := make(map[uuid.UUID]bool)
	for _, t := range append(byTerm, bySynonym...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		matched = append(matched, t)
	}

	result := newTermSet()
	result.add(query)

	if len(matched) > 0 {
		ids := make([]uuid.UUID, len(matched))
		for i, t := range matched {
			ids[i] = t.ID
		}
		synonyms, err := s.taxonomyRepo.GetSynonyms(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, t := range matched {
			result.add(t.Term)
			for _, syn := range synonyms[t.ID] {
				result.add(syn)
			}

			if t.Subcategory == "" {
				continue
			}
			siblings, err := s.taxonomyRepo.GetSiblings(ctx, t.PrimaryCategory, t.Subcategory, t.ID)
			if err != nil {
				return nil, err
			}
			for _, sibling := range siblings {
				result.add(sibling.Term)
			}
		}
	}

	expanded := result.slice()

	s.logger.Debug("expanded query",
		zap.String("query", query),
		zap.Int("matched_terms", len(matched)),
		zap.Int("expanded_count", len(expanded)))

	return expanded, nil
}

// termSet is an insertion-ordered, lowercased, deduplicated term collection
// that drops entries below the length floor except for the first entry (the
// original query, which is always kept).
type termSet struct {
	order []string
	seen  map[string]bool
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]bool)}
}

func (ts *termSet) add(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || ts.seen[term] {
		return
	}
	// The original query goes in first and is exempt from the length floor.
	if len(ts.order) > 0 && len(term) < minExpandableLength {
		return
	}
	ts.seen[term] = true
	ts.order = append(ts.order, term)
}

func (ts *termSet) slice() []string {
	return ts.order
}

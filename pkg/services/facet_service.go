package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/cache"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// FacetService computes the sidebar's navigable counts scoped to the current
// taxonomy drill-down. Read-only; an empty taxonomy yields empty lists.
type FacetService interface {
	GetFacets(ctx context.Context, selection models.FacetSelection) (*models.SearchFacets, error)
}

type facetService struct {
	associationRepo repositories.AssociationRepository
	cache           cache.Cache
	cacheTTL        time.Duration
	logger          *zap.Logger
}

// NewFacetService creates a new FacetService. Counts are cached per
// selection for cacheTTL.
func NewFacetService(associationRepo repositories.AssociationRepository, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) FacetService {
	return &facetService{
		associationRepo: associationRepo,
		cache:           c,
		cacheTTL:        cacheTTL,
		logger:          logger.Named("facet_service"),
	}
}

var _ FacetService = (*facetService)(nil)

func (s *facetService) GetFacets(ctx context.Context, selection models.FacetSelection) (*models.SearchFacets, error) {
	cacheKey := fmt.Sprintf("facets:%s|%s|%s",
		strings.ToLower(selection.PrimaryCategory),
		strings.ToLower(selection.Subcategory),
		strings.ToLower(selection.SpecificTerm))

	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached models.SearchFacets
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	facets, err := s.compute(ctx, selection)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(facets); err == nil {
		s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
	}

	return facets, nil
}

func (s *facetService) compute(ctx context.Context, selection models.FacetSelection) (*models.SearchFacets, error) {
	facets := &models.SearchFacets{
		PrimaryCategories: []models.FacetCount{},
		Subcategories:     []models.FacetCount{},
		Terms:             []models.FacetCount{},
	}

	// Primary-category counts are global regardless of selection.
	primaries, err := s.associationRepo.CountByPrimaryCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count primary categories: %w", err)
	}
	facets.PrimaryCategories = toFacetCounts(primaries, selection.PrimaryCategory)

	// Deeper levels only exist once their parent level is selected.
	if selection.PrimaryCategory != "" {
		subs, err := s.associationRepo.CountBySubcategory(ctx, selection.PrimaryCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to count subcategories: %w", err)
		}
		facets.Subcategories = toFacetCounts(subs, selection.Subcategory)

		if selection.Subcategory != "" {
			terms, err := s.associationRepo.CountByTerm(ctx, selection.PrimaryCategory, selection.Subcategory)
			if err != nil {
				return nil, fmt.Errorf("failed to count terms: %w", err)
			}
			facets.Terms = toFacetCounts(terms, selection.SpecificTerm)
		}
	}

	return facets, nil
}

func toFacetCounts(counts []repositories.CategoryCount, selected string) []models.FacetCount {
	result := make([]models.FacetCount, len(counts))
	for i, c := range counts {
		result[i] = models.FacetCount{
			Name:     c.Name,
			Count:    c.Count,
			Selected: selected != "" && strings.EqualFold(c.Name, selected),
		}
	}
	return result
}

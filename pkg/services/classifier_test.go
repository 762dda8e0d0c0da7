package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/models"
)

func TestClassifier_CapsAssociationsAtMax(t *testing.T) {
	candidates := make([]models.Candidate, 15)
	for i := range candidates {
		candidates[i] = models.Candidate{
			Phrase:          fmt.Sprintf("issue %d", i),
			PrimaryCategory: "Economy",
			RelevanceScore:  float64(100-i) / 100,
		}
	}

	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(&mockResolver{}, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), candidates)
	require.NoError(t, err)

	require.Len(t, assocRepo.lastReplaced, 10)
	for i, assoc := range assocRepo.lastReplaced {
		assert.Equal(t, i, assoc.DisplayOrder)
		if i > 0 {
			assert.GreaterOrEqual(t, assocRepo.lastReplaced[i-1].RelevanceScore, assoc.RelevanceScore)
		}
	}
}

func TestClassifier_SortsByRelevanceWithStableTieBreak(t *testing.T) {
	candidates := []models.Candidate{
		{Phrase: "low", PrimaryCategory: "Economy", RelevanceScore: 0.2},
		{Phrase: "first tie", PrimaryCategory: "Economy", RelevanceScore: 0.8},
		{Phrase: "second tie", PrimaryCategory: "Economy", RelevanceScore: 0.8},
		{Phrase: "top", PrimaryCategory: "Economy", RelevanceScore: 0.9},
	}

	var resolvedOrder []string
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
			resolvedOrder = append(resolvedOrder, phrase)
			return &models.TaxonomyTerm{ID: uuid.New(), Term: phrase}, nil
		},
	}

	c := NewClassifier(resolver, &mockAssociationRepo{}, 10, zap.NewNop())
	err := c.Classify(context.Background(), uuid.New(), candidates)

	require.NoError(t, err)
	assert.Equal(t, []string{"top", "first tie", "second tie", "low"}, resolvedOrder)
}

func TestClassifier_SkipsEmptyPhrases(t *testing.T) {
	candidates := []models.Candidate{
		{Phrase: "", RelevanceScore: 0.99},
		{Phrase: "housing", PrimaryCategory: "Economy", RelevanceScore: 0.5},
	}

	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(&mockResolver{}, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), candidates)
	require.NoError(t, err)
	assert.Len(t, assocRepo.lastReplaced, 1)
}

func TestClassifier_SkipsUnresolvableCandidates(t *testing.T) {
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
			if phrase == "broken" {
				return nil, errors.New("lookup failed")
			}
			return &models.TaxonomyTerm{ID: uuid.New(), Term: phrase}, nil
		},
	}
	candidates := []models.Candidate{
		{Phrase: "broken", RelevanceScore: 0.9},
		{Phrase: "housing", RelevanceScore: 0.5},
	}

	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(resolver, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), candidates)
	require.NoError(t, err)

	// The surviving candidate still gets a dense display order from zero.
	require.Len(t, assocRepo.lastReplaced, 1)
	assert.Equal(t, 0, assocRepo.lastReplaced[0].DisplayOrder)
}

func TestClassifier_DedupesCandidatesResolvingToSameTerm(t *testing.T) {
	shared := &models.TaxonomyTerm{ID: uuid.New(), Term: "background checks"}
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
			return shared, nil
		},
	}
	candidates := []models.Candidate{
		{Phrase: "background check", RelevanceScore: 0.9},
		{Phrase: "background checks", RelevanceScore: 0.7},
	}

	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(resolver, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), candidates)
	require.NoError(t, err)

	require.Len(t, assocRepo.lastReplaced, 1)
	assert.InDelta(t, 0.9, assocRepo.lastReplaced[0].RelevanceScore, 0.0001)
}

func TestClassifier_EmptyCandidateListClearsAssociations(t *testing.T) {
	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(&mockResolver{}, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, assocRepo.replaceCalls)
	assert.Empty(t, assocRepo.lastReplaced)
}

func TestClassifier_ReplaceFailureIsFatal(t *testing.T) {
	assocRepo := &mockAssociationRepo{
		replaceFunc: func(ctx context.Context, documentID uuid.UUID, associations []*models.DocumentTermAssociation) error {
			return errors.New("tx aborted")
		},
	}
	c := NewClassifier(&mockResolver{}, assocRepo, 10, zap.NewNop())

	err := c.Classify(context.Background(), uuid.New(), []models.Candidate{
		{Phrase: "housing", RelevanceScore: 0.5},
	})
	assert.Error(t, err)
}

func TestClassifier_RepeatedClassificationIsIdempotent(t *testing.T) {
	terms := map[string]*models.TaxonomyTerm{}
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
			if term, ok := terms[phrase]; ok {
				return term, nil
			}
			term := &models.TaxonomyTerm{ID: uuid.New(), Term: phrase}
			terms[phrase] = term
			return term, nil
		},
	}
	candidates := []models.Candidate{
		{Phrase: "minimum wage", RelevanceScore: 0.8},
		{Phrase: "housing", RelevanceScore: 0.6},
	}

	assocRepo := &mockAssociationRepo{}
	c := NewClassifier(resolver, assocRepo, 10, zap.NewNop())
	docID := uuid.New()

	require.NoError(t, c.Classify(context.Background(), docID, candidates))
	first := assocRepo.lastReplaced
	require.NoError(t, c.Classify(context.Background(), docID, candidates))
	second := assocRepo.lastReplaced

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].TaxonomyID, second[i].TaxonomyID)
		assert.Equal(t, first[i].DisplayOrder, second[i].DisplayOrder)
	}
}

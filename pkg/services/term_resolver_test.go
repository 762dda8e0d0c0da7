package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/models"
)

func TestTermResolver_ExactMatchWins(t *testing.T) {
	existing := &models.TaxonomyTerm{ID: uuid.New(), Term: "Guns", PrimaryCategory: "Public Safety"}
	repo := &mockTaxonomyRepo{
		findExactFunc: func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
			if phrase == "guns" && primaryCategory == "Public Safety" {
				return existing, nil
			}
			return nil, nil
		},
	}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "guns", "Public Safety", "", nil, false)

	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, existing.ID, term.ID)
	assert.Equal(t, 0, repo.createCalls)
}

func TestTermResolver_PluralVariantMatches(t *testing.T) {
	existing := &models.TaxonomyTerm{ID: uuid.New(), Term: "background checks", PrimaryCategory: "Public Safety"}
	repo := &mockTaxonomyRepo{
		findExactFunc: func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
			if phrase == "background checks" {
				return existing, nil
			}
			return nil, nil
		},
	}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "background check", "Public Safety", "", nil, false)

	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, existing.ID, term.ID)
}

func TestTermResolver_PartialMatchBeforeSynonym(t *testing.T) {
	partial := &models.TaxonomyTerm{ID: uuid.New(), Term: "universal background checks", PrimaryCategory: "Public Safety"}
	synonymHit := &models.TaxonomyTerm{ID: uuid.New(), Term: "other", PrimaryCategory: "Public Safety"}
	repo := &mockTaxonomyRepo{
		findPartialFunc: func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
			return partial, nil
		},
		findBySynonymFunc: func(ctx context.Context, phrase string) (*models.TaxonomyTerm, error) {
			return synonymHit, nil
		},
	}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "checks background", "Public Safety", "", nil, false)

	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, partial.ID, term.ID)
}

func TestTermResolver_SynonymMatch(t *testing.T) {
	owner := &models.TaxonomyTerm{ID: uuid.New(), Term: "reproductive rights", PrimaryCategory: "Healthcare"}
	repo := &mockTaxonomyRepo{
		findBySynonymFunc: func(ctx context.Context, phrase string) (*models.TaxonomyTerm, error) {
			if phrase == "roe v wade" {
				return owner, nil
			}
			return nil, nil
		},
	}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "roe v wade", "Healthcare", "", nil, false)

	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, owner.ID, term.ID)
	assert.Equal(t, 0, repo.createCalls)
}

func TestTermResolver_CreatesOnMiss(t *testing.T) {
	repo := &mockTaxonomyRepo{}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "universal background checks", "Public Safety", "Guns", []string{"UBC"}, false)

	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, "universal background checks", term.Term)
	assert.Equal(t, "Public Safety", term.PrimaryCategory)
	assert.Equal(t, "Guns", term.Subcategory)
	assert.NotEqual(t, uuid.Nil, term.ID)
	assert.Equal(t, 1, repo.createCalls)
	assert.Equal(t, 1, repo.addSynonymsCalls)
}

func TestTermResolver_StrictMissReturnsNil(t *testing.T) {
	repo := &mockTaxonomyRepo{}

	resolver := NewTermResolver(repo, zap.NewNop())
	term, err := resolver.Resolve(context.Background(), "never seen before", "Public Safety", "", nil, true)

	require.NoError(t, err)
	assert.Nil(t, term)
	assert.Equal(t, 0, repo.createCalls)
}

func TestTermResolver_EmptyPhraseIsError(t *testing.T) {
	resolver := NewTermResolver(&mockTaxonomyRepo{}, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), "   ", "Public Safety", "", nil, false)
	assert.Error(t, err)
}

func TestTermResolver_LookupErrorPropagates(t *testing.T) {
	repo := &mockTaxonomyRepo{
		findExactFunc: func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
			return nil, errors.New("connection refused")
		},
	}

	resolver := NewTermResolver(repo, zap.NewNop())
	_, err := resolver.Resolve(context.Background(), "guns", "Public Safety", "", nil, false)
	assert.Error(t, err)
}

func TestInflectionVariants(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		want   []string
	}{
		{
			name:   "singular to plural",
			phrase: "background check",
			want:   []string{"background checks"},
		},
		{
			name:   "plural to singular",
			phrase: "background checks",
			want:   []string{"background check"},
		},
		{
			name:   "single word",
			phrase: "gun",
			want:   []string{"guns"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inflectionVariants(tt.phrase))
		})
	}
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// TermResolver maps a raw extracted phrase onto the controlled vocabulary.
type TermResolver interface {
	// Resolve finds the best-matching taxonomy term for phrase, creating a
	// new one when nothing matches and strict is false. A strict miss
	// returns (nil, nil); the caller decides whether that is a skip or an
	// error.
	Resolve(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error)
}

type termResolver struct {
	taxonomyRepo repositories.TaxonomyRepository
	logger       *zap.Logger
}

// NewTermResolver creates a new TermResolver.
func NewTermResolver(taxonomyRepo repositories.TaxonomyRepository, logger *zap.Logger) TermResolver {
	return &termResolver{
		taxonomyRepo: taxonomyRepo,
		logger:       logger.Named("term_resolver"),
	}
}

var _ TermResolver = (*termResolver)(nil)

// Resolve walks the lookup ladder in order, first match wins:
// exact, exact on the singular/plural variant, partial containment,
// synonym. Creation on miss is idempotent under concurrent callers: a
// duplicate race is tolerated because the next resolution pass finds
// either copy.
func (s *termResolver) Resolve(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, fmt.Errorf("cannot resolve an empty phrase")
	}

	term, err := s.taxonomyRepo.FindExact(ctx, phrase, primaryCategory)
	if err != nil {
		return nil, fmt.Errorf("exact lookup failed: %w", err)
	}
	if term != nil {
		return term, nil
	}

	// Singular/plural variants count as exact: "background check" should
	// land on "background checks" before falling through to partial match.
	for _, variant := range inflectionVariants(phrase) {
		term, err = s.taxonomyRepo.FindExact(ctx, variant, primaryCategory)
		if err != nil {
			return nil, fmt.Errorf("variant lookup failed: %w", err)
		}
		if term != nil {
			return term, nil
		}
	}

	term, err = s.taxonomyRepo.FindPartial(ctx, phrase, primaryCategory)
	if err != nil {
		return nil, fmt.Errorf("partial lookup failed: %w", err)
	}
	if term != nil {
		return term, nil
	}

	term, err = s.taxonomyRepo.FindBySynonym(ctx, phrase)
	if err != nil {
		return nil, fmt.Errorf("synonym lookup failed: %w", err)
	}
	if term != nil {
		return term, nil
	}

	if strict {
		s.logger.Debug("strict resolution miss",
			zap.String("phrase", phrase),
			zap.String("primary_category", primaryCategory))
		return nil, nil
	}

	created := &models.TaxonomyTerm{
		Term:            phrase,
		PrimaryCategory: primaryCategory,
		Subcategory:     subcategory,
	}
	if err := s.taxonomyRepo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create term %q: %w", phrase, err)
	}

	if len(synonyms) > 0 {
		// Synonyms are best-effort on the create path; the term itself is
		// already usable.
		if err := s.taxonomyRepo.AddSynonyms(ctx, created.ID, synonyms); err != nil {
			s.logger.Warn("failed to attach synonyms to new term",
				zap.String("term", phrase),
				zap.Error(err))
		}
	}

	s.logger.Info("created taxonomy term",
		zap.String("term", phrase),
		zap.String("primary_category", primaryCategory),
		zap.String("subcategory", subcategory))

	return created, nil
}

// inflectionVariants returns the singular and plural forms of phrase that
// differ from the phrase itself. Only the final word is inflected so that
// multi-word phrases behave like their head noun.
func inflectionVariants(phrase string) []string {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return nil
	}

	last := words[len(words)-1]
	prefix := strings.Join(words[:len(words)-1], " ")

	var variants []string
	for _, inflected := range []string{inflection.Singular(last), inflection.Plural(last)} {
		if strings.EqualFold(inflected, last) {
			continue
		}
		variant := inflected
		if prefix != "" {
			variant = prefix + " " + inflected
		}
		variants = append(variants, variant)
	}

	return variants
}

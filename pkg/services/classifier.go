package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// Classifier maps an analyzer's candidate phrases onto taxonomy associations
// for a document.
type Classifier interface {
	// Classify replaces the document's association set with the top
	// candidates, resolved against the taxonomy. Candidates that fail
	// resolution are skipped; a storage failure is fatal to the batch.
	Classify(ctx context.Context, documentID uuid.UUID, candidates []models.Candidate) error
}

type classifier struct {
	resolver        TermResolver
	associationRepo repositories.AssociationRepository
	maxAssociations int
	logger          *zap.Logger
}

// NewClassifier creates a new Classifier keeping at most maxAssociations
// terms per document.
func NewClassifier(resolver TermResolver, associationRepo repositories.AssociationRepository, maxAssociations int, logger *zap.Logger) Classifier {
	return &classifier{
		resolver:        resolver,
		associationRepo: associationRepo,
		maxAssociations: maxAssociations,
		logger:          logger.Named("classifier"),
	}
}

var _ Classifier = (*classifier)(nil)

func (s *classifier) Classify(ctx context.Context, documentID uuid.UUID, candidates []models.Candidate) error {
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Phrase == "" {
			continue
		}
		kept = append(kept, c)
	}

	// Stable sort keeps the analyzer's extraction order as the tie-break
	// between equal relevance scores.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > s.maxAssociations {
		kept = kept[:s.maxAssociations]
	}

	associations := make([]*models.DocumentTermAssociation, 0, len(kept))
	seen := make(map[uuid.UUID]bool, len(kept))
	for _, c := range kept {
		term, err := s.resolver.Resolve(ctx, c.Phrase, c.PrimaryCategory, c.Subcategory, c.Synonyms, false)
		if err != nil || term == nil {
			s.logger.Warn("skipping unresolvable candidate",
				zap.String("document_id", documentID.String()),
				zap.String("phrase", c.Phrase),
				zap.Error(err))
			continue
		}
		// Two candidates can resolve to the same term (e.g. a phrase and
		// its plural); keep the higher-ranked one.
		if seen[term.ID] {
			continue
		}
		seen[term.ID] = true

		associations = append(associations, &models.DocumentTermAssociation{
			DocumentID:     documentID,
			TaxonomyID:     term.ID,
			RelevanceScore: c.RelevanceScore,
			DisplayOrder:   len(associations),
		})
	}

	// Replace even when nothing resolved: a re-analysis that yields no
	// usable candidates clears the stale association set.
	if err := s.associationRepo.ReplaceForDocument(ctx, documentID, associations); err != nil {
		return fmt.Errorf("failed to replace associations for document %s: %w", documentID, err)
	}

	s.logger.Info("classified document",
		zap.String("document_id", documentID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("associations", len(associations)))

	return nil
}

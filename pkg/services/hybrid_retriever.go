package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/llm"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// HybridRetriever runs lexical and vector retrieval independently and unions
// the candidate sets, favoring recall. Structural filters, sorting and
// pagination apply after the union.
type HybridRetriever interface {
	Retrieve(ctx context.Context, query string, expandedTerms []string, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error)
}

type hybridRetriever struct {
	documentRepo        repositories.DocumentRepository
	embedder            llm.EmbeddingClient
	similarityThreshold float64
	logger              *zap.Logger
}

// NewHybridRetriever creates a new HybridRetriever. The vector strategy
// admits documents whose embedding similarity to the query clears
// similarityThreshold.
func NewHybridRetriever(documentRepo repositories.DocumentRepository, embedder llm.EmbeddingClient, similarityThreshold float64, logger *zap.Logger) HybridRetriever {
	return &hybridRetriever{
		documentRepo:        documentRepo,
		embedder:            embedder,
		similarityThreshold: similarityThreshold,
		logger:              logger.Named("hybrid_retriever"),
	}
}

var _ HybridRetriever = (*hybridRetriever)(nil)

func (s *hybridRetriever) Retrieve(ctx context.Context, query string, expandedTerms []string, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error) {
	query = strings.TrimSpace(query)

	// An empty query is a browse: no candidate restriction, filters only.
	var candidateIDs []uuid.UUID
	if query != "" {
		candidateIDs = s.candidates(ctx, query, expandedTerms)
		if candidateIDs == nil {
			candidateIDs = []uuid.UUID{}
		}
	}

	return s.documentRepo.FindFiltered(ctx, candidateIDs, filters, sortBy, sortDirection, limit, offset)
}

// candidates runs both strategies concurrently and unions their ID sets.
// Either strategy degrades to empty on failure rather than failing the
// search; the union of two degraded strategies is an empty candidate set.
func (s *hybridRetriever) candidates(ctx context.Context, query string, expandedTerms []string) []uuid.UUID {
	var (
		wg         sync.WaitGroup
		lexicalIDs []uuid.UUID
		vectorIDs  []uuid.UUID
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexicalIDs = s.lexical(ctx, expandedTerms)
	}()
	go func() {
		defer wg.Done()
		vectorIDs = s.vector(ctx, query)
	}()
	wg.Wait()

	union := make([]uuid.UUID, 0, len(lexicalIDs)+len(vectorIDs))
	seen := make(map[uuid.UUID]bool, len(lexicalIDs)+len(vectorIDs))
	for _, id := range append(lexicalIDs, vectorIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		union = append(union, id)
	}

	s.logger.Debug("retrieval strategies complete",
		zap.String("query", query),
		zap.Int("lexical", len(lexicalIDs)),
		zap.Int("vector", len(vectorIDs)),
		zap.Int("union", len(union)))

	return union
}

func (s *hybridRetriever) lexical(ctx context.Context, expandedTerms []string) []uuid.UUID {
	ids, err := s.documentRepo.SearchLexical(ctx, expandedTerms)
	if err == nil {
		return ids
	}

	// The token index can reject a query the substring scan handles fine;
	// the fallback preserves OR-of-terms semantics across all text fields.
	s.logger.Warn("full-text search failed, falling back to substring matching", zap.Error(err))

	ids, err = s.documentRepo.SearchLexicalSubstring(ctx, expandedTerms)
	if err != nil {
		s.logger.Error("substring fallback failed", zap.Error(err))
		return nil
	}
	return ids
}

// vector embeds the raw query and selects documents above the similarity
// threshold. Embedding failure (timeout, quota, service down) degrades the
// strategy to an empty set.
func (s *hybridRetriever) vector(ctx context.Context, query string) []uuid.UUID {
	embedding, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		s.logger.Warn("embedding unavailable, vector strategy degraded",
			zap.String("query", query),
			zap.Error(err))
		return nil
	}

	matches, err := s.documentRepo.SearchVector(ctx, embedding, s.similarityThreshold)
	if err != nil {
		s.logger.Error("vector search failed", zap.Error(err))
		return nil
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.DocumentID
	}
	return ids
}

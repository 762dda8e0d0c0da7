package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/analysis"
	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/llm"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
	"github.com/canvass-labs/canvass-engine/pkg/retry"
)

// DocumentService owns the document ingestion lifecycle: create, embed,
// analyze and classify.
type DocumentService interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, documentID uuid.UUID) (*models.Document, error)
	Delete(ctx context.Context, documentID uuid.UUID) error

	// GenerateEmbeddings embeds the document's body text and summary and
	// stores both vectors, overwriting any previous ones.
	GenerateEmbeddings(ctx context.Context, documentID uuid.UUID) error

	// Analyze runs candidate extraction over the document and classifies
	// the result into taxonomy associations.
	Analyze(ctx context.Context, documentID uuid.UUID) error
}

type documentService struct {
	documentRepo    repositories.DocumentRepository
	associationRepo repositories.AssociationRepository
	classifier      Classifier
	extractor       analysis.CandidateExtractor
	embedder        llm.EmbeddingClient
	logger          *zap.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documentRepo repositories.DocumentRepository, associationRepo repositories.AssociationRepository, classifier Classifier, extractor analysis.CandidateExtractor, embedder llm.EmbeddingClient, logger *zap.Logger) DocumentService {
	return &documentService{
		documentRepo:    documentRepo,
		associationRepo: associationRepo,
		classifier:      classifier,
		extractor:       extractor,
		embedder:        embedder,
		logger:          logger.Named("document_service"),
	}
}

var _ DocumentService = (*documentService)(nil)

func (s *documentService) Create(ctx context.Context, doc *models.Document) error {
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return err
	}

	s.logger.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.Filename))

	return nil
}

func (s *documentService) Get(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	tags, err := s.associationRepo.GetForDocument(ctx, documentID)
	if err != nil {
		s.logger.Warn("failed to load tags for document",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
	} else {
		doc.Tags = tags
	}

	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	return s.documentRepo.Delete(ctx, documentID)
}

func (s *documentService) GenerateEmbeddings(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	cfg := retry.DefaultConfig()

	if doc.BodyText != "" {
		embedding, err := retry.DoWithResult(ctx, cfg, func() ([]float32, error) {
			return s.embedder.CreateEmbedding(ctx, doc.BodyText)
		})
		if err != nil {
			return fmt.Errorf("%w: document body: %v", apperrors.ErrEmbeddingUnavailable, err)
		}
		if err := s.documentRepo.StoreDocumentEmbedding(ctx, documentID, embedding); err != nil {
			return err
		}
	}

	if doc.Summary != "" {
		embedding, err := retry.DoWithResult(ctx, cfg, func() ([]float32, error) {
			return s.embedder.CreateEmbedding(ctx, doc.Summary)
		})
		if err != nil {
			return fmt.Errorf("%w: document summary: %v", apperrors.ErrEmbeddingUnavailable, err)
		}
		if err := s.documentRepo.StoreSummaryEmbedding(ctx, documentID, embedding); err != nil {
			return err
		}
	}

	s.logger.Info("document embeddings stored", zap.String("document_id", documentID.String()))

	return nil
}

func (s *documentService) Analyze(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	candidates, err := s.extractor.ExtractCandidates(ctx, doc.Summary, doc.BodyText)
	if err != nil {
		return fmt.Errorf("candidate extraction failed for document %s: %w", documentID, err)
	}

	if err := s.classifier.Classify(ctx, documentID, candidates); err != nil {
		return err
	}

	s.logger.Info("document analyzed",
		zap.String("document_id", documentID.String()),
		zap.Int("candidates", len(candidates)))

	return nil
}

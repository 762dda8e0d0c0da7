package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/config"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/preview"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// SearchService orchestrates a full search request: query expansion, hybrid
// retrieval, facet aggregation and result decoration.
type SearchService interface {
	// Search never returns an error to the caller; a search that fails
	// entirely produces a well-formed empty response with Error set.
	Search(ctx context.Context, req models.SearchRequest) *models.SearchResponse
}

type searchService struct {
	expander        QueryExpander
	retriever       HybridRetriever
	facets          FacetService
	associationRepo repositories.AssociationRepository
	previews        preview.Provider
	searchCfg       *config.SearchConfig
	logger          *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(expander QueryExpander, retriever HybridRetriever, facets FacetService, associationRepo repositories.AssociationRepository, previews preview.Provider, searchCfg *config.SearchConfig, logger *zap.Logger) SearchService {
	return &searchService{
		expander:        expander,
		retriever:       retriever,
		facets:          facets,
		associationRepo: associationRepo,
		previews:        previews,
		searchCfg:       searchCfg,
		logger:          logger.Named("search_service"),
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) Search(ctx context.Context, req models.SearchRequest) *models.SearchResponse {
	start := time.Now()
	req = s.sanitize(req)

	resp := &models.SearchResponse{
		Documents: []*models.Document{},
		Pagination: models.Pagination{
			Page:    req.Page,
			PerPage: req.PerPage,
		},
		ExpandedTerms: []string{},
	}
	defer func() {
		resp.ResponseTimeMs = time.Since(start).Milliseconds()
	}()

	var expanded []string
	if strings.TrimSpace(req.Query) != "" {
		var err error
		expanded, err = s.expander.Expand(ctx, req.Query)
		if err != nil {
			// Expansion failure is not fatal: search proceeds with the
			// raw query alone.
			s.logger.Warn("query expansion failed", zap.String("query", req.Query), zap.Error(err))
			expanded = []string{strings.ToLower(strings.TrimSpace(req.Query))}
		}
		resp.ExpandedTerms = expanded
	}

	offset := (req.Page - 1) * req.PerPage
	docs, total, err := s.retriever.Retrieve(ctx, req.Query, expanded, req.Filters, req.SortBy, req.SortDirection, req.PerPage, offset)
	if err != nil {
		s.logger.Error("retrieval failed", zap.String("query", req.Query), zap.Error(err))
		resp.Error = "search is temporarily unavailable"
		return resp
	}
	if docs == nil {
		docs = []*models.Document{}
	}

	s.attachTags(ctx, docs)
	s.attachPreviews(ctx, docs)

	resp.Documents = docs
	resp.Pagination.Total = total
	resp.Pagination.Pages = (total + req.PerPage - 1) / req.PerPage

	facets, err := s.facets.GetFacets(ctx, req.Filters.Taxonomy)
	if err != nil {
		// Degraded sidebar, valid results.
		s.logger.Warn("facet aggregation failed", zap.Error(err))
	} else {
		resp.Facets = *facets
	}

	return resp
}

// sanitize corrects malformed input to safe defaults rather than rejecting
// the request.
func (s *searchService) sanitize(req models.SearchRequest) models.SearchRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = s.searchCfg.DefaultPerPage
	}
	if req.PerPage > s.searchCfg.MaxPerPage {
		req.PerPage = s.searchCfg.MaxPerPage
	}

	switch req.SortBy {
	case models.SortByUploadedAt, models.SortByFilename, models.SortByYear:
	default:
		req.SortBy = models.SortByUploadedAt
		req.SortDirection = models.SortDesc
	}
	switch strings.ToLower(req.SortDirection) {
	case models.SortAsc, models.SortDesc:
		req.SortDirection = strings.ToLower(req.SortDirection)
	default:
		req.SortDirection = models.SortDesc
	}

	return req
}

// attachTags decorates the page of documents with their taxonomy tags in
// display order. Tag loading is best-effort; documents render without tags
// on failure.
func (s *searchService) attachTags(ctx context.Context, docs []*models.Document) {
	if len(docs) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	tags, err := s.associationRepo.GetForDocuments(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load document tags", zap.Error(err))
		return
	}

	for _, d := range docs {
		d.Tags = tags[d.ID]
	}
}

// attachPreviews asks the preview collaborator for each document's preview
// URL. An empty URL means the preview is not ready yet; lookup failures leave
// the document without one.
func (s *searchService) attachPreviews(ctx context.Context, docs []*models.Document) {
	for _, d := range docs {
		url, err := s.previews.PreviewURL(ctx, d.Filename)
		if err != nil {
			s.logger.Warn("preview lookup failed", zap.String("filename", d.Filename), zap.Error(err))
			continue
		}
		d.PreviewURL = url
	}
}

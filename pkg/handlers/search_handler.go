package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/services"
)

// SearchHandler handles document search HTTP requests.
type SearchHandler struct {
	searchService services.SearchService
	logger        *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService services.SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// RegisterRoutes registers the search handler's routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.Search)
}

// Search handles GET /api/search
//
// Malformed parameters are corrected to defaults rather than rejected, so
// this endpoint never returns 400.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := parseSearchRequest(r)

	resp := h.searchService.Search(r.Context(), req)

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to write search response", zap.Error(err))
	}
}

func parseSearchRequest(r *http.Request) models.SearchRequest {
	q := r.URL.Query()

	req := models.SearchRequest{
		Query:         q.Get("q"),
		SortBy:        q.Get("sort_by"),
		SortDirection: q.Get("sort_direction"),
		Filters: models.SearchFilters{
			DocumentType: q.Get("type"),
			Location:     q.Get("location"),
			Taxonomy: models.FacetSelection{
				PrimaryCategory: q.Get("primary_category"),
				Subcategory:     q.Get("subcategory"),
				SpecificTerm:    q.Get("specific_term"),
			},
		},
	}

	// Unparseable numbers stay zero and get defaulted downstream.
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if yearStr := q.Get("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			req.Filters.Year = &year
		}
	}

	return req
}

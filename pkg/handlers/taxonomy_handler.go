package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
	"github.com/canvass-labs/canvass-engine/pkg/services"
)

// TaxonomyListResponse for GET /taxonomy
type TaxonomyListResponse struct {
	Terms []*models.TaxonomyTerm `json:"terms"`
	Total int                    `json:"total"`
}

// TaxonomyHandler handles taxonomy browsing and facet HTTP requests.
type TaxonomyHandler struct {
	taxonomyRepo repositories.TaxonomyRepository
	facetService services.FacetService
	logger       *zap.Logger
}

// NewTaxonomyHandler creates a new taxonomy handler.
func NewTaxonomyHandler(taxonomyRepo repositories.TaxonomyRepository, facetService services.FacetService, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyRepo: taxonomyRepo,
		facetService: facetService,
		logger:       logger,
	}
}

// RegisterRoutes registers the taxonomy handler's routes on the given mux.
func (h *TaxonomyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/taxonomy", h.List)
	mux.HandleFunc("GET /api/taxonomy/{tid}", h.Get)
	mux.HandleFunc("GET /api/taxonomy/facets", h.Facets)
}

// List handles GET /api/taxonomy
func (h *TaxonomyHandler) List(w http.ResponseWriter, r *http.Request) {
	terms, err := h.taxonomyRepo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list taxonomy terms", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_taxonomy_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := TaxonomyListResponse{
		Terms: terms,
		Total: len(terms),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/taxonomy/{tid}
func (h *TaxonomyHandler) Get(w http.ResponseWriter, r *http.Request) {
	termID, ok := ParseTermID(w, r, h.logger)
	if !ok {
		return
	}

	term, err := h.taxonomyRepo.GetByID(r.Context(), termID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "term_not_found", "Taxonomy term not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get taxonomy term", zap.String("term_id", termID.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_term_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: term}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Facets handles GET /api/taxonomy/facets
func (h *TaxonomyHandler) Facets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	selection := models.FacetSelection{
		PrimaryCategory: q.Get("primary_category"),
		Subcategory:     q.Get("subcategory"),
		SpecificTerm:    q.Get("specific_term"),
	}

	facets, err := h.facetService.GetFacets(r.Context(), selection)
	if err != nil {
		h.logger.Error("Failed to compute facets", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "facets_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, facets); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateDocumentRequest for POST /documents
type CreateDocumentRequest struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	Year         *int   `json:"year,omitempty"`
	Location     string `json:"location,omitempty"`
	Summary      string `json:"summary,omitempty"`
	BodyText     string `json:"body_text,omitempty"`
}

// ClassifyRequest for POST /documents/{did}/classify. Candidates arrive in
// the analyzer's loose shape and are normalized during decoding.
type ClassifyRequest struct {
	Candidates json.RawMessage `json:"candidates"`
}

// ============================================================================
// Handler
// ============================================================================

// DocumentHandler handles document lifecycle HTTP requests.
type DocumentHandler struct {
	documentService services.DocumentService
	classifier      services.Classifier
	logger          *zap.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(documentService services.DocumentService, classifier services.Classifier, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		classifier:      classifier,
		logger:          logger,
	}
}

// RegisterRoutes registers the document handler's routes on the given mux.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.Create)
	mux.HandleFunc("GET /api/documents/{did}", h.Get)
	mux.HandleFunc("DELETE /api/documents/{did}", h.Delete)
	mux.HandleFunc("POST /api/documents/{did}/classify", h.Classify)
	mux.HandleFunc("POST /api/documents/{did}/analyze", h.Analyze)
	mux.HandleFunc("POST /api/documents/{did}/embeddings", h.GenerateEmbeddings)
}

// Create handles POST /api/documents
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Filename == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_filename", "filename is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	doc := &models.Document{
		Filename:     req.Filename,
		DocumentType: req.DocumentType,
		Year:         req.Year,
		Location:     req.Location,
		Summary:      req.Summary,
		BodyText:     req.BodyText,
	}

	if err := h.documentService.Create(r.Context(), doc); err != nil {
		h.logger.Error("Failed to create document", zap.String("filename", req.Filename), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_document_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: doc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/documents/{did}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	documentID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "document_not_found", "Document not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get document", zap.String("document_id", documentID.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_document_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: doc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/documents/{did}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.documentService.Delete(r.Context(), documentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "document_not_found", "Document not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete document", zap.String("document_id", documentID.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_document_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Document deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Classify handles POST /api/documents/{did}/classify
func (h *DocumentHandler) Classify(w http.ResponseWriter, r *http.Request) {
	documentID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	candidates, err := models.ParseCandidates(req.Candidates)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_candidates", "candidates must be a JSON array"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.classifier.Classify(r.Context(), documentID, candidates); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "classification_conflict", "Document is being reclassified concurrently, retry"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Classification failed",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "classification_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Document classified"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Analyze handles POST /api/documents/{did}/analyze
func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	documentID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.documentService.Analyze(r.Context(), documentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "document_not_found", "Document not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Analysis failed", zap.String("document_id", documentID.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "analysis_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Document analyzed"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GenerateEmbeddings handles POST /api/documents/{did}/embeddings
func (h *DocumentHandler) GenerateEmbeddings(w http.ResponseWriter, r *http.Request) {
	documentID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.documentService.GenerateEmbeddings(r.Context(), documentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "document_not_found", "Document not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if errors.Is(err, apperrors.ErrEmbeddingUnavailable) {
			if err := ErrorResponse(w, http.StatusServiceUnavailable, "embedding_unavailable", "Embedding service is unavailable, try again later"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Embedding generation failed", zap.String("document_id", documentID.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "embedding_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Embeddings generated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a cataloged campaign document. The embedding columns live on
// the same row but are loaded only by the retrieval paths that need them.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	Year         *int      `json:"year,omitempty"`
	Location     string    `json:"location"`
	Summary      string    `json:"summary"`
	BodyText     string    `json:"-"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Tags are the document's taxonomy associations in display order,
	// populated by the search formatter.
	Tags []*DocumentTag `json:"tags,omitempty"`

	// PreviewURL is filled in when the preview collaborator has a preview
	// ready; empty means "not yet available", which is not an error.
	PreviewURL string `json:"preview_url,omitempty"`
}

// DocumentTag is a document↔term association joined with its term for display.
type DocumentTag struct {
	TaxonomyID      uuid.UUID `json:"taxonomy_id"`
	Term            string    `json:"term"`
	PrimaryCategory string    `json:"primary_category"`
	Subcategory     string    `json:"subcategory,omitempty"`
	RelevanceScore  float64   `json:"relevance_score"`
	DisplayOrder    int       `json:"display_order"`
}

// DocumentTermAssociation links a document to a taxonomy term.
// For a given document, associations are capped at a fixed maximum and
// display_order is a dense 0..N-1 ranking by descending relevance.
type DocumentTermAssociation struct {
	ID             uuid.UUID `json:"id"`
	DocumentID     uuid.UUID `json:"document_id"`
	TaxonomyID     uuid.UUID `json:"taxonomy_id"`
	RelevanceScore float64   `json:"relevance_score"`
	DisplayOrder   int       `json:"display_order"`
	CreatedAt      time.Time `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// TaxonomyTerm is a canonical vocabulary entry under a primary category and
// optional subcategory. Parent links form a tree; acyclicity is validated at
// bulk-import time, not on every read.
type TaxonomyTerm struct {
	ID              uuid.UUID  `json:"id"`
	Term            string     `json:"term"`
	PrimaryCategory string     `json:"primary_category"`
	Subcategory     string     `json:"subcategory,omitempty"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

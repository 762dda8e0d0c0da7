package models

// Sort fields accepted by the search surface. Anything else falls back to
// SortByUploadedAt descending.
const (
	SortByUploadedAt = "uploaded_at"
	SortByFilename   = "filename"
	SortByYear       = "year"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// FacetSelection is the request-scoped drill-down path used to scope both
// filtering and facet-count computation. Never persisted.
type FacetSelection struct {
	PrimaryCategory string `json:"primary_category,omitempty"`
	Subcategory     string `json:"subcategory,omitempty"`
	SpecificTerm    string `json:"specific_term,omitempty"`
}

// IsZero reports whether no taxonomy drill-down is active.
func (s FacetSelection) IsZero() bool {
	return s.PrimaryCategory == "" && s.Subcategory == "" && s.SpecificTerm == ""
}

// SearchFilters are the structural filters applied after retrieval-strategy
// union: exact match on type and year, substring match on location, and the
// taxonomy drill-down.
type SearchFilters struct {
	DocumentType string         `json:"type,omitempty"`
	Year         *int           `json:"year,omitempty"`
	Location     string         `json:"location,omitempty"`
	Taxonomy     FacetSelection `json:"taxonomy,omitempty"`
}

// SearchRequest is the logical search call contract.
type SearchRequest struct {
	Query         string        `json:"query"`
	Page          int           `json:"page"`
	PerPage       int           `json:"per_page"`
	SortBy        string        `json:"sort_by"`
	SortDirection string        `json:"sort_direction"`
	Filters       SearchFilters `json:"filters"`
}

// FacetCount is one navigable count row for the sidebar.
// Counts are document counts, never association counts.
type FacetCount struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// SearchFacets is the full facet breakdown for the current selection.
type SearchFacets struct {
	PrimaryCategories []FacetCount `json:"primary_categories"`
	Subcategories     []FacetCount `json:"subcategories"`
	Terms             []FacetCount `json:"terms"`
}

// Pagination describes the result window.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// SearchResponse is the logical search result contract. A search that fails
// entirely still returns a well-formed empty response with Error set.
type SearchResponse struct {
	Documents      []*Document  `json:"documents"`
	Pagination     Pagination   `json:"pagination"`
	Facets         SearchFacets `json:"facets"`
	ExpandedTerms  []string     `json:"expanded_terms"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	Error          string       `json:"error,omitempty"`
}

package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/database"
	"github.com/canvass-labs/canvass-engine/pkg/models"
)

// TaxonomyRepository provides data access for the hierarchical vocabulary.
type TaxonomyRepository interface {
	Create(ctx context.Context, term *models.TaxonomyTerm) error
	GetByID(ctx context.Context, termID uuid.UUID) (*models.TaxonomyTerm, error)
	GetAll(ctx context.Context) ([]*models.TaxonomyTerm, error)

	// FindExact returns the term whose text equals phrase (case-insensitive)
	// within the primary category, or nil when absent.
	FindExact(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error)

	// FindPartial returns a term whose text contains phrase or is contained
	// by phrase (case-insensitive) within the primary category. The closest
	// match by length wins.
	FindPartial(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error)

	// FindBySynonym returns the term owning a synonym equal to phrase
	// (case-insensitive), or nil when absent.
	FindBySynonym(ctx context.Context, phrase string) (*models.TaxonomyTerm, error)

	// SearchTerms returns all terms whose text contains the query substring.
	SearchTerms(ctx context.Context, query string) ([]*models.TaxonomyTerm, error)

	// SearchBySynonym returns all terms reachable via a synonym containing
	// the query substring.
	SearchBySynonym(ctx context.Context, query string) ([]*models.TaxonomyTerm, error)

	// GetSynonyms returns the synonym strings for a set of terms.
	GetSynonyms(ctx context.Context, termIDs []uuid.UUID) (map[uuid.UUID][]string, error)

	// GetSiblings returns all terms sharing (primaryCategory, subcategory),
	// excluding the given term.
	GetSiblings(ctx context.Context, primaryCategory, subcategory string, excludeID uuid.UUID) ([]*models.TaxonomyTerm, error)

	AddSynonyms(ctx context.Context, termID uuid.UUID, synonyms []string) error
	SetParent(ctx context.Context, termID, parentID uuid.UUID) error
}

type taxonomyRepository struct {
	db *database.DB
}

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(db *database.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

var _ TaxonomyRepository = (*taxonomyRepository)(nil)

const taxonomyColumns = `id, term, primary_category, subcategory, parent_id, description, created_at, updated_at`

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *taxonomyRepository) Create(ctx context.Context, term *models.TaxonomyTerm) error {
	now := time.Now()

	query := `
		INSERT INTO taxonomy_terms (
			term, primary_category, subcategory, parent_id, description,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		term.Term,
		term.PrimaryCategory,
		nullString(term.Subcategory),
		term.ParentID,
		nullString(term.Description),
		now,
		now,
	).Scan(&term.ID, &term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create taxonomy term: %w", err)
	}

	return nil
}

func (r *taxonomyRepository) GetByID(ctx context.Context, termID uuid.UUID) (*models.TaxonomyTerm, error) {
	query := `SELECT ` + taxonomyColumns + ` FROM taxonomy_terms WHERE id = $1`

	term, err := scanTaxonomyTerm(r.db.QueryRow(ctx, query, termID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return term, nil
}

func (r *taxonomyRepository) GetAll(ctx context.Context) ([]*models.TaxonomyTerm, error) {
	query := `SELECT ` + taxonomyColumns + ` FROM taxonomy_terms ORDER BY primary_category, subcategory NULLS FIRST, term`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy terms: %w", err)
	}
	defer rows.Close()

	return collectTaxonomyTerms(rows)
}

// ============================================================================
// Resolution Lookups
// ============================================================================

func (r *taxonomyRepository) FindExact(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
	query := `
		SELECT ` + taxonomyColumns + `
		FROM taxonomy_terms
		WHERE lower(term) = lower($1) AND lower(primary_category) = lower($2)
		LIMIT 1`

	term, err := scanTaxonomyTerm(r.db.QueryRow(ctx, query, phrase, primaryCategory))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No match
		}
		return nil, err
	}

	return term, nil
}

func (r *taxonomyRepository) FindPartial(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
	// Either direction counts as a partial match: "background check" should
	// find "universal background checks" and vice versa. The term closest in
	// length to the phrase wins.
	query := `
		SELECT ` + taxonomyColumns + `
		FROM taxonomy_terms
		WHERE lower(primary_category) = lower($2)
		  AND (term ILIKE '%' || $1 || '%' OR $1 ILIKE '%' || term || '%')
		ORDER BY abs(length(term) - length($1))
		LIMIT 1`

	term, err := scanTaxonomyTerm(r.db.QueryRow(ctx, query, phrase, primaryCategory))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No match
		}
		return nil, err
	}

	return term, nil
}

func (r *taxonomyRepository) FindBySynonym(ctx context.Context, phrase string) (*models.TaxonomyTerm, error) {
	query := `
		SELECT t.id, t.term, t.primary_category, t.subcategory, t.parent_id, t.description, t.created_at, t.updated_at
		FROM taxonomy_terms t
		JOIN taxonomy_synonyms s ON s.taxonomy_id = t.id
		WHERE lower(s.synonym) = lower($1)
		LIMIT 1`

	term, err := scanTaxonomyTerm(r.db.QueryRow(ctx, query, phrase))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No match
		}
		return nil, err
	}

	return term, nil
}

// ============================================================================
// Expansion Lookups
// ============================================================================

func (r *taxonomyRepository) SearchTerms(ctx context.Context, query string) ([]*models.TaxonomyTerm, error) {
	sql := `
		SELECT ` + taxonomyColumns + `
		FROM taxonomy_terms
		WHERE term ILIKE '%' || $1 || '%'
		ORDER BY term`

	rows, err := r.db.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search taxonomy terms: %w", err)
	}
	defer rows.Close()

	return collectTaxonomyTerms(rows)
}

func (r *taxonomyRepository) SearchBySynonym(ctx context.Context, query string) ([]*models.TaxonomyTerm, error) {
	sql := `
		SELECT DISTINCT t.id, t.term, t.primary_category, t.subcategory, t.parent_id, t.description, t.created_at, t.updated_at
		FROM taxonomy_terms t
		JOIN taxonomy_synonyms s ON s.taxonomy_id = t.id
		WHERE s.synonym ILIKE '%' || $1 || '%'`

	rows, err := r.db.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search synonyms: %w", err)
	}
	defer rows.Close()

	return collectTaxonomyTerms(rows)
}

func (r *taxonomyRepository) GetSynonyms(ctx context.Context, termIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string)
	if len(termIDs) == 0 {
		return result, nil
	}

	query := `SELECT taxonomy_id, synonym FROM taxonomy_synonyms WHERE taxonomy_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, termIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query synonyms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var termID uuid.UUID
		var synonym string
		if err := rows.Scan(&termID, &synonym); err != nil {
			return nil, fmt.Errorf("failed to scan synonym: %w", err)
		}
		result[termID] = append(result[termID], synonym)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating synonyms: %w", err)
	}

	return result, nil
}

func (r *taxonomyRepository) GetSiblings(ctx context.Context, primaryCategory, subcategory string, excludeID uuid.UUID) ([]*models.TaxonomyTerm, error) {
	query := `
		SELECT ` + taxonomyColumns + `
		FROM taxonomy_terms
		WHERE lower(primary_category) = lower($1)
		  AND lower(subcategory) = lower($2)
		  AND id != $3
		ORDER BY term`

	rows, err := r.db.Query(ctx, query, primaryCategory, subcategory, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sibling terms: %w", err)
	}
	defer rows.Close()

	return collectTaxonomyTerms(rows)
}

// ============================================================================
// Mutations
// ============================================================================

func (r *taxonomyRepository) AddSynonyms(ctx context.Context, termID uuid.UUID, synonyms []string) error {
	if len(synonyms) == 0 {
		return nil
	}

	// Skip synonyms the term already has, comparing case-insensitively.
	existing, err := r.GetSynonyms(ctx, []uuid.UUID{termID})
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing[termID]))
	for _, s := range existing[termID] {
		have[strings.ToLower(s)] = true
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, synonym := range synonyms {
		synonym = strings.TrimSpace(synonym)
		if synonym == "" || have[strings.ToLower(synonym)] {
			continue
		}
		have[strings.ToLower(synonym)] = true
		batch.Queue(`INSERT INTO taxonomy_synonyms (taxonomy_id, synonym) VALUES ($1, $2)`, termID, synonym)
		queued++
	}
	if queued == 0 {
		return nil
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert synonym: %w", err)
		}
	}

	return nil
}

func (r *taxonomyRepository) SetParent(ctx context.Context, termID, parentID uuid.UUID) error {
	query := `UPDATE taxonomy_terms SET parent_id = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, termID, parentID)
	if err != nil {
		return fmt.Errorf("failed to set parent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanTaxonomyTerm(row pgx.Row) (*models.TaxonomyTerm, error) {
	var t models.TaxonomyTerm
	var subcategory, description *string

	err := row.Scan(
		&t.ID,
		&t.Term,
		&t.PrimaryCategory,
		&subcategory,
		&t.ParentID,
		&description,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan taxonomy term: %w", err)
	}

	if subcategory != nil {
		t.Subcategory = *subcategory
	}
	if description != nil {
		t.Description = *description
	}

	return &t, nil
}

func collectTaxonomyTerms(rows pgx.Rows) ([]*models.TaxonomyTerm, error) {
	var terms []*models.TaxonomyTerm
	for rows.Next() {
		term, err := scanTaxonomyTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxonomy terms: %w", err)
	}

	return terms, nil
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

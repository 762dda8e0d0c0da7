package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/database"
	"github.com/canvass-labs/canvass-engine/pkg/models"
)

// CategoryCount is one facet aggregation row.
type CategoryCount struct {
	Name  string
	Count int
}

// AssociationRepository provides data access for document↔term associations
// and the facet aggregations computed over them.
type AssociationRepository interface {
	// ReplaceForDocument atomically replaces a document's association set.
	// The delete and all inserts run in a single transaction so concurrent
	// readers never observe a partial set.
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, associations []*models.DocumentTermAssociation) error

	// GetForDocument returns a document's associations joined with their
	// terms, in display order.
	GetForDocument(ctx context.Context, documentID uuid.UUID) ([]*models.DocumentTag, error)

	// GetForDocuments batch-loads tags for many documents at once.
	GetForDocuments(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]*models.DocumentTag, error)

	// CountByPrimaryCategory counts distinct documents per primary category,
	// unscoped by any selection.
	CountByPrimaryCategory(ctx context.Context) ([]CategoryCount, error)

	// CountBySubcategory counts distinct documents per subcategory within a
	// primary category.
	CountBySubcategory(ctx context.Context, primaryCategory string) ([]CategoryCount, error)

	// CountByTerm counts distinct documents per term within a primary
	// category and subcategory.
	CountByTerm(ctx context.Context, primaryCategory, subcategory string) ([]CategoryCount, error)

	// CountTaggedDocuments returns the number of distinct documents with at
	// least one association.
	CountTaggedDocuments(ctx context.Context) (int, error)
}

type associationRepository struct {
	db *database.DB
}

// NewAssociationRepository creates a new AssociationRepository.
func NewAssociationRepository(db *database.DB) AssociationRepository {
	return &associationRepository{db: db}
}

var _ AssociationRepository = (*associationRepository)(nil)

// ============================================================================
// Replace Semantics
// ============================================================================

func (r *associationRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, associations []*models.DocumentTermAssociation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM document_taxonomy WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to delete prior associations: %w", err)
	}

	for _, assoc := range associations {
		err := tx.QueryRow(ctx, `
			INSERT INTO document_taxonomy (document_id, taxonomy_id, relevance_score, display_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			documentID,
			assoc.TaxonomyID,
			assoc.RelevanceScore,
			assoc.DisplayOrder,
		).Scan(&assoc.ID, &assoc.CreatedAt)
		if err != nil {
			// Unique constraint violation (PostgreSQL error code 23505)
			// means another classification of the same document committed
			// between our delete and insert.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: document %s is being reclassified concurrently", apperrors.ErrConflict, documentID)
			}
			return fmt.Errorf("failed to insert association: %w", err)
		}
		assoc.DocumentID = documentID
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit association replace: %w", err)
	}

	return nil
}

// ============================================================================
// Reads
// ============================================================================

const tagSelect = `
	SELECT dt.document_id, dt.taxonomy_id, t.term, t.primary_category,
	       coalesce(t.subcategory, ''), dt.relevance_score, dt.display_order
	FROM document_taxonomy dt
	JOIN taxonomy_terms t ON t.id = dt.taxonomy_id`

func (r *associationRepository) GetForDocument(ctx context.Context, documentID uuid.UUID) ([]*models.DocumentTag, error) {
	query := tagSelect + `
	WHERE dt.document_id = $1
	ORDER BY dt.display_order`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.DocumentTag
	for rows.Next() {
		tag, _, err := scanDocumentTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document tags: %w", err)
	}

	return tags, nil
}

func (r *associationRepository) GetForDocuments(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]*models.DocumentTag, error) {
	result := make(map[uuid.UUID][]*models.DocumentTag)
	if len(documentIDs) == 0 {
		return result, nil
	}

	query := tagSelect + `
	WHERE dt.document_id = ANY($1)
	ORDER BY dt.document_id, dt.display_order`

	rows, err := r.db.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query document tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tag, docID, err := scanDocumentTag(rows)
		if err != nil {
			return nil, err
		}
		result[docID] = append(result[docID], tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document tags: %w", err)
	}

	return result, nil
}

// ============================================================================
// Facet Aggregations
// ============================================================================

func (r *associationRepository) CountByPrimaryCategory(ctx context.Context) ([]CategoryCount, error) {
	query := `
		SELECT t.primary_category, count(DISTINCT dt.document_id)
		FROM document_taxonomy dt
		JOIN taxonomy_terms t ON t.id = dt.taxonomy_id
		GROUP BY t.primary_category
		ORDER BY count(DISTINCT dt.document_id) DESC, t.primary_category`

	return r.collectCounts(ctx, query)
}

func (r *associationRepository) CountBySubcategory(ctx context.Context, primaryCategory string) ([]CategoryCount, error) {
	query := `
		SELECT t.subcategory, count(DISTINCT dt.document_id)
		FROM document_taxonomy dt
		JOIN taxonomy_terms t ON t.id = dt.taxonomy_id
		WHERE lower(t.primary_category) = lower($1) AND t.subcategory IS NOT NULL
		GROUP BY t.subcategory
		ORDER BY count(DISTINCT dt.document_id) DESC, t.subcategory`

	return r.collectCounts(ctx, query, primaryCategory)
}

func (r *associationRepository) CountByTerm(ctx context.Context, primaryCategory, subcategory string) ([]CategoryCount, error) {
	query := `
		SELECT t.term, count(DISTINCT dt.document_id)
		FROM document_taxonomy dt
		JOIN taxonomy_terms t ON t.id = dt.taxonomy_id
		WHERE lower(t.primary_category) = lower($1) AND lower(t.subcategory) = lower($2)
		GROUP BY t.term
		ORDER BY count(DISTINCT dt.document_id) DESC, t.term`

	return r.collectCounts(ctx, query, primaryCategory, subcategory)
}

func (r *associationRepository) CountTaggedDocuments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(DISTINCT document_id) FROM document_taxonomy`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tagged documents: %w", err)
	}
	return count, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func (r *associationRepository) collectCounts(ctx context.Context, query string, args ...any) ([]CategoryCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facet counts: %w", err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan facet count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facet counts: %w", err)
	}

	return counts, nil
}

func scanDocumentTag(rows pgx.Rows) (*models.DocumentTag, uuid.UUID, error) {
	var tag models.DocumentTag
	var docID uuid.UUID

	err := rows.Scan(
		&docID,
		&tag.TaxonomyID,
		&tag.Term,
		&tag.PrimaryCategory,
		&tag.Subcategory,
		&tag.RelevanceScore,
		&tag.DisplayOrder,
	)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to scan document tag: %w", err)
	}

	return &tag, docID, nil
}

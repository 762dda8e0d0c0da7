package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/database"
	"github.com/canvass-labs/canvass-engine/pkg/models"
)

// VectorMatch is one vector-strategy candidate with its combined similarity
// score (document embedding similarity + summary embedding similarity,
// missing embeddings counting as zero).
type VectorMatch struct {
	DocumentID uuid.UUID
	Score      float64
}

// DocumentRepository provides data access for cataloged documents, including
// the two retrieval strategies the hybrid retriever unions.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, documentID uuid.UUID) (*models.Document, error)
	Delete(ctx context.Context, documentID uuid.UUID) error

	// StoreDocumentEmbedding overwrites the document's body embedding.
	StoreDocumentEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error

	// StoreSummaryEmbedding overwrites the document's analysis-summary embedding.
	StoreSummaryEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error

	// SearchLexical matches the expanded terms (OR-joined) against the
	// token-based full-text index over filename, summary, body text and
	// location.
	SearchLexical(ctx context.Context, terms []string) ([]uuid.UUID, error)

	// SearchLexicalSubstring is the fallback strategy: case-insensitive
	// substring matching with one OR clause per term per field. Any one term
	// matching any one field is sufficient.
	SearchLexicalSubstring(ctx context.Context, terms []string) ([]uuid.UUID, error)

	// SearchVector returns documents whose stored embedding or summary
	// embedding has cosine similarity above threshold to the query
	// embedding, ordered by combined similarity descending.
	SearchVector(ctx context.Context, embedding []float32, threshold float64) ([]VectorMatch, error)

	// FindFiltered applies structural filters, sorting and pagination to a
	// candidate set. A nil candidateIDs means "all documents" (empty-query
	// browse); an empty non-nil slice short-circuits to no results.
	FindFiltered(ctx context.Context, candidateIDs []uuid.UUID, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error)
}

type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

var _ DocumentRepository = (*documentRepository)(nil)

const documentColumns = `id, filename, document_type, year, location, summary, body_text, uploaded_at, updated_at`

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (filename, document_type, year, location, summary, body_text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		doc.Filename,
		doc.DocumentType,
		doc.Year,
		doc.Location,
		doc.Summary,
		doc.BodyText,
	).Scan(&doc.ID, &doc.UploadedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, documentID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, documentID uuid.UUID) error {
	// Associations cascade; taxonomy terms are never deleted with a document.
	result, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Embeddings
// ============================================================================

func (r *documentRepository) StoreDocumentEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error {
	return r.storeEmbedding(ctx, documentID, "embedding", embedding)
}

func (r *documentRepository) StoreSummaryEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error {
	return r.storeEmbedding(ctx, documentID, "summary_embedding", embedding)
}

func (r *documentRepository) storeEmbedding(ctx context.Context, documentID uuid.UUID, column string, embedding []float32) error {
	query := fmt.Sprintf(`UPDATE documents SET %s = $2, updated_at = now() WHERE id = $1`, column)

	result, err := r.db.Exec(ctx, query, documentID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", column, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Lexical Strategy
// ============================================================================

func (r *documentRepository) SearchLexical(ctx context.Context, terms []string) ([]uuid.UUID, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	// OR the per-term tsqueries together: a document matching any one
	// expanded term is a candidate.
	parts := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, term := range terms {
		parts[i] = fmt.Sprintf("plainto_tsquery('english', $%d)", i+1)
		args[i] = term
	}

	query := fmt.Sprintf(`
		SELECT id FROM documents
		WHERE search_vector @@ (%s)`, strings.Join(parts, " || "))

	return r.collectIDs(ctx, query, args...)
}

func (r *documentRepository) SearchLexicalSubstring(ctx context.Context, terms []string) ([]uuid.UUID, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	// One OR clause per term per field; any single match qualifies.
	fields := []string{"filename", "summary", "body_text", "location"}
	var clauses []string
	var args []any

	for _, term := range terms {
		args = append(args, term)
		n := len(args)
		for _, field := range fields {
			clauses = append(clauses, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", field, n))
		}
	}

	query := fmt.Sprintf(`SELECT id FROM documents WHERE %s`, strings.Join(clauses, " OR "))

	return r.collectIDs(ctx, query, args...)
}

// ============================================================================
// Vector Strategy
// ============================================================================

func (r *documentRepository) SearchVector(ctx context.Context, embedding []float32, threshold float64) ([]VectorMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	// <=> is cosine distance; similarity = 1 - distance. A document
	// qualifies if either its own embedding or its summary embedding clears
	// the threshold; ranking sums both similarities with missing vectors
	// contributing zero.
	query := `
		SELECT id,
		       coalesce(1 - (embedding <=> $1), 0) + coalesce(1 - (summary_embedding <=> $1), 0) AS score
		FROM documents
		WHERE (embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2)
		   OR (summary_embedding IS NOT NULL AND 1 - (summary_embedding <=> $1) >= $2)
		ORDER BY score DESC`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.DocumentID, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan vector match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector matches: %w", err)
	}

	return matches, nil
}

// ============================================================================
// Filtering / Sorting / Pagination
// ============================================================================

// sortColumns whitelists sortable fields; anything else falls back to upload
// date descending.
var sortColumns = map[string]string{
	models.SortByUploadedAt: "uploaded_at",
	models.SortByFilename:   "filename",
	models.SortByYear:       "year",
}

func (r *documentRepository) FindFiltered(ctx context.Context, candidateIDs []uuid.UUID, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error) {
	if candidateIDs != nil && len(candidateIDs) == 0 {
		return nil, 0, nil
	}

	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if candidateIDs != nil {
		clauses = append(clauses, fmt.Sprintf("id = ANY(%s)", arg(candidateIDs)))
	}
	if filters.DocumentType != "" {
		clauses = append(clauses, fmt.Sprintf("document_type = %s", arg(filters.DocumentType)))
	}
	if filters.Year != nil {
		clauses = append(clauses, fmt.Sprintf("year = %s", arg(*filters.Year)))
	}
	if filters.Location != "" {
		clauses = append(clauses, fmt.Sprintf("location ILIKE '%%' || %s || '%%'", arg(filters.Location)))
	}

	if taxClause := taxonomyFilterClause(filters.Taxonomy, arg); taxClause != "" {
		clauses = append(clauses, taxClause)
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM documents %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count filtered documents: %w", err)
	}

	column, ok := sortColumns[sortBy]
	if !ok {
		column = "uploaded_at"
		sortDirection = models.SortDesc
	}
	direction := "DESC"
	if strings.EqualFold(sortDirection, models.SortAsc) {
		direction = "ASC"
	}

	pageQuery := fmt.Sprintf(`
		SELECT %s FROM documents %s
		ORDER BY %s %s, id
		LIMIT %s OFFSET %s`,
		documentColumns, where, column, direction, arg(limit), arg(offset))

	rows, err := r.db.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query filtered documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating filtered documents: %w", err)
	}

	return docs, total, nil
}

// taxonomyFilterClause builds the EXISTS clause for the taxonomy drill-down.
// The deepest provided level wins the narrowing; levels combine with AND.
func taxonomyFilterClause(sel models.FacetSelection, arg func(any) string) string {
	if sel.IsZero() {
		return ""
	}

	var conds []string
	if sel.PrimaryCategory != "" {
		conds = append(conds, fmt.Sprintf("lower(t.primary_category) = lower(%s)", arg(sel.PrimaryCategory)))
	}
	if sel.Subcategory != "" {
		conds = append(conds, fmt.Sprintf("lower(t.subcategory) = lower(%s)", arg(sel.Subcategory)))
	}
	if sel.SpecificTerm != "" {
		conds = append(conds, fmt.Sprintf("lower(t.term) = lower(%s)", arg(sel.SpecificTerm)))
	}

	return fmt.Sprintf(`EXISTS (
		SELECT 1 FROM document_taxonomy dt
		JOIN taxonomy_terms t ON t.id = dt.taxonomy_id
		WHERE dt.document_id = documents.id AND %s)`, strings.Join(conds, " AND "))
}

// ============================================================================
// Helper Functions
// ============================================================================

func (r *documentRepository) collectIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run lexical search: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document ids: %w", err)
	}

	return ids, nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document

	err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.DocumentType,
		&d.Year,
		&d.Location,
		&d.Summary,
		&d.BodyText,
		&d.UploadedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	return &d, nil
}

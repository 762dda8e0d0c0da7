package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// mockTaxonomyRepo implements repositories.TaxonomyRepository with pluggable
// behavior per method. Unset methods return zero values.
type mockTaxonomyRepo struct {
	createFunc        func(ctx context.Context, term *models.TaxonomyTerm) error
	findExactFunc     func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error)
	findPartialFunc   func(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error)
	findBySynonymFunc func(ctx context.Context, phrase string) (*models.TaxonomyTerm, error)
	searchTermsFunc   func(ctx context.Context, query string) ([]*models.TaxonomyTerm, error)
	searchBySynFunc   func(ctx context.Context, query string) ([]*models.TaxonomyTerm, error)
	getSynonymsFunc   func(ctx context.Context, termIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	getSiblingsFunc   func(ctx context.Context, primaryCategory, subcategory string, excludeID uuid.UUID) ([]*models.TaxonomyTerm, error)
	addSynonymsFunc   func(ctx context.Context, termID uuid.UUID, synonyms []string) error
	setParentFunc     func(ctx context.Context, termID, parentID uuid.UUID) error
	createCalls       int
	findExactCalls    int
	searchTermsCalls  int
	addSynonymsCalls  int
	setParentCalls    int
}

func (m *mockTaxonomyRepo) Create(ctx context.Context, term *models.TaxonomyTerm) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, term)
	}
	term.ID = uuid.New()
	return nil
}

func (m *mockTaxonomyRepo) GetByID(ctx context.Context, termID uuid.UUID) (*models.TaxonomyTerm, error) {
	return nil, nil
}

func (m *mockTaxonomyRepo) GetAll(ctx context.Context) ([]*models.TaxonomyTerm, error) {
	return nil, nil
}

func (m *mockTaxonomyRepo) FindExact(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
	m.findExactCalls++
	if m.findExactFunc != nil {
		return m.findExactFunc(ctx, phrase, primaryCategory)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) FindPartial(ctx context.Context, phrase, primaryCategory string) (*models.TaxonomyTerm, error) {
	if m.findPartialFunc != nil {
		return m.findPartialFunc(ctx, phrase, primaryCategory)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) FindBySynonym(ctx context.Context, phrase string) (*models.TaxonomyTerm, error) {
	if m.findBySynonymFunc != nil {
		return m.findBySynonymFunc(ctx, phrase)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) SearchTerms(ctx context.Context, query string) ([]*models.TaxonomyTerm, error) {
	m.searchTermsCalls++
	if m.searchTermsFunc != nil {
		return m.searchTermsFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) SearchBySynonym(ctx context.Context, query string) ([]*models.TaxonomyTerm, error) {
	if m.searchBySynFunc != nil {
		return m.searchBySynFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) GetSynonyms(ctx context.Context, termIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	if m.getSynonymsFunc != nil {
		return m.getSynonymsFunc(ctx, termIDs)
	}
	return map[uuid.UUID][]string{}, nil
}

func (m *mockTaxonomyRepo) GetSiblings(ctx context.Context, primaryCategory, subcategory string, excludeID uuid.UUID) ([]*models.TaxonomyTerm, error) {
	if m.getSiblingsFunc != nil {
		return m.getSiblingsFunc(ctx, primaryCategory, subcategory, excludeID)
	}
	return nil, nil
}

func (m *mockTaxonomyRepo) AddSynonyms(ctx context.Context, termID uuid.UUID, synonyms []string) error {
	m.addSynonymsCalls++
	if m.addSynonymsFunc != nil {
		return m.addSynonymsFunc(ctx, termID, synonyms)
	}
	return nil
}

func (m *mockTaxonomyRepo) SetParent(ctx context.Context, termID, parentID uuid.UUID) error {
	m.setParentCalls++
	if m.setParentFunc != nil {
		return m.setParentFunc(ctx, termID, parentID)
	}
	return nil
}

var _ repositories.TaxonomyRepository = (*mockTaxonomyRepo)(nil)

// mockAssociationRepo implements repositories.AssociationRepository. The
// replace path records what it was last called with.
type mockAssociationRepo struct {
	replaceFunc       func(ctx context.Context, documentID uuid.UUID, associations []*models.DocumentTermAssociation) error
	getForDocsFunc    func(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]*models.DocumentTag, error)
	countPrimaryFunc  func(ctx context.Context) ([]repositories.CategoryCount, error)
	countSubFunc      func(ctx context.Context, primaryCategory string) ([]repositories.CategoryCount, error)
	countTermFunc     func(ctx context.Context, primaryCategory, subcategory string) ([]repositories.CategoryCount, error)
	replaceCalls      int
	lastReplaced      []*models.DocumentTermAssociation
	countPrimaryCalls int
}

func (m *mockAssociationRepo) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, associations []*models.DocumentTermAssociation) error {
	m.replaceCalls++
	m.lastReplaced = associations
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, documentID, associations)
	}
	return nil
}

func (m *mockAssociationRepo) GetForDocument(ctx context.Context, documentID uuid.UUID) ([]*models.DocumentTag, error) {
	return nil, nil
}

func (m *mockAssociationRepo) GetForDocuments(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]*models.DocumentTag, error) {
	if m.getForDocsFunc != nil {
		return m.getForDocsFunc(ctx, documentIDs)
	}
	return map[uuid.UUID][]*models.DocumentTag{}, nil
}

func (m *mockAssociationRepo) CountByPrimaryCategory(ctx context.Context) ([]repositories.CategoryCount, error) {
	m.countPrimaryCalls++
	if m.countPrimaryFunc != nil {
		return m.countPrimaryFunc(ctx)
	}
	return []repositories.CategoryCount{}, nil
}

func (m *mockAssociationRepo) CountBySubcategory(ctx context.Context, primaryCategory string) ([]repositories.CategoryCount, error) {
	if m.countSubFunc != nil {
		return m.countSubFunc(ctx, primaryCategory)
	}
	return []repositories.CategoryCount{}, nil
}

func (m *mockAssociationRepo) CountByTerm(ctx context.Context, primaryCategory, subcategory string) ([]repositories.CategoryCount, error) {
	if m.countTermFunc != nil {
		return m.countTermFunc(ctx, primaryCategory, subcategory)
	}
	return []repositories.CategoryCount{}, nil
}

func (m *mockAssociationRepo) CountTaggedDocuments(ctx context.Context) (int, error) {
	return 0, nil
}

var _ repositories.AssociationRepository = (*mockAssociationRepo)(nil)

// mockDocumentRepo implements repositories.DocumentRepository for retriever
// and search tests.
type mockDocumentRepo struct {
	searchLexicalFunc   func(ctx context.Context, terms []string) ([]uuid.UUID, error)
	searchSubstringFunc func(ctx context.Context, terms []string) ([]uuid.UUID, error)
	searchVectorFunc    func(ctx context.Context, embedding []float32, threshold float64) ([]repositories.VectorMatch, error)
	findFilteredFunc    func(ctx context.Context, candidateIDs []uuid.UUID, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error)
	getByIDFunc         func(ctx context.Context, documentID uuid.UUID) (*models.Document, error)
	storeDocEmbedFunc   func(ctx context.Context, documentID uuid.UUID, embedding []float32) error
	storeSumEmbedFunc   func(ctx context.Context, documentID uuid.UUID, embedding []float32) error
	lastCandidateIDs    []uuid.UUID
	substringCalls      int
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = uuid.New()
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, documentID)
	}
	return &models.Document{ID: documentID}, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, documentID uuid.UUID) error {
	return nil
}

func (m *mockDocumentRepo) StoreDocumentEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error {
	if m.storeDocEmbedFunc != nil {
		return m.storeDocEmbedFunc(ctx, documentID, embedding)
	}
	return nil
}

func (m *mockDocumentRepo) StoreSummaryEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error {
	if m.storeSumEmbedFunc != nil {
		return m.storeSumEmbedFunc(ctx, documentID, embedding)
	}
	return nil
}

func (m *mockDocumentRepo) SearchLexical(ctx context.Context, terms []string) ([]uuid.UUID, error) {
	if m.searchLexicalFunc != nil {
		return m.searchLexicalFunc(ctx, terms)
	}
	return nil, nil
}

func (m *mockDocumentRepo) SearchLexicalSubstring(ctx context.Context, terms []string) ([]uuid.UUID, error) {
	m.substringCalls++
	if m.searchSubstringFunc != nil {
		return m.searchSubstringFunc(ctx, terms)
	}
	return nil, nil
}

func (m *mockDocumentRepo) SearchVector(ctx context.Context, embedding []float32, threshold float64) ([]repositories.VectorMatch, error) {
	if m.searchVectorFunc != nil {
		return m.searchVectorFunc(ctx, embedding, threshold)
	}
	return nil, nil
}

func (m *mockDocumentRepo) FindFiltered(ctx context.Context, candidateIDs []uuid.UUID, filters models.SearchFilters, sortBy, sortDirection string, limit, offset int) ([]*models.Document, int, error) {
	m.lastCandidateIDs = candidateIDs
	if m.findFilteredFunc != nil {
		return m.findFilteredFunc(ctx, candidateIDs, filters, sortBy, sortDirection, limit, offset)
	}
	docs := make([]*models.Document, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		docs = append(docs, &models.Document{ID: id})
	}
	return docs, len(docs), nil
}

var _ repositories.DocumentRepository = (*mockDocumentRepo)(nil)

// mockResolver implements TermResolver for classifier tests.
type mockResolver struct {
	resolveFunc  func(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error)
	resolveCalls int
}

func (m *mockResolver) Resolve(ctx context.Context, phrase, primaryCategory, subcategory string, synonyms []string, strict bool) (*models.TaxonomyTerm, error) {
	m.resolveCalls++
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, phrase, primaryCategory, subcategory, synonyms, strict)
	}
	return &models.TaxonomyTerm{ID: uuid.New(), Term: phrase, PrimaryCategory: primaryCategory, Subcategory: subcategory}, nil
}

var _ TermResolver = (*mockResolver)(nil)

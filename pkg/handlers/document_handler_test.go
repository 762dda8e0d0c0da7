package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/apperrors"
	"github.com/canvass-labs/canvass-engine/pkg/models"
)

type mockDocumentService struct {
	getFunc    func(ctx context.Context, documentID uuid.UUID) (*models.Document, error)
	embedFunc  func(ctx context.Context, documentID uuid.UUID) error
	created    *models.Document
	deletedID  uuid.UUID
	analyzedID uuid.UUID
}

func (m *mockDocumentService) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = uuid.New()
	m.created = doc
	return nil
}

func (m *mockDocumentService) Get(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, documentID)
	}
	return &models.Document{ID: documentID}, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	m.deletedID = documentID
	return nil
}

func (m *mockDocumentService) GenerateEmbeddings(ctx context.Context, documentID uuid.UUID) error {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, documentID)
	}
	return nil
}

func (m *mockDocumentService) Analyze(ctx context.Context, documentID uuid.UUID) error {
	m.analyzedID = documentID
	return nil
}

type mockClassifier struct {
	classifyFunc   func(ctx context.Context, documentID uuid.UUID, candidates []models.Candidate) error
	lastDocumentID uuid.UUID
	lastCandidates []models.Candidate
}

func (m *mockClassifier) Classify(ctx context.Context, documentID uuid.UUID, candidates []models.Candidate) error {
	m.lastDocumentID = documentID
	m.lastCandidates = candidates
	if m.classifyFunc != nil {
		return m.classifyFunc(ctx, documentID, candidates)
	}
	return nil
}

func TestDocumentHandler_CreateRequiresFilename(t *testing.T) {
	handler := NewDocumentHandler(&mockDocumentService{}, &mockClassifier{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(`{"document_type":"mailer"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_Create(t *testing.T) {
	svc := &mockDocumentService{}
	handler := NewDocumentHandler(svc, &mockClassifier{}, zap.NewNop())

	body := `{"filename":"mailer.pdf","document_type":"mailer","year":2024,"summary":"a mailer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "mailer.pdf", svc.created.Filename)
	require.NotNil(t, svc.created.Year)
	assert.Equal(t, 2024, *svc.created.Year)
}

func TestDocumentHandler_GetNotFound(t *testing.T) {
	svc := &mockDocumentService{
		getFunc: func(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	handler := NewDocumentHandler(svc, &mockClassifier{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	req.SetPathValue("did", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentHandler_InvalidIDRejected(t *testing.T) {
	handler := NewDocumentHandler(&mockDocumentService{}, &mockClassifier{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/not-a-uuid", nil)
	req.SetPathValue("did", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_ClassifyNormalizesLooseCandidates(t *testing.T) {
	classifier := &mockClassifier{}
	handler := NewDocumentHandler(&mockDocumentService{}, classifier, zap.NewNop())

	docID := uuid.New()
	// Mixed producer shapes: "keyword" alias, integer score, string synonyms.
	body := `{"candidates":[
		{"keyword":"universal background checks","primary_category":"Public Safety","subcategory":"Guns","relevance_score":92,"synonyms":"UBC"},
		{"phrase":"minimum wage","primary_category":"Economy","relevance_score":0.5}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID.String()+"/classify", strings.NewReader(body))
	req.SetPathValue("did", docID.String())
	rec := httptest.NewRecorder()

	handler.Classify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, docID, classifier.lastDocumentID)
	require.Len(t, classifier.lastCandidates, 2)
	assert.Equal(t, "universal background checks", classifier.lastCandidates[0].Phrase)
	assert.InDelta(t, 0.92, classifier.lastCandidates[0].RelevanceScore, 0.0001)
	assert.Equal(t, []string{"UBC"}, classifier.lastCandidates[0].Synonyms)
}

func TestDocumentHandler_ClassifyRejectsNonArrayCandidates(t *testing.T) {
	handler := NewDocumentHandler(&mockDocumentService{}, &mockClassifier{}, zap.NewNop())

	docID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID.String()+"/classify", strings.NewReader(`{"candidates":"nope"}`))
	req.SetPathValue("did", docID.String())
	rec := httptest.NewRecorder()

	handler.Classify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_ClassifyConflictReturns409(t *testing.T) {
	classifier := &mockClassifier{
		classifyFunc: func(ctx context.Context, documentID uuid.UUID, candidates []models.Candidate) error {
			return fmt.Errorf("%w: concurrent reclassification", apperrors.ErrConflict)
		},
	}
	handler := NewDocumentHandler(&mockDocumentService{}, classifier, zap.NewNop())

	docID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID.String()+"/classify", strings.NewReader(`{"candidates":[]}`))
	req.SetPathValue("did", docID.String())
	rec := httptest.NewRecorder()

	handler.Classify(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDocumentHandler_EmbeddingsUnavailableReturns503(t *testing.T) {
	svc := &mockDocumentService{
		embedFunc: func(ctx context.Context, documentID uuid.UUID) error {
			return fmt.Errorf("%w: document body", apperrors.ErrEmbeddingUnavailable)
		},
	}
	handler := NewDocumentHandler(svc, &mockClassifier{}, zap.NewNop())

	docID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID.String()+"/embeddings", nil)
	req.SetPathValue("did", docID.String())
	rec := httptest.NewRecorder()

	handler.GenerateEmbeddings(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocumentHandler_Analyze(t *testing.T) {
	svc := &mockDocumentService{}
	handler := NewDocumentHandler(svc, &mockClassifier{}, zap.NewNop())

	docID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID.String()+"/analyze", nil)
	req.SetPathValue("did", docID.String())
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, docID, svc.analyzedID)
}

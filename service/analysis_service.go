package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"legalklarity-backend/cache"
	"legalklarity-backend/extract"
	"legalklarity-backend/inference"
	"legalklarity-backend/models"
	"legalklarity-backend/repository"
	"legalklarity-backend/storage"
	"legalklarity-backend/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyDocument    = errors.New("no text could be extracted from the document")
	ErrNotAnAgreement   = errors.New("document does not look like an agreement")
	ErrAnalysisFailed   = errors.New("failed to analyze document")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

const (
	DefaultRole         = "individual"
	DefaultLanguageCode = "en"
	defaultPageSize     = 20
	maxPageSize         = 100

	// Column widths of the documents table
	MaxUserIDLength       = 128
	MaxFilenameLength     = 512
	MaxRoleLength         = 64
	MaxLanguageCodeLength = 16
)

var (
	rolePattern     = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _-]*$`)
	languagePattern = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)
)

// NotAgreementError carries the classifier details for a rejected upload
type NotAgreementError struct {
	Details extract.Classification
}

func (e *NotAgreementError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrNotAnAgreement.Error(), e.Details.Reason)
}

func (e *NotAgreementError) Is(target error) bool {
	return target == ErrNotAnAgreement
}

// DocumentStore persists document records and their analyses
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Document, int, error)
	Complete(ctx context.Context, id uuid.UUID, documentType string, analysis *models.DocumentAnalysis) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Analyzer produces the structured analysis for extracted document text
type Analyzer interface {
	Analyze(ctx context.Context, req inference.AnalysisRequest) (*models.DocumentAnalysis, error)
}

// AnalysisService runs the upload pipeline and serves document history
type AnalysisService struct {
	documents DocumentStore
	storage   storage.Storage
	analyzer  Analyzer
	cache     cache.AnalysisCache
	logger    *zap.Logger
	timeout   time.Duration
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithDocumentStore sets the document store
func AnalysisWithDocumentStore(store DocumentStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.documents = store
	}
}

// AnalysisWithStorage sets where uploaded originals are kept
func AnalysisWithStorage(st storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.storage = st
	}
}

// AnalysisWithAnalyzer sets the inference analyzer
func AnalysisWithAnalyzer(a Analyzer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analyzer = a
	}
}

// AnalysisWithCache enables the analysis cache
func AnalysisWithCache(c cache.AnalysisCache) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.cache = c
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// AnalysisWithTimeout bounds the inference call
func AnalysisWithTimeout(d time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.timeout = d
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		logger:  zap.NewNop(),
		timeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeRequest represents one uploaded document
type AnalyzeRequest struct {
	UserID       string
	Filename     string
	MimeType     string
	Data         []byte
	Role         string
	LanguageCode string
}

// AnalyzeResult represents the outcome of a successful analysis
type AnalyzeResult struct {
	Document *models.Document
	Result   *models.AnalysisResult
}

// Analyze validates, extracts, classifies and analyzes an upload, then stores
// the original and the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if s.documents == nil {
		return nil, errors.New("document store not set")
	}
	if s.analyzer == nil {
		return nil, errors.New("analyzer not set")
	}

	if req.MimeType == "" {
		req.MimeType = validation.MIMEFromFilename(req.Filename)
	}
	if err := validation.Validate(req.MimeType, int64(len(req.Data))); err != nil {
		return nil, err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = DefaultRole
	}
	lang := strings.TrimSpace(req.LanguageCode)
	if lang == "" {
		lang = DefaultLanguageCode
	}
	if err := checkFields(req.UserID, req.Filename, role, lang); err != nil {
		return nil, err
	}

	// 1. Extract and screen the text
	text, err := extract.Text(req.MimeType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if text == "" {
		return nil, ErrEmptyDocument
	}
	if ok, details := extract.ClassifyAgreement(text); !ok {
		s.logger.Info("Rejected non-agreement upload",
			zap.String("user_id", req.UserID),
			zap.String("filename", req.Filename),
			zap.Float64("vote_ratio", details.VoteRatio),
			zap.Float64("heuristic", details.Heuristic),
		)
		return nil, &NotAgreementError{Details: details}
	}
	docType := extract.DetectDocumentType(text)

	contentHash, err := cache.ContentHash(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash document: %w", err)
	}

	// 2. Store the original and record the pending document
	doc := &models.Document{
		ID:           uuid.New(),
		UserID:       req.UserID,
		Filename:     req.Filename,
		MimeType:     req.MimeType,
		Size:         int64(len(req.Data)),
		ContentHash:  contentHash,
		Role:         role,
		LanguageCode: lang,
		DocumentType: docType,
		Status:       models.DocumentStatusPending,
	}
	if s.storage != nil {
		path, err := s.storage.Upload(ctx, doc.ID, req.Filename, req.MimeType, bytes.NewReader(req.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
		doc.StoragePath = path
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.removeStored(doc)
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	// 3. Analyze, from cache when the same bytes were analyzed for this role and language
	key := cache.Key(contentHash, role, lang)
	analysis, cached := s.cachedAnalysis(ctx, key)
	if !cached {
		analysis, err = s.runAnalyzer(ctx, inference.AnalysisRequest{
			Text:         text,
			DocumentType: docType,
			Role:         role,
			LanguageCode: lang,
		})
		if err != nil {
			s.logger.Error("Document analysis failed",
				zap.String("document_id", doc.ID.String()),
				zap.Error(err),
			)
			if ferr := s.documents.Fail(ctx, doc.ID, err.Error()); ferr != nil {
				s.logger.Warn("Failed to mark document failed", zap.Error(ferr))
			}
			return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, analysis); err != nil {
				s.logger.Warn("Failed to cache analysis", zap.Error(err))
			}
		}
	}

	// 4. Persist
	if err := s.documents.Complete(ctx, doc.ID, docType, analysis); err != nil {
		if ferr := s.documents.Fail(ctx, doc.ID, "failed to save analysis"); ferr != nil {
			s.logger.Warn("Failed to mark document failed", zap.Error(ferr))
		}
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	now := time.Now().UTC()
	doc.Status = models.DocumentStatusCompleted
	doc.Analysis = analysis
	doc.AnalyzedAt = &now

	s.logger.Info("Document analyzed",
		zap.String("document_id", doc.ID.String()),
		zap.String("user_id", doc.UserID),
		zap.String("document_type", docType),
		zap.Bool("cached", cached),
	)

	return &AnalyzeResult{
		Document: doc,
		Result: &models.AnalysisResult{
			DocumentID:   doc.ID.String(),
			Filename:     doc.Filename,
			DocumentType: docType,
			Timestamp:    now,
			Cached:       cached,
			Analysis:     analysis,
		},
	}, nil
}

// checkFields keeps request fields within the stored column widths. Role and
// language never contain the separators used in cache keys.
func checkFields(userID, filename, role, lang string) error {
	switch {
	case userID == "" || utf8.RuneCountInString(userID) > MaxUserIDLength:
		return fmt.Errorf("%w: userId must be 1 to %d characters", ErrInvalidRequest, MaxUserIDLength)
	case strings.TrimSpace(filename) == "" || utf8.RuneCountInString(filename) > MaxFilenameLength:
		return fmt.Errorf("%w: filename must be 1 to %d characters", ErrInvalidRequest, MaxFilenameLength)
	case utf8.RuneCountInString(role) > MaxRoleLength || !rolePattern.MatchString(role):
		return fmt.Errorf("%w: role must be up to %d letters, digits, spaces, '-' or '_'", ErrInvalidRequest, MaxRoleLength)
	case len(lang) > MaxLanguageCodeLength || !languagePattern.MatchString(lang):
		return fmt.Errorf("%w: languageCode must be a language tag such as \"en\" or \"pt-BR\"", ErrInvalidRequest)
	}
	return nil
}

func (s *AnalysisService) cachedAnalysis(ctx context.Context, key string) (*models.DocumentAnalysis, bool) {
	if s.cache == nil {
		return nil, false
	}
	analysis, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Analysis cache lookup failed", zap.Error(err))
		return nil, false
	}
	return analysis, ok
}

func (s *AnalysisService) runAnalyzer(ctx context.Context, req inference.AnalysisRequest) (*models.DocumentAnalysis, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	analysis, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	if analysis == nil || analysis.Empty() {
		return nil, fmt.Errorf("%w: analysis has no content", inference.ErrMalformedOutput)
	}
	analysis.Normalize()
	return analysis, nil
}

func (s *AnalysisService) removeStored(doc *models.Document) {
	if s.storage == nil || doc.StoragePath == "" {
		return
	}
	if err := s.storage.Delete(context.Background(), doc.StoragePath); err != nil {
		s.logger.Warn("Failed to remove stored document", zap.String("path", doc.StoragePath), zap.Error(err))
	}
}

// ListDocumentsRequest represents a request for a user's document history
type ListDocumentsRequest struct {
	UserID string
	Limit  int
	Offset int
}

// ListDocumentsResult represents one page of document history
type ListDocumentsResult struct {
	Documents []*models.Document
	Total     int
	Limit     int
	Offset    int
}

// ListDocuments returns the user's documents, newest first
func (s *AnalysisService) ListDocuments(ctx context.Context, req ListDocumentsRequest) (*ListDocumentsResult, error) {
	if s.documents == nil {
		return nil, errors.New("document store not set")
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	docs, total, err := s.documents.ListByUserID(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return &ListDocumentsResult{Documents: docs, Total: total, Limit: req.Limit, Offset: req.Offset}, nil
}

// GetDocument returns a document owned by userID. Documents of other users
// are reported as not found.
func (s *AnalysisService) GetDocument(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error) {
	if s.documents == nil {
		return nil, errors.New("document store not set")
	}
	doc, err := s.documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// OpenDocumentFile opens the stored original of a user's document
func (s *AnalysisService) OpenDocumentFile(ctx context.Context, userID string, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.GetDocument(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil || doc.StoragePath == "" {
		return nil, nil, ErrDocumentNotFound
	}
	rc, err := s.storage.Download(ctx, doc.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// DeleteDocument removes the record and the stored original
func (s *AnalysisService) DeleteDocument(ctx context.Context, userID string, id uuid.UUID) error {
	doc, err := s.GetDocument(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.removeStored(doc)
	return nil
}

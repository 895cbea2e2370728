package repository

import (
	"context"
	"errors"

	"legalklarity-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDocumentNotFound = errors.New("document not found")

const documentColumns = `
	id, user_id, filename, mime_type, size, storage_path, content_hash,
	role, language_code, document_type, status, analysis, error_message,
	created_at, updated_at, analyzed_at`

// DocumentRepository handles database operations for analysed documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a pending document record. The caller assigns the ID so the
// stored original can be written before the row exists.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusPending
	}

	query := `
		INSERT INTO documents (
			id, user_id, filename, mime_type, size, storage_path, content_hash,
			role, language_code, document_type, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
		doc.ContentHash,
		doc.Role,
		doc.LanguageCode,
		doc.DocumentType,
		doc.Status,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByUserID returns one page of a user's documents, newest first, and the
// total number of documents the user owns.
func (r *DocumentRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Document, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	return docs, total, rows.Err()
}

// Complete stores the analysis and marks the document completed
func (r *DocumentRepository) Complete(ctx context.Context, id uuid.UUID, documentType string, analysis *models.DocumentAnalysis) error {
	query := `
		UPDATE documents
		SET status = $2, document_type = $3, analysis = $4, error_message = NULL,
			analyzed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.DocumentStatusCompleted, documentType, analysis)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Fail marks the document failed with an error message
func (r *DocumentRepository) Fail(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE documents
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.DocumentStatusFailed, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete deletes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	var analysis models.DocumentAnalysis

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.MimeType,
		&doc.Size,
		&doc.StoragePath,
		&doc.ContentHash,
		&doc.Role,
		&doc.LanguageCode,
		&doc.DocumentType,
		&doc.Status,
		&analysis,
		&doc.ErrorMessage,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if doc.Status == models.DocumentStatusCompleted {
		doc.Analysis = &analysis
	}
	return doc, nil
}

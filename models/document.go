package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing status of an uploaded document
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusCompleted DocumentStatus = "completed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents an uploaded document and its analysis
type Document struct {
	ID           uuid.UUID         `json:"id"`
	UserID       string            `json:"user_id"`
	Filename     string            `json:"filename"`
	MimeType     string            `json:"mime_type"`
	Size         int64             `json:"size"`
	StoragePath  string            `json:"-"`
	ContentHash  string            `json:"content_hash,omitempty"`
	Role         string            `json:"role"`
	LanguageCode string            `json:"language_code"`
	DocumentType string            `json:"document_type,omitempty"`
	Status       DocumentStatus    `json:"status"`
	Analysis     *DocumentAnalysis `json:"analysis,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	AnalyzedAt   *time.Time        `json:"analyzed_at,omitempty"`
}

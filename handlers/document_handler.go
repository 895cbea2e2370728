package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"legalklarity-backend/middleware"
	"legalklarity-backend/render"
	"legalklarity-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentHandler serves a user's document history, reports and risk view
type DocumentHandler struct {
	analyses *service.AnalysisService
	risk     *service.RiskService
	logger   *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(analyses *service.AnalysisService, risk *service.RiskService, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{analyses: analyses, risk: risk, logger: logger}
}

// ListDocuments handles GET /api/v1/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "offset must be an integer")
		return
	}

	result, err := h.analyses.ListDocuments(c.Request.Context(), service.ListDocumentsRequest{
		UserID: middleware.UserID(c),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"documents": result.Documents,
		"total":     result.Total,
		"limit":     result.Limit,
		"offset":    result.Offset,
	})
}

// GetDocument handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := h.analyses.GetDocument(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, doc)
}

// DownloadDocument handles GET /api/v1/documents/:id/file
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, reader, err := h.analyses.OpenDocumentFile(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, reader, map[string]string{
		"Content-Disposition": contentDisposition(doc.Filename),
	})
}

// GetReport handles GET /api/v1/documents/:id/report?format=json|markdown|docx
func (h *DocumentHandler) GetReport(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "markdown" && format != "docx" {
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json, markdown or docx")
		return
	}

	doc, err := h.analyses.GetDocument(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if doc.Analysis == nil {
		respondServiceError(c, service.ErrAnalysisNotReady)
		return
	}

	view := render.Render(*doc.Analysis)
	base := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename)) + "_analysis"

	switch format {
	case "markdown":
		c.Header("Content-Disposition", contentDisposition(base+".md"))
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(view.Markdown()))
	case "docx":
		var buf bytes.Buffer
		if err := render.WriteDOCX(&buf, view); err != nil {
			h.logger.Error("Failed to build DOCX report", zap.String("document_id", id.String()), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build report")
			return
		}
		c.Header("Content-Disposition", contentDisposition(base+".docx"))
		c.Data(http.StatusOK, render.DOCXContentType, buf.Bytes())
	default:
		respondOK(c, http.StatusOK, gin.H{
			"document_id": doc.ID,
			"filename":    doc.Filename,
			"view":        view,
		})
	}
}

// GetRiskAssessment handles GET /api/v1/documents/:id/risk-assessment
func (h *DocumentHandler) GetRiskAssessment(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	report, err := h.risk.AssessDocument(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// DeleteDocument handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.analyses.DeleteDocument(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func contentDisposition(filename string) string {
	filename = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(filename)
	return fmt.Sprintf("attachment; filename=\"%s\"", filename)
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"legalklarity-backend/middleware"
	"legalklarity-backend/service"
	"legalklarity-backend/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

// AnalysisHandler handles document upload and analysis
type AnalysisHandler struct {
	analyses *service.AnalysisService
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyses *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{analyses: analyses, logger: logger}
}

// AnalyzeAgreement handles POST /api/v1/agreements/analyze
func (h *AnalysisHandler) AnalyzeAgreement(c *gin.Context) {
	userID := middleware.UserID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, validation.MaxFileSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("Please upload a file smaller than %dMB.", validation.MaxFileSize/(1024*1024)))
			return
		}
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	formUserID := strings.TrimSpace(c.PostForm("userId"))
	if formUserID != "" && formUserID != userID {
		respondError(c, http.StatusForbidden, "USER_MISMATCH", "userId does not match the authenticated user")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = validation.MIMEFromFilename(fileHeader.Filename)
	}

	// Reject before reading the body into memory
	if err := validation.Validate(mimeType, fileHeader.Size); err != nil {
		respondServiceError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxFileSize+1))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", "Failed to read uploaded file")
		return
	}

	result, err := h.analyses.Analyze(c.Request.Context(), service.AnalyzeRequest{
		UserID:       userID,
		Filename:     fileHeader.Filename,
		MimeType:     mimeType,
		Data:         data,
		Role:         c.PostForm("role"),
		LanguageCode: c.PostForm("languageCode"),
	})
	if err != nil {
		h.logger.Warn("Analysis request failed",
			zap.String("user_id", userID),
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, result.Result)
}

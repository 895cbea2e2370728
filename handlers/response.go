package handlers

import (
	"errors"
	"net/http"

	"legalklarity-backend/service"
	"legalklarity-backend/validation"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondServiceError maps service and validation errors onto the HTTP
// error envelope.
func respondServiceError(c *gin.Context, err error) {
	var notAgreement *service.NotAgreementError
	switch {
	case errors.Is(err, validation.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, validation.ErrInvalidFileType):
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, service.ErrEmptyDocument):
		respondError(c, http.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "No readable text was found in the document")
	case errors.As(err, &notAgreement):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_AN_AGREEMENT",
				"message": "The uploaded document does not appear to be an agreement",
				"details": notAgreement.Details,
			},
		})
	case errors.Is(err, service.ErrAnalysisFailed):
		respondError(c, http.StatusBadGateway, "ANALYSIS_FAILED", "The document could not be analyzed. Please try again.")
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
	case errors.Is(err, service.ErrAnalysisNotReady):
		respondError(c, http.StatusConflict, "ANALYSIS_NOT_READY", "The document has no completed analysis")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

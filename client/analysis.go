package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legalklarity-backend/models"
	"legalklarity-backend/validation"

	"github.com/go-resty/resty/v2"
)

// ErrAnalysisFailed is returned for malformed envelopes and failed uploads
var ErrAnalysisFailed = errors.New("analysis failed")

// File is a document selected for upload
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// AnalysisClient submits documents to the analysis endpoint
type AnalysisClient struct {
	transport *Transport
}

// NewAnalysisClient creates an analysis client
func NewAnalysisClient(transport *Transport) *AnalysisClient {
	return &AnalysisClient{transport: transport}
}

// Analyze validates the file locally and uploads it with the analysis
// parameters. Validation failures are returned as *validation.Error before any
// request is made.
func (c *AnalysisClient) Analyze(ctx context.Context, file File, userID, role, languageCode string) (*models.AnalysisEnvelope, error) {
	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = validation.MIMEFromFilename(file.Name)
	}
	if err := validation.Validate(mimeType, int64(len(file.Data))); err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetMultipartField("file", file.Name, mimeType, bytes.NewReader(file.Data)).
			SetMultipartFormData(map[string]string{
				"userId":       userID,
				"role":         role,
				"languageCode": languageCode,
			}).
			Post("/api/v1/agreements/analyze")
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	var envelope models.AnalysisEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", ErrAnalysisFailed, err)
	}
	if envelope.Data == nil || envelope.Data.Analysis == nil {
		return nil, fmt.Errorf("%w: response has no analysis", ErrAnalysisFailed)
	}
	envelope.Data.Analysis.Normalize()
	return &envelope, nil
}

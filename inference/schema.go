package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"legalklarity-backend/models"

	"github.com/invopop/jsonschema"
)

var ErrMalformedOutput = errors.New("model output is not a valid analysis")

var (
	schemaOnce sync.Once
	schemaText string
)

// AnalysisSchema returns the JSON schema of models.DocumentAnalysis used as
// output-format instructions.
func AnalysisSchema() string {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			DoNotReference: true,
			ExpandedStruct: true,
		}
		s := r.Reflect(&models.DocumentAnalysis{})
		s.Version = ""
		b, err := json.Marshal(s)
		if err != nil {
			schemaText = "{}"
			return
		}
		schemaText = string(b)
	})
	return schemaText
}

// ParseAnalysis decodes the model output into a DocumentAnalysis. Markdown
// code fences around the JSON are tolerated; null or all-empty output is
// malformed.
func ParseAnalysis(output string) (*models.DocumentAnalysis, error) {
	text := stripCodeFence(output)
	if text == "" {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}

	var analysis *models.DocumentAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if analysis == nil || analysis.Empty() {
		return nil, fmt.Errorf("%w: no fields populated", ErrMalformedOutput)
	}
	analysis.Normalize()
	return analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

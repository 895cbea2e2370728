package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"legalklarity-backend/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var chatScopes = []string{
	"https://www.googleapis.com/auth/generative-language",
	"https://www.googleapis.com/auth/cloud-platform",
}

var (
	ErrNoCandidates  = errors.New("model returned no candidates")
	ErrPromptBlocked = errors.New("model blocked the prompt")
)

// Credentials selects how the Gemini client authenticates. APIKey wins when
// both are set.
type Credentials struct {
	APIKey          string
	CredentialsFile string
}

// NewGenaiClient creates a Gemini SDK client.
func NewGenaiClient(ctx context.Context, creds Credentials) (*genai.Client, error) {
	var opt option.ClientOption
	switch {
	case creds.APIKey != "":
		opt = option.WithAPIKey(creds.APIKey)
	case creds.CredentialsFile != "":
		opt = option.WithCredentialsFile(creds.CredentialsFile)
	default:
		return nil, errors.New("no Gemini credentials configured")
	}
	return genai.NewClient(ctx, opt)
}

// ResolveChatAuth fills in how the REST chat client authenticates. An API key
// is used as is; otherwise the credentials file becomes an OAuth token source.
func ResolveChatAuth(ctx context.Context, cfg *ChatConfig, creds Credentials) error {
	switch {
	case creds.APIKey != "":
		cfg.APIKey = creds.APIKey
		return nil
	case creds.CredentialsFile != "":
		data, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to read credentials file: %w", err)
		}
		gc, err := google.CredentialsFromJSON(ctx, data, chatScopes...)
		if err != nil {
			return fmt.Errorf("failed to parse credentials file: %w", err)
		}
		cfg.TokenSource = gc.TokenSource
		return nil
	default:
		return ErrMissingAPIKey
	}
}

// GenaiAnalyzer runs document analysis on a Gemini model in JSON mode
type GenaiAnalyzer struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// AnalyzerOption is a functional option for GenaiAnalyzer
type AnalyzerOption func(*GenaiAnalyzer)

// AnalyzerWithTemperature sets the sampling temperature
func AnalyzerWithTemperature(t float32) AnalyzerOption {
	return func(a *GenaiAnalyzer) {
		a.temperature = t
	}
}

// AnalyzerWithLogger sets the logger
func AnalyzerWithLogger(logger *zap.Logger) AnalyzerOption {
	return func(a *GenaiAnalyzer) {
		a.logger = logger
	}
}

// NewGenaiAnalyzer creates an analyzer bound to the given model name
func NewGenaiAnalyzer(client *genai.Client, model string, opts ...AnalyzerOption) *GenaiAnalyzer {
	a := &GenaiAnalyzer{
		client:      client,
		model:       model,
		temperature: 0.2,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the document text to the model and decodes the structured analysis.
func (a *GenaiAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*models.DocumentAnalysis, error) {
	if a.client == nil {
		return nil, errors.New("gemini client not set")
	}

	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(a.temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(analysisSystemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildAnalysisPrompt(req, AnalysisSchema())))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text, err := a.responseText(resp)
	if err != nil {
		return nil, err
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		a.logger.Warn("Unparseable analysis output",
			zap.String("model", a.model),
			zap.Int("output_len", len(text)),
			zap.Error(err),
		)
		return nil, err
	}
	return analysis, nil
}

func (a *GenaiAnalyzer) responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoCandidates
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrPromptBlocked, resp.PromptFeedback.BlockReason.String())
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		a.logger.Warn("Candidate finished early", zap.String("finish_reason", candidate.FinishReason.String()))
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("candidate has no parts (finish reason: %s)", candidate.FinishReason.String())
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

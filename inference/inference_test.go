package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestChatClientAsk(t *testing.T) {
	var got map[string]any
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"A non-compete limits work for rivals."}]},
			"groundingMetadata":{"groundingAttributions":[
				{"web":{"uri":"https://example.com/a","title":"A"}},
				{"web":{"uri":"https://example.com/b"}},
				{"web":{"title":"C"}},
				{}
			]}}]}`)
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "test-model"}, nil)
	reply, err := client.Ask(context.Background(), "What is a non-compete clause?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if path != "/models/test-model:generateContent" {
		t.Fatalf("unexpected path %q", path)
	}
	if key != "k" {
		t.Fatalf("expected api key header, got %q", key)
	}
	if reply.Text != "A non-compete limits work for rivals." {
		t.Fatalf("unexpected text %q", reply.Text)
	}
	if len(reply.Citations) != 1 || reply.Citations[0].URI != "https://example.com/a" {
		t.Fatalf("expected only the complete citation, got %+v", reply.Citations)
	}

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "What is a non-compete clause?" {
		t.Fatalf("user text not forwarded: %v", got)
	}
	tools := got["tools"].([]any)
	if _, ok := tools[0].(map[string]any)["google_search"]; !ok {
		t.Fatalf("google_search tool missing: %v", got)
	}
	sys := got["systemInstruction"].(map[string]any)["parts"].([]any)
	if sys[0].(map[string]any)["text"] != DefaultChatSystemPrompt {
		t.Fatalf("system prompt missing")
	}
}

func TestChatClientEmptyCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	reply, err := NewChatClient(ChatConfig{BaseURL: srv.URL, APIKey: "k"}, nil).Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Text != NoAnswerText || len(reply.Citations) != 0 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestChatClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewChatClient(ChatConfig{BaseURL: srv.URL, APIKey: "k"}, nil).Ask(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestChatClientRequiresKey(t *testing.T) {
	_, err := NewChatClient(ChatConfig{}, nil).Ask(context.Background(), "hi")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestChatClientUsesAccessTokenWithoutKey(t *testing.T) {
	var auth, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		key = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{
		BaseURL:     srv.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-1"}),
	}, nil)
	reply, err := client.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Text != "ok" || auth != "Bearer access-1" || key != "" {
		t.Fatalf("unexpected reply %q auth %q key %q", reply.Text, auth, key)
	}
}

func TestResolveChatAuth(t *testing.T) {
	ctx := context.Background()

	var cfg ChatConfig
	if err := ResolveChatAuth(ctx, &cfg, Credentials{APIKey: "k", CredentialsFile: "/unused.json"}); err != nil {
		t.Fatalf("api key: %v", err)
	}
	if cfg.APIKey != "k" || cfg.TokenSource != nil {
		t.Fatalf("api key should win: %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "credentials.json")
	creds := `{"type":"authorized_user","client_id":"id","client_secret":"secret","refresh_token":"refresh"}`
	if err := os.WriteFile(path, []byte(creds), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg = ChatConfig{}
	if err := ResolveChatAuth(ctx, &cfg, Credentials{CredentialsFile: path}); err != nil {
		t.Fatalf("credentials file: %v", err)
	}
	if cfg.APIKey != "" || cfg.TokenSource == nil {
		t.Fatalf("credentials file should yield a token source: %+v", cfg)
	}

	cfg = ChatConfig{}
	if err := ResolveChatAuth(ctx, &cfg, Credentials{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatalf("expected error for a missing credentials file")
	}
	if err := ResolveChatAuth(ctx, &cfg, Credentials{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestParseAnalysis(t *testing.T) {
	out := "```json\n{\"summary\":\"Lease\",\"key_terms\":[\"Rent: 1000\"],\"jurisdiction\":\"NY\"}\n```"
	a, err := ParseAnalysis(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Summary != "Lease" || a.Jurisdiction != "NY" || len(a.KeyTerms) != 1 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if a.Risks == nil || a.NextSteps == nil {
		t.Fatalf("absent lists must be normalized to empty slices")
	}

	if _, err := ParseAnalysis("not json"); !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	if _, err := ParseAnalysis("   "); !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput for empty output, got %v", err)
	}
	for _, out := range []string{"null", "{}", `{"summary":"  ","risks":[]}`, "```json\nnull\n```"} {
		if a, err := ParseAnalysis(out); !errors.Is(err, ErrMalformedOutput) || a != nil {
			t.Fatalf("expected ErrMalformedOutput for %q, got %+v, %v", out, a, err)
		}
	}
	if _, err := ParseAnalysis(`{"jurisdiction":"England and Wales"}`); err != nil {
		t.Fatalf("one populated field is enough: %v", err)
	}
}

func TestAnalysisSchemaAndPrompt(t *testing.T) {
	schema := AnalysisSchema()
	for _, field := range []string{"summary", "key_terms", "missing_or_unusual", "next_steps", "jurisdiction"} {
		if !strings.Contains(schema, `"`+field+`"`) {
			t.Fatalf("schema missing %s: %s", field, schema)
		}
	}

	prompt := buildAnalysisPrompt(AnalysisRequest{Text: "BODY", DocumentType: "nda", Role: "startup", LanguageCode: "hi"}, schema)
	for _, want := range []string{"nda", `"startup"`, `"hi"`, "BODY", "Term: Definition"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Fatalf("got %q", got)
	}
	if got := truncateRunes("abc", 5); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

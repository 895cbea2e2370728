package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"legalklarity-backend/models"
	"legalklarity-backend/validation"
)

const okEnvelope = `{"success":true,"data":{"document_id":"d1","filename":"lease.pdf","timestamp":"2026-01-02T03:04:05Z","analysis":{"summary":"A lease","risks":["Auto renewal"]}}}`

type recordedRequest struct {
	auth     string
	fileData string
	fileType string
	userID   string
	role     string
	language string
}

type backend struct {
	mu       sync.Mutex
	requests []recordedRequest
	statuses []int
	body     string
}

func (b *backend) recorded() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func (b *backend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{auth: r.Header.Get("Authorization")}
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			f, header, err := r.FormFile("file")
			if err == nil {
				data, _ := io.ReadAll(f)
				f.Close()
				rec.fileData = string(data)
				rec.fileType = header.Header.Get("Content-Type")
			}
			rec.userID = r.FormValue("userId")
			rec.role = r.FormValue("role")
			rec.language = r.FormValue("languageCode")
		}

		b.mu.Lock()
		n := len(b.requests)
		b.requests = append(b.requests, rec)
		status := http.StatusCreated
		if n < len(b.statuses) {
			status = b.statuses[n]
		}
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusUnauthorized {
			io.WriteString(w, `{"success":false,"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`)
			return
		}
		io.WriteString(w, b.body)
	}
}

type countingSource struct {
	mu     sync.Mutex
	plain  int
	forced int
	failOn bool
}

func (s *countingSource) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !forceRefresh {
		s.plain++
		return "token-0", nil
	}
	s.forced++
	if s.failOn {
		return "", errors.New("session expired")
	}
	return "token-refreshed", nil
}

func pdfFile() File {
	return File{Name: "lease.pdf", MIMEType: validation.MimeTypePDF, Data: []byte("%PDF-1.4 lease")}
}

func TestAnalyzeRetriesOnceAfter401(t *testing.T) {
	b := &backend{statuses: []int{http.StatusUnauthorized}, body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	src := &countingSource{}
	cache := &MemoryTokenCache{}
	c := NewAnalysisClient(NewTransport(srv.URL, WithTokenSource(src), WithTokenCache(cache)))

	env, err := c.Analyze(context.Background(), pdfFile(), "user-1", "tenant", "en")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if env.Data.Analysis.Summary != "A lease" || env.Data.Filename != "lease.pdf" {
		t.Fatalf("unexpected envelope %+v", env.Data)
	}
	if env.Data.Analysis.KeyTerms == nil {
		t.Fatalf("analysis should be normalized")
	}

	reqs := b.recorded()
	if len(reqs) != 2 {
		t.Fatalf("expected exactly one retry (2 requests), got %d", len(reqs))
	}
	if src.forced != 1 {
		t.Fatalf("expected one forced refresh, got %d", src.forced)
	}
	first, second := reqs[0], reqs[1]
	if first.auth != "Bearer token-0" || second.auth != "Bearer token-refreshed" {
		t.Fatalf("unexpected auth headers %q, %q", first.auth, second.auth)
	}
	first.auth, second.auth = "", ""
	if first != second {
		t.Fatalf("replayed request differs: %+v vs %+v", first, second)
	}
	if second.fileData != "%PDF-1.4 lease" || second.fileType != validation.MimeTypePDF {
		t.Fatalf("unexpected file part %+v", second)
	}
	if second.userID != "user-1" || second.role != "tenant" || second.language != "en" {
		t.Fatalf("unexpected form fields %+v", second)
	}
	if tok, _ := cache.Load(); tok != "token-refreshed" {
		t.Fatalf("refreshed token should be cached, got %q", tok)
	}
}

func TestAnalyzeTwo401sRejects(t *testing.T) {
	b := &backend{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized}, body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := NewAnalysisClient(NewTransport(srv.URL, WithTokenSource(&countingSource{})))
	_, err := c.Analyze(context.Background(), pdfFile(), "user-1", "tenant", "en")
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := len(b.recorded()); n != 2 {
		t.Fatalf("expected no further retry after the second 401, got %d requests", n)
	}
	if !errors.Is(err, ErrAuth) || !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected auth and analysis failure, got %v", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusUnauthorized || te.Code != "UNAUTHORIZED" {
		t.Fatalf("expected 401 transport error, got %v", err)
	}
}

func TestRefreshFailureClearsCache(t *testing.T) {
	b := &backend{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized}, body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cache := &MemoryTokenCache{}
	cache.Save("stale")
	c := NewAnalysisClient(NewTransport(srv.URL, WithTokenSource(&countingSource{failOn: true}), WithTokenCache(cache)))

	_, err := c.Analyze(context.Background(), pdfFile(), "u", "tenant", "en")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if tok, _ := cache.Load(); tok != "" {
		t.Fatalf("cache should be cleared after failed refresh, got %q", tok)
	}
	if n := len(b.recorded()); n != 1 {
		t.Fatalf("no replay without a refreshed token, got %d requests", n)
	}
}

func TestNoReplayWithoutSession(t *testing.T) {
	b := &backend{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized}, body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cache := &MemoryTokenCache{}
	cache.Save("cached-token")
	c := NewAnalysisClient(NewTransport(srv.URL, WithTokenCache(cache)))

	_, err := c.Analyze(context.Background(), pdfFile(), "u", "tenant", "en")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if n := len(b.recorded()); n != 1 {
		t.Fatalf("cached token must not be replayed, got %d requests", n)
	}
}

func TestCachedTokenWithoutSession(t *testing.T) {
	b := &backend{body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cache := &MemoryTokenCache{}
	cache.Save("cached-token")
	c := NewAnalysisClient(NewTransport(srv.URL, WithTokenCache(cache)))

	if _, err := c.Analyze(context.Background(), pdfFile(), "u", "tenant", "en"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if auth := b.recorded()[0].auth; auth != "Bearer cached-token" {
		t.Fatalf("expected cached token, got %q", auth)
	}
}

func TestAnalyzeValidatesBeforeNetwork(t *testing.T) {
	b := &backend{body: okEnvelope}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := NewAnalysisClient(NewTransport(srv.URL))
	_, err := c.Analyze(context.Background(), File{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")}, "u", "tenant", "en")
	if !errors.Is(err, validation.ErrInvalidFileType) {
		t.Fatalf("expected invalid file type, got %v", err)
	}
	var ve *validation.Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	if n := len(b.recorded()); n != 0 {
		t.Fatalf("no request should be made, got %d", n)
	}
}

func TestAnalyzeMalformedEnvelope(t *testing.T) {
	for _, body := range []string{`{"success":true,"data":{}}`, `{"success":true}`, `not json`} {
		b := &backend{body: body}
		srv := httptest.NewServer(b.handler())

		c := NewAnalysisClient(NewTransport(srv.URL))
		_, err := c.Analyze(context.Background(), pdfFile(), "u", "tenant", "en")
		srv.Close()

		if !errors.Is(err, ErrAnalysisFailed) {
			t.Fatalf("body %q: expected ErrAnalysisFailed, got %v", body, err)
		}
	}
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"success":false,"error":{"code":"ANALYSIS_FAILED","message":"upstream"}}`)
	}))
	defer srv.Close()

	_, err := NewAnalysisClient(NewTransport(srv.URL)).Analyze(context.Background(), pdfFile(), "u", "tenant", "en")
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusBadGateway || te.Code != "ANALYSIS_FAILED" {
		t.Fatalf("expected 502 transport error, got %v", err)
	}
	if errors.Is(err, ErrAuth) {
		t.Fatalf("502 must not be an auth error")
	}
}

func TestChatAPI(t *testing.T) {
	var got models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":{"text":"Answer","citations":[{"uri":"https://a","title":"A"}]}}`)
	}))
	defer srv.Close()

	reply, err := NewChatAPI(NewTransport(srv.URL)).Ask(context.Background(), "What is a lien?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got.Message != "What is a lien?" {
		t.Fatalf("unexpected request %+v", got)
	}
	if reply.Text != "Answer" || len(reply.Citations) != 1 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestFileTokenCache(t *testing.T) {
	c := NewFileTokenCache(filepath.Join(t.TempDir(), "nested", "token"))

	if tok, err := c.Load(); err != nil || tok != "" {
		t.Fatalf("empty cache: %q, %v", tok, err)
	}
	if err := c.Save("abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, _ := c.Load(); tok != "abc" {
		t.Fatalf("load = %q", tok)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if tok, _ := c.Load(); tok != "" {
		t.Fatalf("load after clear = %q", tok)
	}
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = 120 * time.Second

// ErrAuth marks a request rejected for missing or invalid credentials that a
// token refresh could not recover.
var ErrAuth = errors.New("authentication failed")

// TransportError is a non-2xx response other than a recovered 401
type TransportError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *TransportError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is matches ErrAuth for 401 responses.
func (e *TransportError) Is(target error) bool {
	return target == ErrAuth && e.StatusCode == http.StatusUnauthorized
}

// Transport sends backend requests with a bearer token and replays a request
// once after refreshing the token when the backend answers 401.
type Transport struct {
	http   *resty.Client
	source TokenSource
	cache  TokenCache
	logger *zap.Logger
}

// TransportOption is a functional option for Transport
type TransportOption func(*Transport)

// WithTokenSource sets the active session. Without one the cached token is used.
func WithTokenSource(source TokenSource) TransportOption {
	return func(t *Transport) {
		t.source = source
	}
}

// WithTokenCache sets where tokens are persisted
func WithTokenCache(cache TokenCache) TransportOption {
	return func(t *Transport) {
		t.cache = cache
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.http.SetTimeout(d)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a transport for the backend at baseURL
func NewTransport(baseURL string, opts ...TransportOption) *Transport {
	t := &Transport{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		cache:  &MemoryTokenCache{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do runs build against a fresh request carrying the current token. build is
// called again for the replay so the retried request has the same content as
// the original. A 401 is replayed only when a forced refresh yields a token.
func (t *Transport) Do(ctx context.Context, build func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	var (
		resp      *resty.Response
		refreshed string
	)

	err := retry.Do(
		func() error {
			token := refreshed
			if token == "" {
				token = t.token(ctx)
			}

			req := t.http.R().SetContext(ctx)
			if token != "" {
				req.SetAuthToken(token)
			}

			r, err := build(req)
			if err != nil {
				return fmt.Errorf("failed to send request: %w", err)
			}
			if r.IsError() {
				return newTransportError(r)
			}
			resp = r
			return nil
		},
		retry.Attempts(2),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if !isUnauthorized(err) || refreshed != "" {
				return false
			}
			refreshed = t.refresh(ctx)
			return refreshed != ""
		}),
		retry.OnRetry(func(n uint, err error) {
			t.logger.Debug("Retrying request after token refresh", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// token returns the bearer token for a first attempt, falling back to the
// cache when there is no session or it cannot produce one.
func (t *Transport) token(ctx context.Context) string {
	if t.source != nil {
		token, err := t.source.IDToken(ctx, false)
		if err == nil && token != "" {
			if err := t.cache.Save(token); err != nil {
				t.logger.Warn("Failed to cache token", zap.Error(err))
			}
			return token
		}
	}

	token, err := t.cache.Load()
	if err != nil {
		t.logger.Warn("Failed to load cached token", zap.Error(err))
		return ""
	}
	return token
}

// refresh forces a new token from the session. It returns "" when there is no
// session or the refresh fails; a failed refresh also clears the cache.
func (t *Transport) refresh(ctx context.Context) string {
	if t.source == nil {
		return ""
	}
	token, err := t.source.IDToken(ctx, true)
	if err != nil || token == "" {
		t.logger.Warn("Token refresh failed, clearing cached token", zap.Error(err))
		if err := t.cache.Clear(); err != nil {
			t.logger.Warn("Failed to clear token cache", zap.Error(err))
		}
		return ""
	}
	if err := t.cache.Save(token); err != nil {
		t.logger.Warn("Failed to cache token", zap.Error(err))
	}
	return token
}

func isUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized
}

func newTransportError(resp *resty.Response) *TransportError {
	te := &TransportError{StatusCode: resp.StatusCode()}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		te.Code = body.Error.Code
		te.Message = body.Error.Message
	}
	return te
}

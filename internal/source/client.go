package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/cache"
	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/util"
	"github.com/pharmaclaims/substantia/internal/worker"
)

// Client is the contract every evidence source implements. Search maps one
// normalized query onto the source's native API and returns raw candidates;
// it never ranks or filters beyond the source's own result cap.
type Client interface {
	Kind() model.SourceKind
	Search(ctx context.Context, q model.SourceQuery) ([]*model.Candidate, error)
}

// StatusError is a non-2xx HTTP response. Callers branch on the code: 404 is
// usually "no results", 403 means access restricted.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

const maxAttempts = 3

// rest is the shared HTTP plumbing of all source clients: one transport with
// proxy support, per-host rate limiting, bounded retries on transient
// failures, and a GET response cache so repeated lookups within a run
// (intent enrichment plus the label search) hit the API once.
type rest struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	sleep      func(time.Duration) // injectable for retry tests
}

func newREST(cfg *model.Config, c cache.Cache, limiter *worker.Limiter) *rest {
	maxBody := cfg.HTTP.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 8_000_000
	}

	return &rest{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBody:   maxBody,
		cache:     c,
		cacheTTL:  cfg.Cache.TTL,
		limiter:   limiter,
		sleep:     time.Sleep,
	}
}

// get performs a cached, rate-limited GET with up to maxAttempts attempts.
// Only transient failures retry: network errors, 429 and 5xx. Other non-2xx
// codes return a StatusError immediately.
func (r *rest) get(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.RequestKey(rawURL)
	if r.cache != nil {
		if body, ok := r.cache.Get(key); ok {
			return body, nil
		}
	}

	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			r.sleep(backoff)
			backoff *= 2
		}

		body, err := r.doGet(ctx, rawURL)
		if err == nil {
			if r.cache != nil {
				_ = r.cache.Set(key, body, r.cacheTTL)
			}
			return body, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.Code != http.StatusTooManyRequests && se.Code < 500 {
			return nil, err
		}

		lastErr = err
		zap.L().Debug("transient fetch failure",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, eris.Wrapf(lastErr, "giving up after %d attempts", maxAttempts)
}

func (r *rest) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	return body, nil
}

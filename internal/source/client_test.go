package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pharmaclaims/substantia/internal/cache"
	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/worker"
)

func newTestREST(t *testing.T) *rest {
	t.Helper()
	return &rest{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		userAgent:  "substantia-test",
		maxBody:    8_000_000,
		cache:      cache.NewMemoryCache(time.Minute, time.Minute),
		cacheTTL:   time.Minute,
		limiter:    worker.NewLimiter(1000, 1000),
		sleep:      func(time.Duration) {}, // no real backoff in tests
	}
}

func testQuery() model.SourceQuery {
	return model.SourceQuery{
		DrugName:    "Paxlovid",
		GenericName: "nirmatrelvir",
		Indication:  "COVID-19",
		MaxResults:  20,
		MaxTrials:   10,
		YearsBack:   5,
	}
}

func TestRESTGet_CachesResponses(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	r := newTestREST(t)
	for i := 0; i < 3; i++ {
		body, err := r.get(context.Background(), server.URL+"/endpoint?q=1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %s", body)
		}
	}

	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestRESTGet_RetriesTransientFailures(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	r := newTestREST(t)
	body, err := r.get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected recovery on third attempt: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %s", body)
	}
	if hits != 3 {
		t.Errorf("hits = %d", hits)
	}
}

func TestRESTGet_NoRetryOnClientError(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := newTestREST(t)
	_, err := r.get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected StatusError 404, got %v", err)
	}
	if hits != 1 {
		t.Errorf("4xx must not retry, hits = %d", hits)
	}
}

func TestRESTGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	r := newTestREST(t)
	if _, err := r.get(context.Background(), server.URL); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if hits != maxAttempts {
		t.Errorf("hits = %d, want %d", hits, maxAttempts)
	}
}

func TestNewClients(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.NCBI.APIKey = "key"

	clients := NewClients(cfg, nil)
	if clients.Label == nil || clients.Literature == nil || clients.Trials == nil || clients.Resolver == nil {
		t.Fatal("incomplete client wiring")
	}
	if clients.Label.Kind() != model.SourceLabel {
		t.Errorf("label kind = %s", clients.Label.Kind())
	}
	if clients.Literature.Kind() != model.SourceLiterature {
		t.Errorf("literature kind = %s", clients.Literature.Kind())
	}
	if clients.Trials.Kind() != model.SourceTrials {
		t.Errorf("trials kind = %s", clients.Trials.Kind())
	}
}

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	store := cache.NewTiered(cache.NewLRU[model.UsageState](4, 48*time.Hour), nil)
	ledger := usage.NewLedger(store, usage.Limits{})

	classify := func(status int, body []byte) *APIError {
		return ClassifyGoogleError("test", status, body)
	}
	gw := New("test", ledger, classify, nil, func(string) string { return "op" }, Options{
		MinInterval: time.Millisecond,
	})
	gw.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return gw
}

func TestExecuteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	gw := testGateway(t)
	body, err := gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/op"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}
}

func TestExecuteRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gw := testGateway(t)
	_, err := gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/op"})
	if err != nil {
		t.Fatalf("Execute should succeed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestExecuteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":429,"message":"slow down"}}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gw := testGateway(t)
	_, err := gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/op"})
	if err != nil {
		t.Fatalf("Execute should succeed after rate-limit retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestExecuteNoRetryOnQuotaExceeded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`))
	}))
	defer server.Close()

	gw := testGateway(t)
	_, err := gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/op"})
	if err == nil {
		t.Fatal("Execute should fail on quota exhaustion")
	}
	if KindOf(err) != KindQuotaExceeded {
		t.Errorf("kind = %v, want quota_exceeded", KindOf(err))
	}
	if !IsRateLimited(err) {
		t.Error("quota exhaustion should be eligible for stale fallback")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want exactly 1 (no retry)", got)
	}
}

func TestExecuteDeduplicatesConcurrentIdenticalRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gw := testGateway(t)
	url := server.URL + "/op?q=video+editing"

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: url})
		}(i)
	}

	// Give all goroutines time to join the in-flight call.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("call %d failed: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 for identical concurrent requests", got)
	}
}

func TestSignatureCanonicalizesQueryOrder(t *testing.T) {
	a := signature(Request{Method: "GET", URL: "https://example.com/v?b=2&a=1"})
	b := signature(Request{Method: "get", URL: "https://example.com/v?a=1&b=2"})
	if a != b {
		t.Errorf("signatures differ for equivalent requests:\n%s\n%s", a, b)
	}

	c := signature(Request{Method: "GET", URL: "https://example.com/v?a=1&b=3"})
	if a == c {
		t.Error("different query values should produce different signatures")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Errorf("parseRetryAfter(7) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("-3"); got != 0 {
		t.Errorf("parseRetryAfter(negative) = %v", got)
	}
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 31*time.Second {
		t.Errorf("parseRetryAfter(http-date) = %v", got)
	}
}

func TestClassifyGoogleError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"quota reason", 403, `{"error":{"errors":[{"reason":"quotaExceeded"}]}}`, KindQuotaExceeded},
		{"daily limit reason", 403, `{"error":{"errors":[{"reason":"dailyLimitExceeded"}]}}`, KindQuotaExceeded},
		{"rate limit reason", 403, `{"error":{"errors":[{"reason":"rateLimitExceeded"}]}}`, KindRateLimited},
		{"key invalid reason", 400, `{"error":{"errors":[{"reason":"keyInvalid"}]}}`, KindAuthError},
		{"status 429", 429, `{}`, KindRateLimited},
		{"status 401", 401, `{}`, KindAuthError},
		{"status 500", 500, `{}`, KindTransient},
		{"status 400 no reason", 400, `{}`, KindMalformed},
		{"unparseable body", 503, `not json`, KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyGoogleError("youtube", tt.status, []byte(tt.body))
			if err.Kind != tt.want {
				t.Errorf("kind = %v, want %v", err.Kind, tt.want)
			}
			if err.Provider != "youtube" {
				t.Errorf("provider = %q", err.Provider)
			}
		})
	}
}

func TestClassifyPlainError(t *testing.T) {
	err := ClassifyPlainError("keywordtool", 429, []byte("too many requests"))
	if err.Kind != KindRateLimited {
		t.Errorf("kind = %v, want rate_limited", err.Kind)
	}
	if !strings.Contains(err.Message, "too many requests") {
		t.Errorf("message should carry the body excerpt, got %q", err.Message)
	}

	long := strings.Repeat("x", 500)
	err = ClassifyPlainError("keywordtool", 500, []byte(long))
	if len(err.Message) > 200 {
		t.Errorf("message length = %d, want capped at 200", len(err.Message))
	}
}

func TestExecuteRecordsUsageOncePerSettledCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := cache.NewTiered(cache.NewLRU[model.UsageState](4, 48*time.Hour), nil)
	ledger := usage.NewLedger(store, usage.Limits{})
	classify := func(status int, body []byte) *APIError {
		return ClassifyGoogleError(usage.ProviderYouTube, status, body)
	}
	gw := New(usage.ProviderYouTube, ledger, classify, nil,
		func(string) string { return "search" }, Options{MinInterval: time.Millisecond})
	gw.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	if _, err := gw.Execute(context.Background(), Request{Method: http.MethodGet, URL: server.URL + "/op"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3", got)
	}

	// Three HTTP attempts, one settled logical call, one ledger entry.
	summary := ledger.Summarize(context.Background())
	for _, provider := range summary.Providers {
		if provider.ID == usage.ProviderYouTube && provider.Requests != 1 {
			t.Errorf("youtube requests = %d, want 1", provider.Requests)
		}
	}
}

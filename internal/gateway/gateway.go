package gateway

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/enzo-prism/yt-keywords/internal/usage"
)

const (
	defaultConcurrency = 4
	defaultMinInterval = 120 * time.Millisecond
	defaultMaxRetries  = 2
	defaultTimeout     = 12 * time.Second

	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 4 * time.Second
	maxJitter      = 200 * time.Millisecond
)

var outboundCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ytkw_outbound_calls_total",
		Help: "Terminal outbound provider call outcomes, by provider, endpoint, and outcome.",
	},
	[]string{"provider", "endpoint", "outcome"},
)

func init() {
	prometheus.MustRegister(outboundCalls)
}

// Request describes one outbound provider call.
type Request struct {
	Method string
	URL    string
	Body   []byte
	// QuotaUser optionally attributes the call to an end user for
	// provider-side fairness accounting.
	QuotaUser string
}

// Classifier turns a non-2xx response into a classified APIError.
type Classifier func(status int, body []byte) *APIError

// Decorator attaches credentials and headers to an outgoing request.
type Decorator func(req *http.Request, quotaUser string)

// Options configure a Gateway beyond its defaults.
type Options struct {
	Concurrency int
	MinInterval time.Duration
	MaxRetries  int
	Timeout     time.Duration
}

// Gateway executes outbound calls to a single provider. It is the only
// component that talks to the network: it enforces a minimum
// inter-request interval across all callers, caps concurrent calls,
// collapses identical concurrent requests into one, retries transient
// failures with capped exponential backoff, classifies terminal errors,
// and records one usage event per settled call.
//
// One Gateway instance per provider is constructed at startup and
// shared by reference; its pacing timestamp and de-duplication group
// are the only process-global mutable state for that provider.
type Gateway struct {
	provider         string
	client           *http.Client
	ledger           *usage.Ledger
	classify         Classifier
	decorate         Decorator
	endpointFromPath func(path string) string

	sem        *semaphore.Weighted
	group      singleflight.Group
	maxRetries int

	mu            sync.Mutex
	lastRequestAt time.Time
	minInterval   time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func New(provider string, ledger *usage.Ledger, classify Classifier, decorate Decorator, endpointFromPath func(string) string, opts Options) *Gateway {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Gateway{
		provider:         provider,
		client:           &http.Client{Timeout: opts.Timeout},
		ledger:           ledger,
		classify:         classify,
		decorate:         decorate,
		endpointFromPath: endpointFromPath,
		sem:              semaphore.NewWeighted(int64(opts.Concurrency)),
		maxRetries:       opts.MaxRetries,
		minInterval:      opts.MinInterval,
		sleep:            sleepCtx,
	}
}

// Execute runs the request and returns the raw response body. Two
// logically identical requests in flight at the same time share one
// underlying call; the de-duplication entry is dropped once the call
// settles so later identical requests go back to the network.
func (g *Gateway) Execute(ctx context.Context, req Request) ([]byte, error) {
	sig := signature(req)
	body, err, _ := g.group.Do(sig, func() (interface{}, error) {
		b, execErr := g.execute(ctx, req)
		if execErr != nil {
			return nil, execErr
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	// Shared across waiters; treated as read-only by all callers.
	return body.([]byte), nil
}

func (g *Gateway) execute(ctx context.Context, req Request) ([]byte, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	if err := g.pace(ctx); err != nil {
		return nil, err
	}

	endpoint := g.endpointFromPath(requestPath(req.URL))

	body, err := g.attempt(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	outboundCalls.WithLabelValues(g.provider, endpoint, outcome).Inc()
	g.ledger.Record(ctx, g.provider, endpoint, 1)

	return body, err
}

// attempt runs the retry loop: up to maxRetries extra attempts for
// rate-limit and transient failures, with delay
// min(4s, retryAfter ?? 500ms*2^attempt + jitter<=200ms).
func (g *Gateway) attempt(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		body, retryAfter, err := g.doOnce(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !retryable(apiErr) || attempt == g.maxRetries {
			return nil, err
		}

		delay := baseRetryDelay<<attempt + time.Duration(rand.Int63n(int64(maxJitter)))
		if retryAfter > 0 {
			delay = retryAfter
		}
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}

		log.Debug().
			Str("provider", g.provider).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Str("kind", apiErr.Kind.String()).
			Msg("gateway: retrying")

		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (g *Gateway) doOnce(ctx context.Context, req Request) ([]byte, time.Duration, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, 0, err
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if g.decorate != nil {
		g.decorate(httpReq, req.QuotaUser)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, &APIError{Provider: g.provider, Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &APIError{Provider: g.provider, Kind: KindTransient, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, 0, nil
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	return nil, retryAfter, g.classify(resp.StatusCode, body)
}

// pace enforces the minimum inter-request interval across all logical
// operations hitting this provider.
func (g *Gateway) pace(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	wait := g.minInterval - now.Sub(g.lastRequestAt)
	if wait < 0 {
		wait = 0
	}
	g.lastRequestAt = now.Add(wait)
	g.mu.Unlock()

	if wait > 0 {
		return g.sleep(ctx, wait)
	}
	return nil
}

// signature canonicalizes a request for in-flight de-duplication:
// method, origin+path, sorted query parameters, and body.
func signature(req Request) string {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return req.Method + " " + req.URL + " " + string(req.Body)
	}

	params := parsed.Query()
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.ToUpper(req.Method))
	b.WriteString(" ")
	b.WriteString(parsed.Scheme)
	b.WriteString("://")
	b.WriteString(parsed.Host)
	b.WriteString(parsed.Path)
	b.WriteString("?")
	for i, key := range keys {
		values := params[key]
		sort.Strings(values)
		for j, value := range values {
			if i > 0 || j > 0 {
				b.WriteString("&")
			}
			b.WriteString(key)
			b.WriteString("=")
			b.WriteString(value)
		}
	}
	if len(req.Body) > 0 {
		b.WriteString(" ")
		b.Write(req.Body)
	}
	return b.String()
}

func requestPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Path
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		d := time.Until(at)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/fanshield/doxwatch/internal/cache"
	"github.com/fanshield/doxwatch/internal/model"
)

// Sentinel errors callers distinguish with errors.Is.
var (
	// ErrQuotaExhausted means the API signaled quota exhaustion or access
	// denial (403/429). The run halts but already-collected results are
	// preserved.
	ErrQuotaExhausted = errors.New("search API quota exhausted or access denied")

	// ErrMissingAPIKey means no usable credential was configured. Raised
	// before any request is issued.
	ErrMissingAPIKey = errors.New("missing search API key")

	// ErrAllRequestsFailed means no query produced a single successful
	// fetch while at least one failure was recorded.
	ErrAllRequestsFailed = errors.New("all search requests failed")
)

// placeholderAPIKey is the known placeholder shipped in example configs;
// treated the same as a missing key.
const placeholderAPIKey = "DEMO_KEY_CHANGE_ME"

const maxBodyBytes = 2 << 20

// fetchSleepFunc is the backoff sleep, overridable in tests.
var fetchSleepFunc = time.Sleep

// searchPage is one decoded page of search results. Items is a pointer so
// a response that lacks the field entirely (quota errors sometimes come
// back as 200s with an error object) is distinguishable from an empty page.
type searchPage struct {
	Items         *[]searchItem `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
}

// Fetcher issues paginated search requests with retry, linear backoff,
// quota detection and an in-run page cache. Requests are strictly
// sequential; the limiter only paces them.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	maxResults int

	retryAttempts int
	retryBackoff  time.Duration

	limiter  *rate.Limiter
	pages    cache.Cache
	cacheTTL time.Duration
}

// NewFetcher creates a fetcher from the run configuration.
func NewFetcher(cfg *model.Config) *Fetcher {
	rps := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	if rps <= 0 {
		rps = rate.Inf
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}

	var pages cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	return &Fetcher{
		httpClient:    &http.Client{Timeout: cfg.HTTP.Timeout},
		baseURL:       cfg.API.BaseURL,
		apiKey:        cfg.API.Key,
		userAgent:     cfg.HTTP.UserAgent,
		maxResults:    cfg.API.MaxResults,
		retryAttempts: cfg.Retry.Attempts,
		retryBackoff:  cfg.Retry.Backoff,
		limiter:       rate.NewLimiter(rps, burst),
		pages:         pages,
		cacheTTL:      cfg.Cache.TTL,
	}
}

// SearchPage fetches one page of results for a query. The returned failure
// count is the number of failed attempts recorded, including on eventual
// success. Quota denial returns ErrQuotaExhausted immediately without
// consuming the retry budget; transient errors (network, non-quota error
// status, malformed body) are retried with linearly increasing backoff.
func (f *Fetcher) SearchPage(ctx context.Context, query, pageToken string) (*searchPage, int, error) {
	if f.pages != nil {
		if body, found := f.pages.Get(cache.PageKey(query, pageToken)); found {
			var page searchPage
			if err := json.Unmarshal(body, &page); err == nil {
				return &page, 0, nil
			}
		}
	}

	failures := 0
	var lastErr error
	for attempt := 1; attempt <= f.retryAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, failures, err
		}

		body, err := f.requestPage(ctx, query, pageToken)
		if err != nil {
			failures++
			if errors.Is(err, ErrQuotaExhausted) {
				return nil, failures, err
			}
			lastErr = err
			if attempt < f.retryAttempts {
				fetchSleepFunc(f.retryBackoff * time.Duration(attempt))
			}
			continue
		}

		var page searchPage
		if err := json.Unmarshal(body, &page); err != nil {
			failures++
			lastErr = fmt.Errorf("decode response: %w", err)
			if attempt < f.retryAttempts {
				fetchSleepFunc(f.retryBackoff * time.Duration(attempt))
			}
			continue
		}

		if f.pages != nil {
			_ = f.pages.Set(cache.PageKey(query, pageToken), body, f.cacheTTL)
		}
		return &page, failures, nil
	}

	return nil, failures, fmt.Errorf("search %q: retries exhausted: %w", query, lastErr)
}

// requestPage issues a single HTTP request and classifies the outcome.
func (f *Fetcher) requestPage(ctx context.Context, query, pageToken string) ([]byte, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("key", f.apiKey)
	params.Set("maxResults", strconv.Itoa(f.maxResults))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrQuotaExhausted)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

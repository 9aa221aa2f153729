package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fanshield/doxwatch/internal/model"
)

func testConfig(baseURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Key = "test-key"
	cfg.Cache.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 0 // unlimited in tests
	return cfg
}

func silenceSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

const riskyItem = `{"id":{"videoId":"%s"},"snippet":{"title":"Felix house address Seoul Gangnam-gu","description":"spotted outside apartment door 25 minutes"}}`

const benignItem = `{"id":{"videoId":"%s"},"snippet":{"title":"Official MV teaser","description":"subscribe and enjoy"}}`

func itemsPage(next string, items ...string) string {
	body := `{"items":[`
	for i, it := range items {
		if i > 0 {
			body += ","
		}
		body += it
	}
	body += `]`
	if next != "" {
		body += fmt.Sprintf(`,"nextPageToken":%q`, next)
	}
	return body + `}`
}

func TestRun_QuotaOnSecondQuery(t *testing.T) {
	silenceSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "query one":
			fmt.Fprint(w, itemsPage("", fmt.Sprintf(riskyItem, "vid1")))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"query one", "query two"})

	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if outcome == nil {
		t.Fatal("expected a partial outcome alongside the quota error")
	}
	if len(outcome.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(outcome.Candidates))
	}
	if !outcome.QuotaBlocked {
		t.Error("expected quota_blocked flag")
	}
	if !outcome.AnyRequestSucceeded {
		t.Error("expected any_request_succeeded flag")
	}
	if outcome.RequestFailures == 0 {
		t.Error("expected the quota denial to be recorded as a failure")
	}
}

func TestRun_QuotaHaltsRemainingQueries(t *testing.T) {
	silenceSleep(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	_, err := p.Run(context.Background(), []string{"a", "b", "c", "d"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected fetching to stop after the first quota response, saw %d requests", got)
	}
}

func TestRun_AllQueriesNetworkFail(t *testing.T) {
	silenceSleep(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	p := New(cfg)
	outcome, err := p.Run(context.Background(), []string{"query one", "query two"})

	if !errors.Is(err, ErrAllRequestsFailed) {
		t.Fatalf("expected ErrAllRequestsFailed, got %v", err)
	}
	if outcome != nil {
		t.Error("expected no outcome for a fatally failed run")
	}
	// Both queries must be attempted before the run is declared dead.
	want := int32(2 * cfg.Retry.Attempts)
	if got := requests.Load(); got != want {
		t.Errorf("expected %d requests (full retry budget per query), saw %d", want, got)
	}
}

func TestRun_MalformedBodyMidRun(t *testing.T) {
	silenceSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			fmt.Fprint(w, "this is not json")
			return
		}
		fmt.Fprint(w, itemsPage("", fmt.Sprintf(riskyItem, "vid9")))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	p := New(cfg)
	outcome, err := p.Run(context.Background(), []string{"broken", "healthy"})

	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(outcome.Candidates) != 1 {
		t.Fatalf("expected the healthy query to contribute 1 candidate, got %d", len(outcome.Candidates))
	}
	if outcome.RequestFailures != cfg.Retry.Attempts {
		t.Errorf("expected %d recorded failures for the malformed query, got %d",
			cfg.Retry.Attempts, outcome.RequestFailures)
	}
	if !outcome.AnyRequestSucceeded {
		t.Error("expected any_request_succeeded flag")
	}
}

func TestRun_MissingItemsFieldAbandonsQueryOnly(t *testing.T) {
	silenceSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "no items" {
			fmt.Fprint(w, `{"error":{"code":400,"message":"bad request"}}`)
			return
		}
		fmt.Fprint(w, itemsPage("", fmt.Sprintf(riskyItem, "vid2")))
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"no items", "healthy"})

	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(outcome.Candidates) != 1 {
		t.Fatalf("expected 1 candidate from the healthy query, got %d", len(outcome.Candidates))
	}
	if outcome.RequestFailures != 0 {
		t.Errorf("a parseable response without items is not a request failure, got %d", outcome.RequestFailures)
	}
}

func TestRun_BelowThresholdFiltered(t *testing.T) {
	silenceSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, itemsPage("", fmt.Sprintf(benignItem, "vid3")))
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"query"})

	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if len(outcome.Candidates) != 0 {
		t.Fatalf("expected below-threshold candidate to be filtered, got %d", len(outcome.Candidates))
	}
	if !outcome.AnyRequestSucceeded {
		t.Error("a clean-but-quiet run must still report any_request_succeeded")
	}
}

func TestRun_MissingCredential(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	for _, key := range []string{"", "DEMO_KEY_CHANGE_ME"} {
		cfg := testConfig(server.URL)
		cfg.API.Key = key

		p := New(cfg)
		outcome, err := p.Run(context.Background(), []string{"query"})
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("key %q: expected ErrMissingAPIKey, got %v", key, err)
		}
		if outcome != nil {
			t.Errorf("key %q: expected no outcome", key)
		}
	}
	if requests.Load() != 0 {
		t.Errorf("expected zero requests before credential validation, saw %d", requests.Load())
	}
}

func TestRun_DedupAcrossQueriesAndPages(t *testing.T) {
	silenceSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("q") == "first" && q.Get("pageToken") == "":
			fmt.Fprint(w, itemsPage("p2", fmt.Sprintf(riskyItem, "vidA"), fmt.Sprintf(riskyItem, "vidB")))
		case q.Get("q") == "first" && q.Get("pageToken") == "p2":
			// vidB repeats across pages.
			fmt.Fprint(w, itemsPage("", fmt.Sprintf(riskyItem, "vidB"), fmt.Sprintf(riskyItem, "vidC")))
		default:
			// vidA repeats across queries.
			fmt.Fprint(w, itemsPage("", fmt.Sprintf(riskyItem, "vidA")))
		}
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}

	seen := make(map[string]int)
	for _, c := range outcome.Candidates {
		seen[c.VideoID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("video %s appears %d times in the outcome", id, n)
		}
	}
	if len(outcome.Candidates) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(outcome.Candidates))
	}
}

func TestRun_PaginationCap(t *testing.T) {
	silenceSleep(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		// Always hand back another page token.
		fmt.Fprint(w, itemsPage("next", fmt.Sprintf(riskyItem, fmt.Sprintf("vid%d", n))))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.API.MaxPages = 2
	p := New(cfg)
	if _, err := p.Run(context.Background(), []string{"query"}); err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected the pagination cap to stop at 2 pages, saw %d requests", got)
	}
}

func TestRun_ItemsMissingIdentitySkipped(t *testing.T) {
	silenceSleep(t)

	noID := `{"id":{},"snippet":{"title":"Felix house address Seoul","description":"spotted outside"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, itemsPage("", noID, fmt.Sprintf(riskyItem, "vidZ")))
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"query"})
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if len(outcome.Candidates) != 1 || outcome.Candidates[0].VideoID != "vidZ" {
		t.Fatalf("expected only the identified item, got %+v", outcome.Candidates)
	}
}

func TestRun_EmptyItemsEndsQuery(t *testing.T) {
	silenceSleep(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer server.Close()

	p := New(testConfig(server.URL))
	outcome, err := p.Run(context.Background(), []string{"query"})
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("an empty page ends the query; saw %d requests", requests.Load())
	}
	if outcome.RequestFailures != 0 {
		t.Errorf("empty page is not a failure, got %d", outcome.RequestFailures)
	}
}

func TestRun_CandidateFields(t *testing.T) {
	silenceSleep(t)

	long := `{"id":{"videoId":"vidL"},"snippet":{"title":"Felix &amp; the house address Seoul Gangnam-gu district apartment building tour with a very long title that keeps going on and on and on","description":"spotted outside 25 minutes gps 37.5172, 127.0473"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, itemsPage("", long))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	p := New(cfg)
	before := time.Now()
	outcome, err := p.Run(context.Background(), []string{"seed query"})
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if len(outcome.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(outcome.Candidates))
	}

	c := outcome.Candidates[0]
	if c.Query != "seed query" {
		t.Errorf("query = %q", c.Query)
	}
	if len([]rune(c.Title)) > cfg.Scoring.TitleMaxLen {
		t.Errorf("title not truncated: %d runes", len([]rune(c.Title)))
	}
	if c.Title[:7] != "Felix &" {
		t.Errorf("title should be HTML-unescaped, got %q", c.Title[:7])
	}
	if c.Severity != model.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL for coordinates plus address signals", c.Severity)
	}
	if c.Patterns["gps_coords"] != 1 {
		t.Errorf("gps_coords count = %d, want 1", c.Patterns["gps_coords"])
	}
	if c.CompositeScore < 0 || c.CompositeScore > 1 {
		t.Errorf("composite out of range: %v", c.CompositeScore)
	}
	if c.CapturedAt.Before(before) {
		t.Errorf("capture timestamp %v predates the run", c.CapturedAt)
	}
}

func TestRun_SortedDescendingStable(t *testing.T) {
	silenceSleep(t)

	medium := `{"id":{"videoId":"%s"},"snippet":{"title":"walking around the neighborhood","description":"felix house somewhere"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, itemsPage("",
			fmt.Sprintf(medium, "tie1"),
			fmt.Sprintf(riskyItem, "top"),
			fmt.Sprintf(medium, "tie2"),
		))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Scoring.MinScore = 0 // keep everything, we only test ordering
	p := New(cfg)
	outcome, err := p.Run(context.Background(), []string{"query"})
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if len(outcome.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(outcome.Candidates))
	}

	for i := 1; i < len(outcome.Candidates); i++ {
		if outcome.Candidates[i].CompositeScore > outcome.Candidates[i-1].CompositeScore {
			t.Fatalf("candidates not sorted descending at %d", i)
		}
	}
	if outcome.Candidates[0].VideoID != "top" {
		t.Errorf("highest scorer should rank first, got %s", outcome.Candidates[0].VideoID)
	}
	// Equal scores keep discovery order.
	tieFirst, tieSecond := outcome.Candidates[1], outcome.Candidates[2]
	if tieFirst.CompositeScore == tieSecond.CompositeScore &&
		(tieFirst.VideoID != "tie1" || tieSecond.VideoID != "tie2") {
		t.Errorf("tie order not stable: %s before %s", tieFirst.VideoID, tieSecond.VideoID)
	}
}

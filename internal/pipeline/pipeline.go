// Package pipeline drives the scan: paginated fetching, per-item scoring,
// run-scoped deduplication and final aggregation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fanshield/doxwatch/internal/model"
	"github.com/fanshield/doxwatch/internal/score"
	"github.com/fanshield/doxwatch/internal/textnorm"
)

// Pipeline owns one scan run. The similarity model is fitted once at
// construction and reused for every candidate.
type Pipeline struct {
	fetcher    *Fetcher
	rules      *score.RuleScorer
	similarity *score.SimilarityModel
	cfg        *model.Config

	now func() time.Time // test seam for capture timestamps
}

// New creates a pipeline with the built-in rule table and reference corpus.
func New(cfg *model.Config) *Pipeline {
	return NewWithCorpus(cfg, score.DefaultCorpus())
}

// NewWithCorpus creates a pipeline with an injected reference corpus, so a
// run's scoring policy is an explicit parameter rather than ambient state.
func NewWithCorpus(cfg *model.Config, corpus []string) *Pipeline {
	return &Pipeline{
		fetcher:    NewFetcher(cfg),
		rules:      score.NewRuleScorer(score.DefaultRules()),
		similarity: score.FitCorpus(corpus, score.DefaultStopWords()),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run processes the seed queries strictly in order, one outstanding
// request at a time, and returns the aggregated outcome.
//
// Error semantics: a missing/placeholder credential fails before any I/O.
// Quota denial halts all remaining fetching and returns the partial
// outcome together with ErrQuotaExhausted so the caller can persist it
// before surfacing the condition. Zero successful fetches combined with at
// least one recorded failure returns ErrAllRequestsFailed after every
// query was attempted. Everything else degrades to fewer results.
func (p *Pipeline) Run(ctx context.Context, queries []string) (*model.RunOutcome, error) {
	if p.cfg.API.Key == "" || p.cfg.API.Key == placeholderAPIKey {
		return nil, ErrMissingAPIKey
	}

	var (
		candidates      []model.Candidate
		seen            = make(map[string]struct{})
		quotaBlocked    bool
		anySucceeded    bool
		requestFailures int
	)

queries:
	for _, query := range queries {
		pageToken := ""
		for pages := 0; pages < p.cfg.API.MaxPages; pages++ {
			page, failures, err := p.fetcher.SearchPage(ctx, query, pageToken)
			requestFailures += failures
			if err != nil {
				if errors.Is(err, ErrQuotaExhausted) {
					fmt.Fprintf(os.Stderr, "Warning: quota/forbidden for query %q, halting remaining queries\n", query)
					quotaBlocked = true
					break queries
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				// Abandon this query only; a later query may still succeed.
				fmt.Fprintf(os.Stderr, "Warning: query %q abandoned: %v\n", query, err)
				break
			}

			if page.Items == nil {
				fmt.Fprintf(os.Stderr, "Warning: no items field in response for query %q\n", query)
				break
			}
			if len(*page.Items) == 0 {
				break
			}

			anySucceeded = true
			for _, item := range *page.Items {
				if c, ok := p.scoreItem(query, item, seen); ok {
					candidates = append(candidates, c)
				}
			}

			pageToken = page.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	outcome := Finalize(candidates, p.cfg.Scoring.MinScore, RunFlags{
		QuotaBlocked:        quotaBlocked,
		AnyRequestSucceeded: anySucceeded,
		RequestFailures:     requestFailures,
	})

	if !anySucceeded && requestFailures > 0 {
		return nil, fmt.Errorf("%w (%d failures)", ErrAllRequestsFailed, requestFailures)
	}
	if quotaBlocked {
		return outcome, ErrQuotaExhausted
	}
	return outcome, nil
}

// scoreItem normalizes and scores one search result. Items without a
// usable identity or already seen in this run are skipped; the seen set is
// the dedup index, owned by this single control loop.
func (p *Pipeline) scoreItem(query string, item searchItem, seen map[string]struct{}) (model.Candidate, bool) {
	id := item.ID.VideoID
	if id == "" {
		return model.Candidate{}, false
	}
	if _, dup := seen[id]; dup {
		return model.Candidate{}, false
	}
	seen[id] = struct{}{}

	text := strings.TrimSpace(textnorm.Normalize(item.Snippet.Title) + " " + textnorm.Normalize(item.Snippet.Description))

	ruleScore, counts := p.rules.Score(text)
	mlScore := p.similarity.Score(text)
	composite, severity := score.Classify(ruleScore, mlScore)

	return model.Candidate{
		Query:          query,
		VideoID:        id,
		Title:          truncate(html.UnescapeString(item.Snippet.Title), p.cfg.Scoring.TitleMaxLen),
		MLScore:        round3(mlScore),
		RuleScore:      round3(ruleScore),
		CompositeScore: round3(composite),
		Severity:       severity,
		Patterns:       counts,
		CapturedAt:     p.now(),
	}, true
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

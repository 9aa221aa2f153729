package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fanshield/doxwatch/internal/llm"
	"github.com/fanshield/doxwatch/internal/model"
	"github.com/fanshield/doxwatch/internal/pipeline"
	"github.com/fanshield/doxwatch/internal/report"
)

var (
	queries     []string
	queriesFile string
	outDir      string
	minScore    float64
	maxPages    int
	httpTimeout time.Duration
	noCache     bool
	llmEnabled  bool
	llmModel    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the search API for the seed queries and write a ranked report",
	Long: `Scan runs one bounded batch pass:
- Fetch paginated search results for every seed query, in order
- Score each result's title and description (lexical rules + corpus similarity)
- Deduplicate by video id, filter by score threshold, rank by risk
- Write a timestamped CSV report and print the top hits

The API key is read from the YOUTUBE_API_KEY environment variable. A quota
block mid-run still writes the partial report before the run is reported
as aborted.

Example:
  doxwatch scan
  doxwatch scan -q "felix address seoul" -q "stray kids felix house"
  doxwatch scan --queries-file queries.txt --min-score 0.3 --llm`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "seed query (repeatable; default: built-in query list)")
	scanCmd.Flags().StringVar(&queriesFile, "queries-file", "", "file with one seed query per line")
	scanCmd.Flags().StringVar(&outDir, "out-dir", "", "reports directory (default: ./reports)")
	scanCmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum composite score for the report (default: 0.25)")
	scanCmd.Flags().IntVar(&maxPages, "max-pages", 0, "pagination cap per query (default: 2)")
	scanCmd.Flags().DurationVar(&httpTimeout, "timeout", 10*time.Second, "per-request HTTP timeout")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-run page cache")

	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate an LLM triage note (requires OPENAI_API_KEY)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Queries: %d\n", len(cfg.Queries))
		fmt.Fprintf(os.Stderr, "Pages per query: %d, page size: %d\n", cfg.API.MaxPages, cfg.API.MaxResults)
		fmt.Fprintf(os.Stderr, "Score threshold: %.2f\n", cfg.Scoring.MinScore)
		fmt.Fprintln(os.Stderr)
	}

	// No run-level deadline: the only per-request bound is the HTTP timeout.
	p := pipeline.New(cfg)
	outcome, err := p.Run(context.Background(), cfg.Queries)

	switch {
	case errors.Is(err, pipeline.ErrQuotaExhausted) && outcome != nil:
		// Persist what we have before surfacing the abort.
		if persistErr := persist(outcome, cfg); persistErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to persist partial results: %v\n", persistErr)
		}
		return fmt.Errorf("scan aborted: %w (partial results saved)", err)
	case errors.Is(err, pipeline.ErrMissingAPIKey):
		return fmt.Errorf("%w: set YOUTUBE_API_KEY before running the scanner", err)
	case err != nil:
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(outcome.Candidates) == 0 {
		fmt.Println("No videos above the score threshold (check queries or lower --min-score).")
		return nil
	}

	if err := persist(outcome, cfg); err != nil {
		return err
	}

	if llmEnabled {
		triage(cmd.Context(), outcome, cfg)
	}
	return nil
}

func persist(outcome *model.RunOutcome, cfg *model.Config) error {
	if len(outcome.Candidates) == 0 {
		return nil
	}

	path, err := report.WriteCSV(outcome, cfg.Output.Dir, time.Now())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Saved %d hits to %s\n\n", len(outcome.Candidates), path)
	report.RenderSummary(os.Stdout, outcome, 10)
	return nil
}

// triage asks for an optional LLM note; any failure is a warning only.
func triage(ctx context.Context, outcome *model.RunOutcome, cfg *model.Config) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = llmModel
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")

	s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: LLM summarizer unavailable: %v\n", err)
		return
	}
	note, err := s.Summarize(ctx, outcome)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: LLM triage note failed: %v\n", err)
		return
	}
	fmt.Printf("\nTriage note:\n%s\n", note)
}

func buildConfig() (*model.Config, error) {
	cfg := loadConfig()

	cfg.API.Key = os.Getenv("YOUTUBE_API_KEY")
	cfg.HTTP.Timeout = httpTimeout
	cfg.Cache.Enabled = !noCache
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if minScore > 0 {
		cfg.Scoring.MinScore = minScore
	}
	if maxPages > 0 {
		cfg.API.MaxPages = maxPages
	}

	if queriesFile != "" {
		fromFile, err := readQueriesFile(queriesFile)
		if err != nil {
			return nil, err
		}
		cfg.Queries = fromFile
	}
	if len(queries) > 0 {
		cfg.Queries = queries
	}
	if len(cfg.Queries) == 0 {
		return nil, fmt.Errorf("no seed queries configured")
	}
	return cfg, nil
}

func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	return out, nil
}

// Package report persists run outcomes as timestamped CSV reports and
// renders terminal summaries. The filename embeds the capture time so the
// most recent report can be picked up later.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fanshield/doxwatch/internal/model"
)

const filenameTimeLayout = "20060102_1504"

var columns = []string{
	"query", "title", "video_id", "ml_score", "rule_score",
	"dox_score", "severity", "patterns", "timestamp",
}

// Filename returns the report filename for a capture time.
func Filename(ts time.Time) string {
	return fmt.Sprintf("dox_report_%s.csv", ts.Format(filenameTimeLayout))
}

// WriteCSV writes one row per candidate, already sorted by the aggregator,
// and returns the written path.
func WriteCSV(outcome *model.RunOutcome, dir string, ts time.Time) (path string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	path = filepath.Join(dir, Filename(ts))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close report: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, c := range outcome.Candidates {
		row := []string{
			c.Query,
			c.Title,
			c.VideoID,
			formatScore(c.MLScore),
			formatScore(c.RuleScore),
			formatScore(c.CompositeScore),
			string(c.Severity),
			formatPatterns(c.Patterns),
			c.CapturedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}
	return path, nil
}

// RenderSummary prints the run outcome and top hits to the given writer.
func RenderSummary(w io.Writer, outcome *model.RunOutcome, topN int) {
	if len(outcome.Candidates) == 0 {
		fmt.Fprintln(w, "No results above the score threshold.")
		return
	}

	fmt.Fprintf(w, "Found %d suspicious videos.\n\n", len(outcome.Candidates))
	fmt.Fprintf(w, "  %-8s  %-8s  %-11s  %s\n", "SCORE", "SEVERITY", "VIDEO", "TITLE")
	for i, c := range outcome.Candidates {
		if i >= topN {
			fmt.Fprintf(w, "  ... and %d more\n", len(outcome.Candidates)-topN)
			break
		}
		title := c.Title
		if len([]rune(title)) > 60 {
			title = string([]rune(title)[:57]) + "..."
		}
		fmt.Fprintf(w, "  %-8s  %-8s  %-11s  %s\n", formatScore(c.CompositeScore), c.Severity, c.VideoID, title)
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// formatPatterns renders match counts deterministically, e.g.
// "gps_coords:1;residence_terms:2".
func formatPatterns(patterns map[string]int) string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, patterns[name]))
	}
	return strings.Join(parts, ";")
}

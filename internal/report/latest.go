package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Latest returns the path of the most recent report in dir, judged by the
// timestamp embedded in the filename.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "dox_report_*.csv"))
	if err != nil {
		return "", fmt.Errorf("list reports: %w", err)
	}

	var (
		best   string
		bestTS time.Time
	)
	for _, path := range matches {
		ts, err := parseFilename(filepath.Base(path))
		if err != nil {
			continue
		}
		if best == "" || ts.After(bestTS) {
			best, bestTS = path, ts
		}
	}
	if best == "" {
		return "", fmt.Errorf("no reports found in %s", dir)
	}
	return best, nil
}

// ReadRows reads a report back, returning the header row followed by the
// data rows.
func ReadRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return rows, nil
}

func parseFilename(name string) (time.Time, error) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "dox_report_"), ".csv")
	return time.Parse(filenameTimeLayout, stamp)
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fanshield/doxwatch/internal/report"
)

var (
	reportDir string
	reportTop int
)

// reportCmd shows the most recent saved report, so findings can be
// reviewed without re-spending API quota.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the most recent scan report",
	Long: `Report finds the newest dox_report_*.csv in the reports directory
(by the timestamp embedded in the filename) and prints its top rows.

Example:
  doxwatch report
  doxwatch report --dir ./reports --top 20`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDir, "dir", "", "reports directory (default: ./reports)")
	reportCmd.Flags().IntVar(&reportTop, "top", 10, "number of rows to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	dir := reportDir
	if dir == "" {
		dir = loadConfig().Output.Dir
	}

	path, err := report.Latest(dir)
	if err != nil {
		return err
	}
	rows, err := report.ReadRows(path)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		fmt.Printf("%s is empty.\n", path)
		return nil
	}

	fmt.Printf("Latest report: %s (%d rows)\n\n", path, len(rows)-1)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSEVERITY\tVIDEO\tQUERY\tTITLE")
	for i, row := range rows[1:] {
		if i >= reportTop {
			fmt.Fprintf(w, "... and %d more\n", len(rows)-1-reportTop)
			break
		}
		// Columns: query, title, video_id, ml, rule, dox, severity, patterns, ts
		title := row[1]
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row[5], row[6], row[2], row[0], title)
	}
	return w.Flush()
}

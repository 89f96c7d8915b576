package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/feed"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
)

var (
	searchOut     string
	searchAll     bool
	searchTimeout time.Duration
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <request.json>",
	Short: "Search the case-law database for authority on a question",
	Long: `Search plans a tiered search for the request's forum (binding courts,
then persuasive courts, then everything), runs it under a global time
budget and ranks the candidates by jurisdiction, relevance and recency.

Example:
  citecheck search request.json
  citecheck search request.json --all --out candidates.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchOut, "out", "o", "-", "JSON result path (- for stdout)")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "keep candidates below the ranking threshold")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 10*time.Minute, "total timeout for the search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := feed.LoadSearch(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()
	serveMetrics(ctx, cfg.Output.MetricsAddr)

	engine, err := pipeline.New(ctx, cfg, pipeline.ModeSearch, logger)
	if err != nil {
		return credentialHint(err)
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "⚙️  Searching for %q...\n", req.Query)
	res, err := engine.Search(ctx, req, searchAll)
	if err != nil {
		return err
	}

	if err := engine.Renderer().RenderJSON(res, searchOut); err != nil {
		return err
	}
	if searchOut != "-" {
		s := res.Summary
		fmt.Fprintf(os.Stderr, "\n  Tasks:        %d/%d completed (%d failed)\n", s.Completed, s.TotalTasks, s.Failed)
		if s.AbortReason != "" {
			fmt.Fprintf(os.Stderr, "  Stopped:      %s\n", s.AbortReason)
		}
		printRanked(os.Stderr, res.Candidates, 10)
		fmt.Fprintf(os.Stderr, "  Below threshold: %d\n\n", res.Rejected)
		fmt.Fprintf(os.Stderr, "✓ Results: %s\n", searchOut)
	}
	return nil
}

// printRanked prints the top n scored candidates as an aligned list
func printRanked(w io.Writer, ranked []model.ScoredCandidate, n int) {
	fmt.Fprintf(w, "\n")
	if len(ranked) == 0 {
		fmt.Fprintf(w, "  No candidates.\n\n")
		return
	}
	for i, sc := range ranked {
		if i == n {
			fmt.Fprintf(w, "  ... %d more\n", len(ranked)-n)
			break
		}
		mark := "✓"
		if !sc.Score.Passed {
			mark = "✗"
		}
		c := sc.Candidate
		fmt.Fprintf(w, "  %s %.2f  %s", mark, sc.Score.Composite, c.CaseName)
		if c.Citation != "" {
			fmt.Fprintf(w, ", %s", c.Citation)
		}
		if !c.DateFiled.IsZero() {
			fmt.Fprintf(w, " (%s %d)", c.CourtID, c.DateFiled.Year())
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "\n")
}

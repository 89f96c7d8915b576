package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/feed"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/score"
)

var bankOut string

// bankCmd represents the bank command
var bankCmd = &cobra.Command{
	Use:   "bank <candidates.json>",
	Short: "Score candidates into a citation bank",
	Long: `Bank scores a set of candidate authorities with the component model
(proposition overlap, statutes, posture keywords, red flags) and keeps
those at or above the bank threshold.

No network access is needed.

Example:
  citecheck bank candidates.json
  citecheck bank candidates.json --out bank.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBank,
}

func init() {
	rootCmd.AddCommand(bankCmd)
	bankCmd.Flags().StringVarP(&bankOut, "out", "o", "", "write the bank as JSON to this path (- for stdout)")
}

// Bank is a scored citation bank
type Bank struct {
	GeneratedAt time.Time               `json:"generated_at"`
	MotionType  string                  `json:"motion_type"`
	Accepted    []model.ScoredCandidate `json:"accepted"`
	Rejected    []model.ScoredCandidate `json:"rejected"`
}

func runBank(cmd *cobra.Command, args []string) error {
	set, err := feed.LoadCandidates(args[0])
	if err != nil {
		return err
	}
	bank := buildBank(set, time.Now())

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Citation bank: %d accepted, %d rejected\n", len(bank.Accepted), len(bank.Rejected))
	printRanked(w, append(append([]model.ScoredCandidate{}, bank.Accepted...), bank.Rejected...), len(set.Candidates))

	if bankOut == "" {
		return nil
	}
	r := pipeline.NewRenderer()
	if err := r.RenderJSON(bank, bankOut); err != nil {
		return err
	}
	if bankOut != "-" {
		fmt.Fprintf(os.Stderr, "✓ Bank: %s\n", bankOut)
	}
	return nil
}

func buildBank(set *feed.CandidateSet, now time.Time) Bank {
	ranked := score.Rank(score.NewComponent(), set.Candidates, set.ScoringContext(now, courts.Default()))
	accepted, rejected := score.Partition(ranked)
	return Bank{
		GeneratedAt: now,
		MotionType:  set.MotionType,
		Accepted:    accepted,
		Rejected:    rejected,
	}
}

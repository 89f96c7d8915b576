package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/strength"
)

var strengthInputs model.StrengthInputs

// strengthCmd represents the strength command
var strengthCmd = &cobra.Command{
	Use:   "strength",
	Short: "Score precedential strength from citing-network counts",
	Long: `Strength classifies a case's stability and computes its 0-100 authority
score from counts you already have. The score is informational and never
changes a verification outcome.

Example:
  citecheck strength --age 55 --total 2400 --recent 140
  citecheck strength --age 12 --total 80 --recent 3 --distinguished 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strengthInputs.AgeYears < 0 || strengthInputs.TotalCitations < 0 || strengthInputs.Recent5Y < 0 ||
			strengthInputs.Distinguished < 0 || strengthInputs.Criticism < 0 {
			return fmt.Errorf("counts must not be negative")
		}
		if strengthInputs.Recent5Y > strengthInputs.TotalCitations {
			return fmt.Errorf("--recent (%d) exceeds --total (%d)", strengthInputs.Recent5Y, strengthInputs.TotalCitations)
		}
		printAssessment(cmd.OutOrStdout(), strength.Assess(strengthInputs, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strengthCmd)

	f := strengthCmd.Flags()
	f.IntVar(&strengthInputs.AgeYears, "age", 0, "years since decision")
	f.IntVar(&strengthInputs.TotalCitations, "total", 0, "total citing opinions")
	f.IntVar(&strengthInputs.Recent5Y, "recent", 0, "citing opinions in the last five years")
	f.IntVar(&strengthInputs.Distinguished, "distinguished", 0, "citing opinions that distinguish the case")
	f.IntVar(&strengthInputs.Criticism, "criticism", 0, "citing opinions that criticize or question it")
}

func printAssessment(w io.Writer, a model.StrengthAssessment) {
	fmt.Fprintf(w, "  Stability:    %s\n", a.Stability)
	fmt.Fprintf(w, "  Score:        %d/100\n", a.Score)
	fmt.Fprintf(w, "  Trend:        %s\n", a.Trend)
	fmt.Fprintf(w, "  Distinguish:  %.1f%%\n", a.Inputs.DistinguishRate*100)

	keys := make([]string, 0, len(a.Components))
	for k := range a.Components {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-10s %+.1f\n", k, a.Components[k])
	}
}

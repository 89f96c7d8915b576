package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

// Renderer writes reports to files or streams
type Renderer struct {
	stdout io.Writer
}

// NewRenderer creates a renderer printing to stdout
func NewRenderer() *Renderer {
	return &Renderer{stdout: os.Stdout}
}

// RenderJSON writes v as indented JSON to path; "-" means stdout
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = r.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the batch report as Markdown to path
func (r *Renderer) RenderMarkdown(report model.BatchReport, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(report)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a short batch summary
func (r *Renderer) RenderSummary(report model.BatchReport) {
	s := report.Summary
	fmt.Fprintf(r.stdout, "\n")
	fmt.Fprintf(r.stdout, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(r.stdout, "  Citation Check Complete\n")
	fmt.Fprintf(r.stdout, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(r.stdout, "\n")
	fmt.Fprintf(r.stdout, "  Citations:    %d\n", s.Total)
	for _, st := range []model.Status{model.StatusVerified, model.StatusFlagged, model.StatusRejected, model.StatusBlocked} {
		fmt.Fprintf(r.stdout, "  %-13s %d\n", string(st)+":", s.ByStatus[st])
	}
	fmt.Fprintf(r.stdout, "  Confidence:   %.2f avg\n", s.AverageConfidence)
	fmt.Fprintf(r.stdout, "  Cache hits:   %d\n", s.CacheHits)
	fmt.Fprintf(r.stdout, "  Errors:       %d\n", s.Errors)
	fmt.Fprintf(r.stdout, "  AI calls:     %d / %d / %d (primary / adversarial / aux)\n",
		s.Usage.Stage1Calls, s.Usage.Stage2Calls, s.Usage.AuxCalls)
	fmt.Fprintf(r.stdout, "  Est. cost:    $%.4f\n", s.EstimatedCostUSD)
	fmt.Fprintf(r.stdout, "  Duration:     %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.stdout, "\n")
}

// Markdown formats a batch report for review
func Markdown(report model.BatchReport) string {
	var b strings.Builder

	b.WriteString("# Citation Check Report\n\n")
	if report.MotionType != "" {
		fmt.Fprintf(&b, "Motion: %s  \n", report.MotionType)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	b.WriteString("| # | Citation | Status | Action | Confidence | Flags |\n")
	b.WriteString("|---|----------|--------|--------|------------|-------|\n")
	for i, run := range report.Results {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f | %s |\n",
			i+1,
			cell(citationLabel(run.Citation)),
			run.Composite.Status,
			run.Composite.Action,
			run.Composite.Confidence,
			cell(strings.Join(run.Composite.Flags, ", ")))
	}

	var review []model.VerificationRun
	for _, run := range report.Results {
		if run.Composite.Status != model.StatusVerified {
			review = append(review, run)
		}
	}
	if len(review) > 0 {
		b.WriteString("\n## Needs attention\n")
		for _, run := range review {
			fmt.Fprintf(&b, "\n### %s\n\n", citationLabel(run.Citation))
			fmt.Fprintf(&b, "**%s → %s**", run.Composite.Status, run.Composite.Action)
			if run.Proposition.Text != "" {
				fmt.Fprintf(&b, " for: _%s_", run.Proposition.Text)
			}
			b.WriteString("\n\n")

			signals := append([]model.TreatmentSignal(nil), run.Signals...)
			sort.SliceStable(signals, func(i, j int) bool {
				return signals[i].Severity.Rank() > signals[j].Severity.Rank()
			})
			for _, s := range signals {
				fmt.Fprintf(&b, "- `%s` %s (step %d): %s\n", s.Severity, s.Protocol, s.Step, s.Message)
			}
			if run.Quote != nil && run.Quote.CorrectedQuote != "" {
				fmt.Fprintf(&b, "- Corrected quotation: \"%s\"\n", run.Quote.CorrectedQuote)
			}
			if run.Error != "" && len(signals) == 0 {
				fmt.Fprintf(&b, "- Error: %s\n", run.Error)
			}
		}
	}

	s := report.Summary
	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- Citations: %d (%d verified, %d flagged, %d rejected, %d blocked)\n",
		s.Total, s.ByStatus[model.StatusVerified], s.ByStatus[model.StatusFlagged],
		s.ByStatus[model.StatusRejected], s.ByStatus[model.StatusBlocked])
	fmt.Fprintf(&b, "- Average confidence: %.2f\n", s.AverageConfidence)
	fmt.Fprintf(&b, "- Cache hits: %d, errors: %d\n", s.CacheHits, s.Errors)
	fmt.Fprintf(&b, "- Estimated AI cost: $%.4f\n", s.EstimatedCostUSD)
	return b.String()
}

func citationLabel(c model.Citation) string {
	if c.Parsed.CaseName != "" && c.Normalized != "" {
		return c.Parsed.CaseName + ", " + c.Normalized
	}
	if c.Normalized != "" {
		return c.Normalized
	}
	return c.Raw
}

// cell escapes a Markdown table cell
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

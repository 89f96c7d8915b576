package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/feed"
	"github.com/ppiankov/citecheck/internal/pipeline"
)

var (
	verifyOut         string
	verifyMarkdown    string
	verifyConcurrency int
	verifyTimeout     time.Duration
	noCache           bool
	storePath         string
	overridesFile     string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <feed.json>",
	Short: "Verify every citation in a filing's citation feed",
	Long: `Verify runs each citation of the feed through the pipeline:
- Existence in the case-law database (lookup, opinion search, dockets)
- Quote accuracy against the opinion text
- Holding support, reviewed by a primary and an adversarial AI vendor
- Holding versus dicta for the quoted passage
- Bad-law status (curated overrides, treatment analysis)
- Precedential strength

Example:
  citecheck verify feed.json
  citecheck verify feed.json --out report.json --md report.md
  citecheck verify feed.json --concurrency 3 --timeout 20m --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyOut, "out", "o", "-", "JSON report path (- for stdout)")
	verifyCmd.Flags().StringVar(&verifyMarkdown, "md", "", "also write a Markdown report to this path")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 0, "citations verified at once (default from config)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Minute, "total timeout for the feed")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results and verify fresh")
	verifyCmd.Flags().StringVar(&storePath, "store", "", "SQLite store path (default from config)")
	verifyCmd.Flags().StringVar(&overridesFile, "overrides", "", "curated bad-law overrides file (YAML)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if verifyConcurrency > 0 {
		cfg.Concurrency.Citations = verifyConcurrency
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if overridesFile != "" {
		cfg.Store.OverridesFile = overridesFile
	}

	fd, err := feed.Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()
	serveMetrics(ctx, cfg.Output.MetricsAddr)

	engine, err := pipeline.New(ctx, cfg, pipeline.ModeVerify, logger)
	if err != nil {
		return credentialHint(err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			logger.Warn("close store", zap.Error(cerr))
		}
	}()

	fmt.Fprintf(os.Stderr, "⚙️  Verifying %d citations (%s)...\n", len(fd.Citations), fd.MotionType)

	report, err := engine.VerifyFeed(ctx, fd)
	if err != nil && !errors.Is(err, pipeline.ErrNothingVerifiable) {
		return err
	}

	renderer := engine.Renderer()
	if rerr := renderer.RenderJSON(report, verifyOut); rerr != nil {
		return rerr
	}
	if verifyMarkdown != "" {
		if rerr := renderer.RenderMarkdown(report, verifyMarkdown); rerr != nil {
			return rerr
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", verifyMarkdown)
	}
	if verifyOut != "-" {
		renderer.RenderSummary(report)
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", verifyOut)
	}

	// A report is still written when every citation failed
	return err
}

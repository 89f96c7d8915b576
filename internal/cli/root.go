package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
)

const version = "citecheck v0.3.0"

var (
	cfgFile     string
	verbose     bool
	jsonLogs    bool
	metricsAddr string

	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "citecheck",
	Short: "citecheck - citation integrity checks for legal filings",
	Long: `citecheck checks the citations in a legal filing before it is filed.

For every citation it confirms the case exists, that quoted language
appears in the opinion, that the case supports the proposition it is
cited for, and that it is still good law. Two independent AI vendors
review each holding so one model's mistake cannot pass unchallenged.

It can also search the case-law database for authority on a question
and rank the candidates for the forum.

citecheck reports; counsel decides.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose, jsonLogs)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.citecheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	_ = viper.BindPFlag("output.metrics_addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".citecheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CITECHECK_VERIFY_RESULT_TTL overrides verify.result_ttl
	viper.SetEnvPrefix("CITECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults and
// fills credentials from the conventional environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvCredentials(cfg, os.Getenv)
	return cfg, nil
}

func applyEnvCredentials(cfg *model.Config, getenv func(string) string) {
	if cfg.CaseLaw.APIToken == "" {
		cfg.CaseLaw.APIToken = getenv("COURTLISTENER_API_TOKEN")
	}
	applyVendorEnv(&cfg.LLM.Primary, getenv)
	applyVendorEnv(&cfg.LLM.Adversarial, getenv)
}

func applyVendorEnv(v *model.VendorConfig, getenv func(string) string) {
	switch strings.ToLower(strings.TrimSpace(v.Provider)) {
	case "openai":
		if v.APIKey == "" {
			v.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if v.APIKey == "" {
			v.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if baseURL := getenv("OLLAMA_BASE_URL"); baseURL != "" && v.BaseURL == "" {
			v.BaseURL = baseURL
		}
	}
}

// credentialHint turns a missing-credential failure into an actionable message
func credentialHint(err error) error {
	if !errors.Is(err, model.ErrMissingCredentials) {
		return err
	}
	return fmt.Errorf("%w\n\nSet COURTLISTENER_API_TOKEN for case-law access and the key for each AI vendor\n(OPENAI_API_KEY, ANTHROPIC_API_KEY), or point a vendor at Ollama", err)
}

// serveMetrics exposes the metrics endpoint until ctx is done
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, addr, logger); err != nil {
			logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

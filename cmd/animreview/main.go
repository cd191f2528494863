package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"animreview/internal/config"
	"animreview/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	baseFile   string
	workers    int

	// check / compare flags
	outFormat    string
	withDiffs    bool
	renderOutput bool

	// root flags
	validateOnly bool
	noWatch      bool

	// config init
	forceInit bool

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "animreview [directory]",
	Short: "Review animation script submissions against the base template",
	Long: `animreview validates student animation scripts (animations-*.js) against the
required template vocabulary and scores how far each one has moved from the base
animations.js.

Run without flags to open the interactive reviewer. Use --validate (or the check
command) for a plain console report.

Examples:
  animreview static/
  animreview --validate static/
  animreview compare static/animations-GRP08E.js --diffs`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&baseFile, "base", "", "Base animations.js (default: <directory>/animations.js)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent reviews (default: config or GOMAXPROCS)")

	rootCmd.Flags().BoolVar(&validateOnly, "validate", false, "Print the console report instead of opening the UI")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not refresh when files change")
	addReportFlags(rootCmd)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(configCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outFormat, "format", "f", "text", "Output format: text, markdown, json")
	cmd.Flags().BoolVar(&withDiffs, "diffs", false, "Include line diffs of modified functions")
	cmd.Flags().BoolVar(&renderOutput, "render", false, "Render markdown output for the terminal")
}

// setup loads config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baseFile != "" {
		loaded.Review.BaseFile = baseFile
	}
	if workers != 0 {
		loaded.Review.Workers = workers
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	// The interactive reviewer owns the terminal; log only to a file there.
	interactive := cmd.Name() == "animreview" && !validateOnly
	if interactive && cfg.Logging.File == "" {
		logger = zap.NewNop()
		return nil
	}

	logger, err = logging.New(cfg.Logging.Options(verbose))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Named(logger, logging.CategoryBoot).Debug("Config loaded",
		zap.String("path", configPath),
		zap.String("directory", cfg.Review.Directory),
		zap.String("base", cfg.BasePath()))
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if validateOnly {
		return runCheck(cmd, args)
	}
	return runInteractive(cmd, args)
}

// activeConfig returns a copy of the loaded config, defaults when unset.
func activeConfig() config.Config {
	if cfg == nil {
		return *config.DefaultConfig()
	}
	return *cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/anchorlint/anchorlint/internal/config"
	"github.com/anchorlint/anchorlint/internal/crawl"
	"github.com/anchorlint/anchorlint/internal/database"
	"github.com/anchorlint/anchorlint/internal/log"
	"github.com/anchorlint/anchorlint/internal/record"
	"github.com/anchorlint/anchorlint/internal/report"
)

// errChecksFailed signals that at least one seed produced check errors. The
// root command turns it into a non-zero process exit.
var errChecksFailed = errors.New("checks failed")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url]...",
		Short: "Crawl a website and verify link and anchor integrity",
		Long: `Check crawls a website starting from each seed URL and verifies:
- every internal link resolves without an HTTP or transport error
- every href fragment (href="/page#section") points to an element id or
  name declared on the target page
- page titles match the configured title pattern, when one is set

Examples:
  # Check a single site
  anchorlint check https://example.com/

  # Check several sites, two at a time
  anchorlint check --batch 2 https://a.example/ https://b.example/

  # Output a JSON report to a file
  anchorlint check --json --output report.json https://example.com/

  # Use a custom configuration file
  anchorlint check -c myconfig.yaml https://example.com/

Configuration file (.anchorlint) example:
  defaults:
    exclude:
      - "/drafts/*"
  sites:
    example.com:
      title_pattern: "^Example - "
      engine:
        headers:
          Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds checked concurrently")
	cmd.Flags().Duration("spool-interval", 0,
		"Interval for logging queued-but-unfetched URLs (0 disables)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .anchorlint in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Crawl log flags
	cmd.Flags().Bool("save-db", false,
		"Log fetched pages and the report to a SQLite database")
	cmd.Flags().String("db-dir", "",
		"Directory for the crawl-log database (default: XDG data directory)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context cancelled on interrupt so a stuck crawl can be abandoned.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCheck(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seeds = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB, err = cmd.Flags().GetBool("save-db")
	if err != nil {
		return nil, err
	}
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	spoolInterval, err := cmd.Flags().GetDuration("spool-interval")
	if err != nil {
		return nil, err
	}

	// Load site-specific configuration. An explicitly given path that does
	// not exist is an error; an absent default file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if spoolInterval > 0 {
		cfg.File.Defaults.SpoolInterval = spoolInterval
	}

	return cfg, nil
}

// runCheck executes the check over every seed.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting check",
		"seeds", cfg.Seeds,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.PageLog
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if len(cfg.Seeds) > 1 && cfg.BatchSize > 1 {
		return runBatchCheck(ctx, cfg, db, logger)
	}
	return runSequentialCheck(ctx, cfg, db, logger)
}

// runSequentialCheck checks seeds one at a time.
func runSequentialCheck(ctx context.Context, cfg *config.Config, db *database.PageLog, logger *slog.Logger) error {
	totalErrors := 0
	for _, seed := range cfg.Seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Checking %s...\n", seed)
		startTime := time.Now()

		rep, err := checkSeed(ctx, cfg, db, logger, seed)
		if err != nil {
			return err
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Check completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, rep); err != nil {
			return fmt.Errorf("failed to output report for %s: %w", seed, err)
		}
		totalErrors += rep.ErrorCount()
	}

	if totalErrors > 0 {
		return fmt.Errorf("%w: %d error(s)", errChecksFailed, totalErrors)
	}
	return nil
}

// runBatchCheck checks several seeds concurrently, bounded by the batch size.
// Every seed is checked even when earlier seeds fail their checks; only
// operational errors abort the batch.
func runBatchCheck(ctx context.Context, cfg *config.Config, db *database.PageLog, logger *slog.Logger) error {
	fmt.Printf("Starting batch check of %d seeds (concurrency: %d)...\n\n",
		len(cfg.Seeds), cfg.BatchSize)

	startTime := time.Now()

	var totalErrors atomic.Int64
	var outputMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(cfg.BatchSize)

	for _, seed := range cfg.Seeds {
		g.Go(func() error {
			rep, err := checkSeed(ctx, cfg, db, logger, seed)
			if err != nil {
				return err
			}

			outputMu.Lock()
			defer outputMu.Unlock()
			if err := outputReport(cfg, rep); err != nil {
				return fmt.Errorf("failed to output report for %s: %w", seed, err)
			}
			totalErrors.Add(int64(rep.ErrorCount()))
			return nil
		})
	}

	err := g.Wait()
	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch check completed in %s\n", elapsed.Round(time.Millisecond))

	if err != nil {
		return err
	}
	if n := totalErrors.Load(); n > 0 {
		return fmt.Errorf("%w: %d error(s)", errChecksFailed, n)
	}
	return nil
}

// checkSeed runs one crawl and returns its finalized report.
func checkSeed(ctx context.Context, cfg *config.Config, db *database.PageLog, logger *slog.Logger, seed string) (*record.Report, error) {
	site, err := siteConfigFor(cfg, seed)
	if err != nil {
		return nil, err
	}

	opts := []crawl.Option{crawl.WithLogger(logger)}

	var runID int64
	if db != nil {
		runID, err = db.BeginRun(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to begin database run: %w", err)
		}
		opts = append(opts, crawl.WithFetchObserver(func(ev crawl.Event) {
			logErr := db.LogPage(ctx, &database.PageRecord{
				RunID:       runID,
				URL:         ev.URL,
				StatusCode:  ev.Status,
				ContentType: ev.ContentType,
				Title:       ev.Title,
			})
			if logErr != nil {
				logger.Warn("failed to log page", "url", ev.URL, "error", logErr)
			}
		}))
	}

	runner, err := crawl.NewRunner(seed, site, opts...)
	if err != nil {
		return nil, err
	}

	rep, runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Warn("crawl interrupted", "seed", seed, "error", runErr)
	}

	if db != nil {
		if err := db.CompleteRun(ctx, runID, rep); err != nil {
			logger.Warn("failed to store report", "seed", seed, "error", err)
		}
	}

	return rep, nil
}

// siteConfigFor resolves the effective site configuration for a seed URL.
func siteConfigFor(cfg *config.Config, seed string) (config.SiteConfig, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return config.SiteConfig{}, fmt.Errorf("invalid seed URL %q: %w", seed, err)
	}
	if cfg.File == nil {
		return config.SiteConfig{}, nil
	}
	return cfg.File.SiteFor(u.Host), nil
}

// outputReport writes the report in the requested format to the requested
// destination.
func outputReport(cfg *config.Config, rep *record.Report) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(rep)
	return err
}

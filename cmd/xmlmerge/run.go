package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/credentials"
	"github.com/nao1215/xmlmerge/internal/database"
	"github.com/nao1215/xmlmerge/internal/log"
	"github.com/nao1215/xmlmerge/internal/model"
	"github.com/nao1215/xmlmerge/internal/pipeline"
	"github.com/nao1215/xmlmerge/internal/publish"
	"github.com/nao1215/xmlmerge/internal/report"
	"github.com/nao1215/xmlmerge/internal/transport"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [feed-url...]",
		Short: "Fetch, merge and publish XML product feeds",
		Long: `Run downloads every feed, merges their product elements into one
<products> catalog and publishes it.

Feeds are merged in the order given. A feed that cannot be downloaded or is
not well-formed XML is skipped with a warning. When no feed is valid the run
stops before contacting the destination and exits with an error.

Credentials are taken from the configuration file and XMLMERGE_PASSWORD.
When they are incomplete and stdin is a terminal, xmlmerge asks for them.

Examples:
  # Merge two feeds using destination settings from .xmlmerge.yaml
  xmlmerge run https://example.com/a.xml https://example.com/b.xml

  # Upload to a specific FTP host and directory
  xmlmerge run --host ftp.example.com --user shop --directory /public_html/

  # Fetch four feeds at a time and write a JSON report
  xmlmerge run -n 4 --json -o report.json

  # Write the catalog to a local directory instead of uploading it
  xmlmerge run --kind file --directory ./out

  # Route feeds and the upload through a SOCKS5 proxy
  xmlmerge run --proxy 127.0.0.1:1080`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .xmlmerge.yaml in current, XDG config or home directory)")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each feed request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of feeds fetched at the same time")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with feed requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum feed size in bytes")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for feeds and the publish session (e.g., 127.0.0.1:1080)")

	// Destination flags
	cmd.Flags().StringP("kind", "k", string(config.DestinationFTP),
		"Destination kind: ftp, s3 or file")
	cmd.Flags().StringP("host", "H", "",
		"FTP host or S3 endpoint")
	cmd.Flags().IntP("port", "P", config.DefaultFTPPort,
		"FTP control port")
	cmd.Flags().StringP("user", "u", "",
		"FTP user or S3 access key")
	cmd.Flags().StringP("directory", "d", "",
		"Remote directory, S3 key prefix or local directory")
	cmd.Flags().String("bucket", "",
		"S3 bucket")
	cmd.Flags().String("region", "",
		"S3 region")
	cmd.Flags().StringP("filename", "f", config.DefaultFilename,
		"Name of the published catalog")
	cmd.Flags().Duration("publish-timeout", config.DefaultPublishTimeout,
		"Timeout for the whole publish session")
	cmd.Flags().BoolP("interactive", "i", false,
		"Always ask for the destination credentials")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("history", false,
		"Record the run in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, os.Getenv)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, getBoolFlag(cmd, "log-json"))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runMerge(ctx, cfg, runEnv{
		logger:   logger,
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
		terminal: credentials.IsTerminal(os.Stdin),
	})
}

// getBoolFlag retrieves a boolean flag from the command or its root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from the configuration file, cobra command
// flags, the environment and the positional feed URLs, in that order of
// increasing precedence.
func buildConfig(cmd *cobra.Command, args []string, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, run on defaults when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	config.ApplyEnv(cfg, getenv)

	if len(args) > 0 {
		cfg.Sources = append([]string(nil), args...)
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg. Flags left at their
// default do not override the configuration file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	var kind string
	if err := errors.Join(
		durationFlag(cmd, "timeout", &cfg.Timeout),
		intFlag(cmd, "concurrency", &cfg.Concurrency),
		stringFlag(cmd, "user-agent", &cfg.UserAgent),
		int64Flag(cmd, "max-body-size", &cfg.MaxBodySize),
		stringFlag(cmd, "proxy", &cfg.ProxyAddress),
		stringFlag(cmd, "kind", &kind),
		stringFlag(cmd, "host", &cfg.Destination.Host),
		intFlag(cmd, "port", &cfg.Destination.Port),
		stringFlag(cmd, "user", &cfg.Destination.User),
		stringFlag(cmd, "directory", &cfg.Destination.Directory),
		stringFlag(cmd, "bucket", &cfg.Destination.Bucket),
		stringFlag(cmd, "region", &cfg.Destination.Region),
		stringFlag(cmd, "filename", &cfg.Filename),
		durationFlag(cmd, "publish-timeout", &cfg.PublishTimeout),
		boolFlag(cmd, "interactive", &cfg.Interactive),
		boolFlag(cmd, "json", &cfg.JSONReport),
		boolFlag(cmd, "markdown", &cfg.MarkdownReport),
		stringFlag(cmd, "output", &cfg.ReportFile),
		boolFlag(cmd, "history", &cfg.History),
		stringFlag(cmd, "db-dir", &cfg.DBDir),
	); err != nil {
		return err
	}
	if kind != "" {
		cfg.Destination.Kind = config.DestinationKind(kind)
	}
	return nil
}

func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func intFlag(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func int64Flag(cmd *cobra.Command, name string, dst *int64) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt64(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the redacting structured logger on w.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// runEnv carries the process resources a run writes to.
type runEnv struct {
	logger *slog.Logger

	// stdout receives progress lines and the report.
	stdout io.Writer

	// stderr receives progress lines when the report itself goes to stdout.
	stderr io.Writer

	// terminal is true when the credential prompt can be answered.
	terminal bool
}

// runMerge executes one fetch, merge and publish run and reports it.
// The returned error is the pipeline error, so an aborted run exits non-zero.
func runMerge(ctx context.Context, cfg *config.Config, env runEnv) error {
	logger := env.logger
	logger.Info("starting run",
		"sources", len(cfg.Sources),
		"destination", cfg.Destination.EffectiveKind(),
		"concurrency", cfg.Concurrency,
		"history", cfg.History,
	)
	for _, src := range cfg.NonHTTPSources() {
		logger.Warn("source is not an absolute http or https URL and will be skipped", "url", src)
	}

	// Open the history database first so a bad --db-dir fails before any download.
	var db *database.HistoryDB
	if cfg.History {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "path", db.Path())
	}

	client, err := transport.NewClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create network client: %w", err)
	}

	if addr := client.ProxyAddress(); addr != "" {
		status := client.CheckConnection(ctx)
		if status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				status.Error(), addr)
		}
		logger.Info("proxy connection verified", "address", addr)
	}
	logger.Debug("network client ready", "proxy", client.ProxyAddress(), "timeout", client.Timeout())

	provider := credentials.Select(cfg.Destination, cfg.Interactive, env.terminal)
	router := publish.NewDefaultRouter(client, cfg.PublishTimeout, logger)

	// Keep stdout clean for a machine-readable report.
	progress := env.stdout
	if cfg.ReportFile == "" && (cfg.JSONReport || cfg.MarkdownReport) {
		progress = env.stderr
	}

	p := pipeline.DefaultPipeline(
		client.HTTPClient(),
		provider,
		router,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineTimeout(cfg.Timeout),
		pipeline.WithPipelineUserAgent(cfg.UserAgent),
		pipeline.WithPipelineMaxBodySize(cfg.MaxBodySize),
		pipeline.WithPipelineFilename(cfg.Filename),
		pipeline.WithPipelineOutput(progress),
	)
	logger.Info("pipeline ready", "steps", p.StepNames())

	runReport := model.NewRunReport(cfg.Sources)
	runErr := p.Execute(ctx, runReport)
	if runErr != nil {
		logger.Error("run failed", "run", runReport.ID, "error", runErr)
	}
	fmt.Fprintf(progress, "Run finished in %s\n\n", runReport.Duration().Round(time.Millisecond))

	if err := outputReport(cfg, runReport, env.stdout); err != nil {
		logger.Error("report failed", "run", runReport.ID, "error", err)
	}

	if err := saveRunReport(ctx, db, runReport, logger); err != nil {
		logger.Error("failed to save run", "run", runReport.ID, "error", err)
	}

	return runErr
}

// outputReport writes the run report in the requested format to stdout or
// to cfg.ReportFile. A JSON or Markdown report file is accompanied by the
// text summary on stdout.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports name the destination host and user, so keep them private.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.MarkdownReport) {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}

	_, err := w.Write(runReport)
	return err
}

// saveRunReport records the run when history is enabled. It runs even after
// an interrupt so that cancelled runs are recorded too.
func saveRunReport(ctx context.Context, db *database.HistoryDB, runReport *model.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveRun(context.WithoutCancel(ctx), runReport)
	if err != nil {
		return err
	}

	logger.Info("run saved to history", "id", id, "run", runReport.ID)
	return nil
}

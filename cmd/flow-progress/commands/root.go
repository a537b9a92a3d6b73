package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"flowprogress/internal/components/chrono"
	"flowprogress/internal/components/telemetry"
	"flowprogress/internal/progress"
	"flowprogress/internal/scrapers/flow"
	"flowprogress/internal/settings"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	format     string
	dumpDir    string
	verbose    bool
	noPrevious bool
}

// clockFactory builds the clock from the configured timezone, tests swap it for a fixed one.
type clockFactory func(timezone string) (chrono.API, error)

func standardClock(timezone string) (chrono.API, error) {
	return chrono.NewStandardImpl(timezone)
}

func newRootCommand(newClock clockFactory) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "flow-progress [--config <path/to/progress_settings.json>]",
		Short:         "flow-progress reports this year's running distance against a yearly goal.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitSlog(opts.verbose)
			return run(cmd.Context(), *opts, newClock, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", settings.DefaultPath, "the configuration file")
	flags.StringVar(&opts.format, "format", "text", "output format, one of: text, table")
	flags.StringVar(&opts.dumpDir, "dump-dir", ".dev/resty", "where HTTP messages are written when --verbose is set")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging and HTTP message dumps")
	flags.BoolVar(&opts.noPrevious, "no-previous", false, "skip querying last year's totals")

	return cmd
}

func run(ctx context.Context, opts options, newClock clockFactory, stdout io.Writer) error {
	if opts.format != "text" && opts.format != "table" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := settings.Load(opts.configPath)
	if err != nil {
		return err
	}
	clock, err := newClock(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	tel, err := telemetry.SetupFromEnv(ctx, "flow-progress")
	if err != nil {
		slog.WarnContext(ctx, "failed to setup telemetry", "err", err)
	}
	defer func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	var output telemetry.InstrumentOutput
	if opts.verbose {
		out, err := telemetry.NewFilesystemOutput(opts.dumpDir)
		if err != nil {
			slog.WarnContext(ctx, "failed to create dump directory", "dir", opts.dumpDir, "err", err)
		} else {
			output = out
		}
	}

	client, err := flow.NewClient(flow.ClientOptions{
		BaseUrl:          cfg.BaseUrl,
		Clock:            clock,
		Telemetry:        telemetry.SlogAPI{},
		Output:           output,
		CloudflareBypass: cfg.BaseUrl == "",
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "logging in", "login", cfg.Login)
	session, err := client.Authenticate(ctx, cfg.Login, cfg.Password)
	if err != nil {
		return err
	}

	now := clock.Now()
	current, err := session.FetchYearlyReport(ctx, now.Year())
	if err != nil {
		return err
	}
	var previous *flow.YearlyReport
	if !opts.noPrevious {
		report, err := session.FetchYearlyReport(ctx, now.Year()-1)
		if err != nil {
			return err
		}
		previous = &report
	}

	report := progress.NewReport(cfg.Goal, now.YearDay(), current, previous)

	// rendered into memory first so a failure never leaves a partial report on stdout
	var buffer bytes.Buffer
	switch opts.format {
	case "table":
		err = progress.RenderTable(&buffer, report)
	default:
		err = progress.Render(&buffer, report)
	}
	if err != nil {
		return err
	}
	_, err = buffer.WriteTo(stdout)
	return err
}

// errorAttrs pulls the status code or field out of known error kinds.
func errorAttrs(err error) []any {
	attrs := []any{"err", err.Error()}

	var cfgErr *settings.ConfigError
	var pageErr *flow.AuthPageFormatError
	var authErr *flow.AuthenticationError
	var reportErr *flow.ReportFormatError
	switch {
	case errors.As(err, &cfgErr):
		attrs = append(attrs, "kind", "config", "path", cfgErr.Path)
		if cfgErr.Field != "" {
			attrs = append(attrs, "field", cfgErr.Field)
		}
	case errors.As(err, &pageErr):
		attrs = append(attrs, "kind", "auth_page_format", "status", pageErr.StatusCode)
	case errors.As(err, &authErr):
		attrs = append(attrs, "kind", "authentication", "status", authErr.StatusCode)
	case errors.As(err, &reportErr):
		attrs = append(attrs, "kind", "report_format", "status", reportErr.StatusCode)
		if reportErr.Field != "" {
			attrs = append(attrs, "field", reportErr.Field)
		}
	}
	return attrs
}

// ExecuteContext runs the root command and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := newRootCommand(standardClock).ExecuteContext(ctx)
	if err != nil {
		slog.Error("failed to produce progress report", errorAttrs(err)...)
		return 1
	}
	return 0
}

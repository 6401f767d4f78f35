package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/classifier"
	"github.com/straja-ai/winegrade/internal/config"
	"github.com/straja-ai/winegrade/internal/report"
	"github.com/straja-ai/winegrade/internal/telemetry"
)

var version = "dev"

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "winegrade",
		Short: "Wine quality arbitration and parameter diagnostics",
		Long: `winegrade classifies a wine sample from six chemistry measurements by
arbitrating between a random forest and a decision tree, and explains each
measurement against its ideal band with remediation advice.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to winegrade config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newSamplesCommand())
	cmd.AddCommand(newBandsCommand())
	cmd.AddCommand(newBenchCommand(opts))

	return cmd
}

// app holds everything a command needs to run analyses.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	tel    *telemetry.Provider
	bundle *classifier.Bundle
	svc    *report.Service
}

func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := newLogger(cfg.Logging, opts.debug, logOut)

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  firstNonEmpty(cfg.Telemetry.Version, version),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	bundle, err := classifier.LoadBundle(cfg.BundleSpec())
	if err != nil {
		if cfg.Models.Require {
			tel.Shutdown(ctx)
			return nil, fmt.Errorf("load models: %w", err)
		}
		log.Warn().Err(err).Str("dir", cfg.Models.Dir).Msg("models unavailable, serving diagnostics only")
	} else if bundle.Manifest != nil {
		log.Info().Str("model", bundle.Manifest.Model).Str("version", bundle.Manifest.Version).Msg("model bundle verified")
	}

	arb := arbiter.New(bundle.RandomForest, bundle.DecisionTree,
		arbiter.WithThresholds(cfg.Thresholds()),
		arbiter.WithLogger(log.With().Str("component", "arbiter").Logger()),
		arbiter.WithObserver(tel),
	)
	svc := report.NewService(arb,
		report.WithTracer(tel.Tracer()),
		report.WithLogger(log),
		report.WithObserver(tel),
	)

	return &app{cfg: cfg, log: log, tel: tel, bundle: bundle, svc: svc}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.bundle.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close models")
	}
	a.tel.Shutdown(ctx)
}

func newLogger(cfg config.LoggingConfig, debug bool, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"claimsev/internal/config"
	"claimsev/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	policies := flag.String("policies", "", "policy risk-feature table (.csv or .xlsx)")
	claims := flag.String("claims", "", "individual claim table (.csv or .xlsx)")
	out := flag.String("out", "", "output directory for run artifacts")
	seed := flag.Int64("seed", 0, "override the root random seed")
	flag.Parse()

	o := overrides{policies: *policies, claims: *claims, out: *out}
	// only a seed the user actually passed overrides the config, so a
	// root seed of exactly 0 stays expressible
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.seed = seed
		}
	})

	if err := run(*configFile, o); err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}

// overrides carries the flag values that take precedence over config
type overrides struct {
	policies string
	claims   string
	out      string
	seed     *int64
}

func (o overrides) apply(cfg *config.Config) {
	if o.policies != "" {
		cfg.Data.PolicyFile = o.policies
	}
	if o.claims != "" {
		cfg.Data.ClaimFile = o.claims
	}
	if o.out != "" {
		cfg.Paths.OutputDir = o.out
	}
	if o.seed != nil {
		cfg.Split.Seed = *o.seed
	}
}

func run(configFile string, o overrides) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	o.apply(cfg)

	if cfg.Data.PolicyFile == "" || cfg.Data.ClaimFile == "" {
		return fmt.Errorf("both input tables are required (-policies, -claims)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := setupTracing(ctx)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer shutdown()
	}

	result, err := pipeline.New(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("artifacts written",
		"run_id", result.RunID,
		"output_dir", result.OutputDir,
		"modeling_rows", len(result.Table),
	)
	return nil
}

// newLogger builds the slog handler the config asks for
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// setupTracing wires a stdout span exporter for the run
func setupTracing(ctx context.Context) (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("trace provider shutdown failed", "error", err)
		}
	}, nil
}

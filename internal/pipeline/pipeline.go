package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"claimsev/internal/config"
	"claimsev/internal/dataset"
	"claimsev/internal/eval"
	"claimsev/internal/exporter"
	"claimsev/internal/join"
	"claimsev/internal/model"
	"claimsev/internal/split"
	"claimsev/internal/transform"
)

// TracerName identifies the pipeline's spans
const TracerName = "claimsev.pipeline"

// Pipeline runs the full batch: load, join, transform, split,
// cross-validate, test-evaluate, rank, export
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer
}

// Result is what a completed run produced
type Result struct {
	RunID        string
	OutputDir    string
	Manifest     *Manifest
	Table        []dataset.TransformedRow
	CVRankings   []eval.Ranking
	TestRankings []eval.Ranking
	Comparison   []eval.RankComparison
	Fitted       []eval.FittedUnit
}

// New creates a pipeline for the given configuration
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(TracerName),
	}
}

// Run executes the pipeline to completion and writes all artifacts into
// a run-scoped directory under the configured output dir. The batch has
// no retry semantics: a re-run with the same seed either reproduces the
// result bit for bit or reveals a real failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	outputDir := filepath.Join(p.cfg.Paths.OutputDir, runID)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int64("run.seed", p.cfg.Split.Seed),
		),
	)
	defer span.End()

	p.logger.Info("starting pipeline run",
		"run_id", runID,
		"seed", p.cfg.Split.Seed,
		"output_dir", outputDir,
	)

	manifest := &Manifest{
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Seed:       p.cfg.Split.Seed,
		Proportion: p.cfg.Split.Proportion,
		Folds:      p.cfg.Split.Folds,
		Repeats:    p.cfg.Split.Repeats,
		StrataBins: p.cfg.Split.StrataBins,
	}

	result, err := p.run(ctx, manifest, outputDir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")

	return result, nil
}

func (p *Pipeline) run(ctx context.Context, manifest *Manifest, outputDir string) (*Result, error) {
	// load
	var (
		policies []dataset.PolicyRecord
		claims   []dataset.ClaimRecord
	)
	err := p.stage(ctx, "load", func(ctx context.Context) error {
		start := time.Now()
		var err error
		var policyLoad, claimLoad dataset.LoadResult

		policies, policyLoad, err = dataset.LoadPolicies(p.cfg.Data.PolicyFile, p.logger)
		if err != nil {
			return err
		}
		claims, claimLoad, err = dataset.LoadClaims(p.cfg.Data.ClaimFile, p.logger)
		if err != nil {
			return err
		}

		manifest.PolicyLoad = policyLoad
		manifest.ClaimLoad = claimLoad
		manifest.record("load", policyLoad.RowsRead+claimLoad.RowsRead, len(policies)+len(claims), time.Since(start))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}

	// join
	var modeling []dataset.ModelingRow
	err = p.stage(ctx, "join", func(context.Context) error {
		start := time.Now()
		var stats join.Stats
		modeling, stats = join.Join(claims, policies, p.logger)
		manifest.Join = stats
		manifest.record("join", len(policies)+len(claims), len(modeling), time.Since(start))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("join stage: %w", err)
	}

	// transform
	var table []dataset.TransformedRow
	err = p.stage(ctx, "transform", func(context.Context) error {
		start := time.Now()
		out, _, stats, err := transform.FitTransform(modeling, p.logger)
		if err != nil {
			return err
		}
		table = out
		manifest.Transform = stats
		manifest.record("transform", stats.RowsIn, stats.RowsOut, time.Since(start))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transform stage: %w", err)
	}

	// split
	splitCfg := split.Config{
		Seed:       p.cfg.Split.Seed,
		Proportion: p.cfg.Split.Proportion,
		Folds:      p.cfg.Split.Folds,
		Repeats:    p.cfg.Split.Repeats,
		StrataBins: p.cfg.Split.StrataBins,
		Logger:     p.logger,
	}
	var (
		partition split.Split
		folds     []split.Fold
	)
	err = p.stage(ctx, "split", func(context.Context) error {
		start := time.Now()
		var err error
		partition, err = split.TrainTest(table, splitCfg)
		if err != nil {
			return err
		}
		folds, err = split.KFold(partition.Train, splitCfg)
		if err != nil {
			return err
		}
		manifest.record("split", len(table), len(partition.Train)+len(partition.Test), time.Since(start))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("split stage: %w", err)
	}

	// resolve fitting units
	units, err := model.Lookup(p.cfg.Models.Units)
	if err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}
	for _, u := range units {
		manifest.Units = append(manifest.Units, u.ID)
	}

	evaluator := &eval.Evaluator{
		Seed:           p.cfg.Split.Seed,
		MaxConcurrency: p.cfg.Eval.MaxConcurrency,
		KeepModels:     p.cfg.Eval.KeepModels,
		Logger:         p.logger,
	}

	// cross-validation phase
	var cvResults []eval.FoldResult
	err = p.stage(ctx, "cross_validate", func(ctx context.Context) error {
		start := time.Now()
		var err error
		cvResults, err = evaluator.CrossValidate(ctx, units, folds)
		manifest.record("cross_validate", len(partition.Train), len(cvResults), time.Since(start))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cross-validation stage: %w", err)
	}

	// held-out test phase
	var (
		testResults []eval.FoldResult
		fitted      []eval.FittedUnit
	)
	err = p.stage(ctx, "test_evaluate", func(ctx context.Context) error {
		start := time.Now()
		var err error
		testResults, fitted, err = evaluator.TrainTest(ctx, units, partition)
		manifest.record("test_evaluate", len(partition.Test), len(testResults), time.Since(start))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("test stage: %w", err)
	}

	manifest.FailedFits = len(eval.Failures(cvResults)) + len(eval.Failures(testResults))

	// rank
	cvRankings := eval.Rank(cvResults)
	testRankings := eval.Rank(testResults)
	comparison := eval.CompareRanks(cvRankings, testRankings)

	for _, r := range cvRankings {
		p.logger.Info("cross-validation ranking",
			"rank", r.Rank,
			"model", r.ModelID,
			"mean_rmse", r.MeanRMSE,
			"mean_r2", r.MeanR2,
			"folds", r.Folds,
			"failed", r.Failed,
		)
	}

	// export
	err = p.stage(ctx, "export", func(context.Context) error {
		w := exporter.NewWriter(outputDir, p.logger)
		if err := w.WriteModelingTable(table); err != nil {
			return err
		}
		if err := w.WriteFoldMetrics(eval.PhaseCV, cvResults); err != nil {
			return err
		}
		if err := w.WriteFoldMetrics(eval.PhaseTest, testResults); err != nil {
			return err
		}
		if err := w.WriteRankings(eval.PhaseCV, cvRankings); err != nil {
			return err
		}
		if err := w.WriteRankings(eval.PhaseTest, testRankings); err != nil {
			return err
		}
		if err := w.WriteRankComparison(comparison); err != nil {
			return err
		}
		if err := w.WritePredictions(cvResults); err != nil {
			return err
		}
		if err := w.WritePredictions(testResults); err != nil {
			return err
		}
		if err := w.WriteInspection(fitted); err != nil {
			return err
		}
		return manifest.Write(outputDir)
	})
	if err != nil {
		return nil, fmt.Errorf("export stage: %w", err)
	}

	p.logger.Info("pipeline run complete",
		"run_id", manifest.RunID,
		"modeling_rows", len(table),
		"failed_fits", manifest.FailedFits,
	)

	return &Result{
		RunID:        manifest.RunID,
		OutputDir:    outputDir,
		Manifest:     manifest,
		Table:        table,
		CVRankings:   cvRankings,
		TestRankings: testRankings,
		Comparison:   comparison,
		Fitted:       fitted,
	}, nil
}

// stage wraps one pipeline stage in a span and a timing log line
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.stage."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage.name", name)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		p.logger.Error("stage failed", "stage", name, "elapsed", elapsed, "error", err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	p.logger.Info("stage complete", "stage", name, "elapsed", elapsed)
	return nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"reciperag/internal/domain"
)

// ErrResultsMissing is returned by Compare when a condition has no results file.
var ErrResultsMissing = errors.New("results file missing")

var experimentNames = map[string]string{
	domain.ConditionZeroShot:   "Zero-Shot Recipe Generation",
	domain.ConditionFewShotRAG: "Few-Shot RAG Recipe Generation",
}

// MetadataOptions describes the run being recorded.
type MetadataOptions struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	RetrievalModel string
	K              int
	Timezone       string
}

// NewExperimentMetadata creates metadata for a condition. Retrieval fields
// are only set for the RAG condition.
func NewExperimentMetadata(condition string, opts MetadataOptions) *domain.ExperimentMetadata {
	meta := &domain.ExperimentMetadata{
		RunID:          uuid.NewString(),
		ExperimentName: experimentNames[condition],
		Condition:      condition,
		Model:          opts.Model,
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		Timezone:       opts.Timezone,
	}
	if meta.ExperimentName == "" {
		meta.ExperimentName = condition
	}
	if condition == domain.ConditionFewShotRAG {
		model, k := opts.RetrievalModel, opts.K
		meta.RetrievalModel = &model
		meta.KRetrieval = &k
	}
	return meta
}

// ExperimentTimer records wall-clock start, end and duration on metadata.
type ExperimentTimer struct {
	meta   *domain.ExperimentMetadata
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
	start  time.Time
}

func NewExperimentTimer(meta *domain.ExperimentMetadata, logger *slog.Logger) *ExperimentTimer {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(meta.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &ExperimentTimer{meta: meta, loc: loc, logger: logger, now: time.Now}
}

func (t *ExperimentTimer) Start() {
	t.start = t.now()
	t.meta.StartTime = t.start.In(t.loc).Format(time.RFC3339Nano)
	t.logger.Info("experiment started",
		"experiment", t.meta.ExperimentName,
		"condition", t.meta.Condition,
		"start_time", t.meta.StartTime)
}

// Stop fills end time, duration and sample count and returns the duration.
func (t *ExperimentTimer) Stop(numSamples int) time.Duration {
	end := t.now()
	elapsed := end.Sub(t.start)
	seconds := elapsed.Seconds()

	t.meta.EndTime = end.In(t.loc).Format(time.RFC3339Nano)
	t.meta.TotalDurationSeconds = &seconds
	t.meta.NumSamples = numSamples

	attrs := []any{
		"experiment", t.meta.ExperimentName,
		"condition", t.meta.Condition,
		"end_time", t.meta.EndTime,
		"duration", elapsed.Round(100 * time.Millisecond).String(),
	}
	if numSamples > 0 {
		attrs = append(attrs, "avg_per_sample", fmt.Sprintf("%.2fs", seconds/float64(numSamples)))
	}
	t.logger.Info("experiment completed", attrs...)
	return elapsed
}

// SaveExperimentMetadata writes metadata_<condition>_<YYYYMMDD_HHMMSS>.json
// into dir, stamped with the current time in the metadata's timezone.
func SaveExperimentMetadata(meta *domain.ExperimentMetadata, dir string) (string, error) {
	return saveExperimentMetadata(meta, dir, time.Now())
}

func saveExperimentMetadata(meta *domain.ExperimentMetadata, dir string, now time.Time) (string, error) {
	loc, err := time.LoadLocation(meta.Timezone)
	if err != nil {
		loc = time.UTC
	}
	name := fmt.Sprintf("metadata_%s_%s.json", meta.Condition, now.In(loc).Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := writeJSON(path, meta); err != nil {
		return "", err
	}
	return path, nil
}

func LoadExperimentMetadata(path string) (*domain.ExperimentMetadata, error) {
	var meta domain.ExperimentMetadata
	if err := readJSON(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	ResultsDir string
	Dishes     []string
	Metadata   MetadataOptions
}

// RunResult is what one condition run produced.
type RunResult struct {
	Output       *domain.RunOutput
	OutputPath   string
	Metadata     *domain.ExperimentMetadata
	MetadataPath string
}

// Runner wraps generation with timing, metadata and result persistence.
type Runner struct {
	gen    *GenerateUseCase
	opts   RunnerOptions
	logger *slog.Logger
}

func NewRunner(gen *GenerateUseCase, opts RunnerOptions, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{gen: gen, opts: opts, logger: logger}
}

// Run generates all dishes for condition and saves results and metadata.
func (r *Runner) Run(ctx context.Context, condition string) (*RunResult, error) {
	if !ValidCondition(condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidArgument, condition)
	}

	meta := NewExperimentMetadata(condition, r.opts.Metadata)
	timer := NewExperimentTimer(meta, r.logger)

	timer.Start()
	out, err := r.gen.Run(ctx, condition, r.opts.Dishes)
	if err != nil {
		return nil, err
	}
	timer.Stop(len(out.Results))

	outPath, err := SaveRunOutput(out, r.opts.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("save results: %w", err)
	}
	metaPath, err := SaveExperimentMetadata(meta, r.opts.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	r.logger.Info("results saved", "condition", condition, "results", outPath, "metadata", metaPath)

	return &RunResult{
		Output:       out,
		OutputPath:   outPath,
		Metadata:     meta,
		MetadataPath: metaPath,
	}, nil
}

// Compare builds the metrics comparison from both results files and saves
// it. Returns ErrResultsMissing if either file does not exist.
func (r *Runner) Compare() (*domain.Comparison, string, error) {
	return CompareResults(r.opts.ResultsDir)
}

// CompareResults compares the results files found in dir.
func CompareResults(dir string) (*domain.Comparison, string, error) {
	zeroPath := ResultsPath(dir, domain.ConditionZeroShot)
	ragPath := ResultsPath(dir, domain.ConditionFewShotRAG)
	for _, p := range []string{zeroPath, ragPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrResultsMissing, p)
		}
	}

	comparison, err := CompareConditions(zeroPath, ragPath)
	if err != nil {
		return nil, "", err
	}
	path, err := SaveMetricsReport(comparison, dir)
	if err != nil {
		return nil, "", err
	}
	return comparison, path, nil
}

// Package medviz turns a medical examination table into two figures: a
// count plot of categorical indicators faceted by cardiovascular disease,
// and a lower-triangle heat map of the correlation matrix of a cleaned
// subset.
//
// A Pipeline runs the stages in order: load, derive overweight, normalize
// cholesterol and glucose, then reshape, count and draw the count plot,
// then filter, correlate and draw the heat map. The figures are written to
// the configured output directory.
//
//	cfg := config.NewConfig()
//	cfg.InputPath = "medical_examination.csv"
//	p, err := medviz.New(cfg)
//	if err != nil {
//		return err
//	}
//	result, err := p.Run(ctx)
package medviz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/medviz/internal/config"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/exam"
	"github.com/paveg/medviz/internal/io"
	"github.com/paveg/medviz/internal/monitoring"
	"github.com/paveg/medviz/internal/parallel"
	"github.com/paveg/medviz/internal/render"
	"github.com/paveg/medviz/internal/validation"
)

// Stage names, as they appear in logs and metrics
const (
	StageLoad      = "load"
	StageDerive    = "derive"
	StageNormalize = "normalize"
	StageReshape   = "reshape"
	StageCount     = "count"
	StageCatPlot   = "catplot"
	StageFilter    = "filter"
	StageCorrelate = "correlate"
	StageHeatMap   = "heatmap"
	StageSave      = "save"
	StageExport    = "export"
)

// CategoryCount is the number of long-format rows per cardio value,
// indicator and indicator value
type CategoryCount = exam.CategoryCount

// FilterBounds are the height and weight bounds of the correlation filter
type FilterBounds = exam.FilterBounds

// StageMetric holds the measurements of a pipeline stage
type StageMetric = monitoring.StageMetric

// Result summarises a pipeline run
type Result struct {
	RunID          string          `json:"run_id" yaml:"run_id"`
	Rows           int             `json:"rows" yaml:"rows"`
	OverweightRows int             `json:"overweight_rows" yaml:"overweight_rows"`
	LongRows       int             `json:"long_rows" yaml:"long_rows"`
	FilteredRows   int             `json:"filtered_rows" yaml:"filtered_rows"`
	Counts         []CategoryCount `json:"counts" yaml:"counts"`
	CorrColumns    []string        `json:"corr_columns" yaml:"corr_columns"`
	Corr           [][]float64     `json:"corr" yaml:"corr"`
	Bounds         FilterBounds    `json:"bounds" yaml:"bounds"`
	Artifacts      []string        `json:"artifacts" yaml:"artifacts"`
	Warnings       []string        `json:"warnings" yaml:"warnings"`
	Metrics        []StageMetric   `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// OverweightShare returns the fraction of rows flagged overweight
func (r *Result) OverweightShare() float64 {
	if r.Rows == 0 {
		return 0
	}
	return float64(r.OverweightRows) / float64(r.Rows)
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAllocator sets the Arrow allocator used for loaded tables
func WithAllocator(mem memory.Allocator) Option {
	return func(p *Pipeline) {
		if mem != nil {
			p.mem = mem
		}
	}
}

// WithMetrics sets the metrics collector, overriding metrics_collection
func WithMetrics(collector *monitoring.MetricsCollector) Option {
	return func(p *Pipeline) {
		if collector != nil {
			p.metrics = collector
		}
	}
}

// Pipeline runs the examination analysis for one configuration
type Pipeline struct {
	cfg            config.Config
	configWarnings []string
	logger         *slog.Logger
	mem            memory.Allocator
	metrics        *monitoring.MetricsCollector
}

// New validates cfg and returns a pipeline for it
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	validated, warnings, err := config.NewConfigValidator().Validate(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:            validated,
		configWarnings: warnings,
		logger:         slog.Default(),
		mem:            memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = monitoring.NewMetricsCollector(validated.MetricsCollection)
	}
	return p, nil
}

// Config returns the validated configuration the pipeline runs with
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// run carries the state of a single Run call
type run struct {
	*Pipeline
	ctx     context.Context
	logger  *slog.Logger
	manager *MemoryManager
	result  *Result
}

// stage runs fn as a named stage: it checks for cancellation, records
// metrics and tags errors with the stage name.
func (r *run) stage(name string, rowsIn int, fn func() (int, error)) error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.logger.Debug("stage started", "stage", name, "rows", rowsIn)
	if err := r.metrics.RecordStage(name, rowsIn, fn); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *run) warn(msg string, args ...any) {
	r.logger.Warn(msg, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
}

// Run executes the pipeline. It either writes both figures (and the
// exported tables when export_dir is set) or returns an error; files
// written before a failure are removed.
func (p *Pipeline) Run(ctx context.Context) (_ *Result, err error) {
	runID := uuid.NewString()
	r := &run{
		Pipeline: p,
		ctx:      ctx,
		logger:   p.logger.With("run_id", runID),
		manager:  NewMemoryManager(p.mem),
		result:   &Result{RunID: runID},
	}
	defer r.manager.ReleaseAll()
	defer func() {
		if err != nil {
			err = r.rollback(err)
		}
	}()

	metricsStart := len(p.metrics.GetMetrics())
	for _, w := range p.configWarnings {
		r.warn(w)
	}

	r.logger.Info("run started", "input", p.cfg.InputPath)

	df, err := r.prepare()
	if err != nil {
		return nil, err
	}

	catplot, err := r.categorical(df)
	if err != nil {
		return nil, err
	}

	heatmap, err := r.correlation(df)
	if err != nil {
		return nil, err
	}

	if err := r.save(catplot, heatmap); err != nil {
		return nil, err
	}

	if p.metrics.IsEnabled() {
		r.result.Metrics = p.metrics.GetMetrics()[metricsStart:]
		r.logger.Info("metrics", "summary", p.metrics.GetSummary())
	}

	r.logger.Info("run complete",
		"rows", r.result.Rows,
		"filtered_rows", r.result.FilteredRows,
		"artifacts", len(r.result.Artifacts),
		"warnings", len(r.result.Warnings))
	return r.result, nil
}

// prepare loads the table and applies the derivation and normalization
func (r *run) prepare() (*dataframe.DataFrame, error) {
	var df *dataframe.DataFrame

	err := r.stage(StageLoad, 0, func() (int, error) {
		options := io.DefaultCSVOptions()
		options.Delimiter = r.cfg.DelimiterRune()

		loaded, err := exam.Load(r.cfg.InputPath, options, r.manager.Allocator())
		if err != nil {
			return 0, err
		}
		r.manager.Track(loaded)
		if err := validation.ValidateNotEmpty(loaded, "Load"); err != nil {
			return 0, fmt.Errorf("%s: %w", r.cfg.InputPath, err)
		}
		df = loaded
		return loaded.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	r.result.Rows = df.Len()

	err = r.stage(StageDerive, df.Len(), func() (int, error) {
		if err := exam.DeriveOverweight(df, r.cfg.OverweightThreshold); err != nil {
			return 0, err
		}
		flags, err := df.Float64s("Run", exam.Overweight)
		if err != nil {
			return 0, err
		}
		for _, f := range flags {
			if f == 1 {
				r.result.OverweightRows++
			}
		}
		return df.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageNormalize, df.Len(), func() (int, error) {
		return df.Len(), exam.Normalize(df)
	})
	if err != nil {
		return nil, err
	}
	return df, nil
}

// categorical reshapes, counts and draws the count plot
func (r *run) categorical(df *dataframe.DataFrame) (*render.Figure, error) {
	var long *dataframe.DataFrame
	err := r.stage(StageReshape, df.Len(), func() (int, error) {
		var err error
		long, err = exam.Reshape(df)
		if err != nil {
			return 0, err
		}
		r.manager.Track(long)
		return long.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	r.result.LongRows = long.Len()

	err = r.stage(StageCount, long.Len(), func() (int, error) {
		counts, err := exam.CountIndicators(long)
		if err != nil {
			return 0, err
		}
		r.result.Counts = counts
		return len(counts), nil
	})
	if err != nil {
		return nil, err
	}

	var fig *render.Figure
	err = r.stage(StageCatPlot, len(r.result.Counts), func() (int, error) {
		bars := make([]render.Count, len(r.result.Counts))
		for i, c := range r.result.Counts {
			bars[i] = render.Count{Facet: c.Cardio, Variable: c.Variable, Value: c.Value, Total: c.Total}
		}
		var err error
		fig, err = render.CatPlot(bars, render.CatPlotOptions{
			FacetName: exam.Cardio,
			Width:     render.Inches(r.cfg.CatPlotWidth),
			Height:    render.Inches(r.cfg.CatPlotHeight),
			DPI:       r.cfg.DPI,
		})
		return len(bars), err
	})
	if err != nil {
		return nil, err
	}

	if err := r.export(long, "long"); err != nil {
		return nil, err
	}
	return fig, nil
}

// correlation filters, correlates and draws the heat map
func (r *run) correlation(df *dataframe.DataFrame) (*render.Figure, error) {
	var filtered *dataframe.DataFrame
	err := r.stage(StageFilter, df.Len(), func() (int, error) {
		var err error
		filtered, r.result.Bounds, err = exam.FilterForCorrelation(df, r.cfg.LowerQuantile, r.cfg.UpperQuantile)
		if err != nil {
			return 0, err
		}
		r.manager.Track(filtered)
		return filtered.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	r.result.FilteredRows = filtered.Len()

	pool := parallel.NewWorkerPoolWithContext(r.ctx, r.cfg.WorkerPoolSize)
	defer pool.Close()

	var corr *dataframe.CorrMatrix
	err = r.stage(StageCorrelate, filtered.Len(), func() (int, error) {
		var err error
		corr, err = filtered.Corr(dataframe.CorrOptions{Pool: pool, ParallelThreshold: r.cfg.ParallelThreshold})
		if err != nil {
			return 0, err
		}
		return corr.Size(), nil
	})
	if err != nil {
		return nil, err
	}
	r.result.CorrColumns = corr.Columns
	r.result.Corr = corr.Rows()
	if corr.AllUndefined() {
		msg := "correlation matrix is undefined; heat map will be blank"
		if filtered.Len() == 0 {
			msg = "no rows left after filtering; heat map will be blank"
		}
		r.warn(msg, "rows", df.Len(), "filtered_rows", filtered.Len(), "bounds", r.result.Bounds)
	}

	var fig *render.Figure
	err = r.stage(StageHeatMap, corr.Size(), func() (int, error) {
		var err error
		fig, err = render.HeatMap(corr.Columns, r.result.Corr, render.HeatMapOptions{
			Min:              r.cfg.HeatMapMin,
			Max:              r.cfg.HeatMapMax,
			ColorBarShrink:   r.cfg.ColorBarShrink,
			AnnotationFormat: r.cfg.AnnotationFormat,
			ShowDiagonal:     r.cfg.ShowDiagonal,
			Width:            render.Inches(r.cfg.HeatMapWidth),
			Height:           render.Inches(r.cfg.HeatMapHeight),
			DPI:              r.cfg.DPI,
		})
		return corr.Size(), err
	})
	if err != nil {
		return nil, err
	}

	if err := r.export(filtered, "filtered"); err != nil {
		return nil, err
	}
	return fig, nil
}

// save writes both figures
func (r *run) save(catplot, heatmap *render.Figure) error {
	return r.stage(StageSave, 2, func() (int, error) {
		if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil { //nolint:gosec // output directory is user facing
			return 0, fmt.Errorf("creating output directory: %w", err)
		}

		figures := []struct {
			name string
			fig  *render.Figure
		}{
			{r.cfg.CatPlotName, catplot},
			{r.cfg.HeatMapName, heatmap},
		}

		for i, f := range figures {
			path := filepath.Join(r.cfg.OutputDir, f.name+"."+r.cfg.Format)
			if err := f.fig.Save(path); err != nil {
				return i, err
			}
			r.logger.Debug("figure written", "path", path)
			r.result.Artifacts = append(r.result.Artifacts, path)
		}
		return len(figures), nil
	})
}

// export writes df as <name>.<export_format> when export_dir is set
func (r *run) export(df *dataframe.DataFrame, name string) error {
	if r.cfg.ExportDir == "" {
		return nil
	}
	return r.stage(StageExport, df.Len(), func() (int, error) {
		format, err := io.ParseFormat(r.cfg.ExportFormat)
		if err != nil {
			return 0, err
		}
		if err := os.MkdirAll(r.cfg.ExportDir, 0o755); err != nil { //nolint:gosec // export directory is user facing
			return 0, fmt.Errorf("creating export directory: %w", err)
		}

		path := filepath.Join(r.cfg.ExportDir, name+format.Extension())
		options := io.DefaultCSVOptions()
		options.Delimiter = r.cfg.DelimiterRune()
		if err := io.WriteFile(path, format, df, options); err != nil {
			return 0, err
		}
		r.logger.Debug("table exported", "path", path, "rows", df.Len())
		r.result.Artifacts = append(r.result.Artifacts, path)
		return df.Len(), nil
	})
}

// rollback removes every file the run wrote and returns cause joined with
// any removal failure
func (r *run) rollback(cause error) error {
	for _, path := range r.result.Artifacts {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			cause = errors.Join(cause, fmt.Errorf("removing %s: %w", path, err))
			continue
		}
		r.logger.Debug("artifact removed", "path", path)
	}
	r.result.Artifacts = nil
	return cause
}

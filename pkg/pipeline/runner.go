package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cartoflow/cartoflow/pkg/cache"
	"github.com/cartoflow/cartoflow/pkg/errors"
	flowio "github.com/cartoflow/cartoflow/pkg/io"
	"github.com/cartoflow/cartoflow/pkg/layout"
	"github.com/cartoflow/cartoflow/pkg/model"
	"github.com/cartoflow/cartoflow/pkg/observability"
	"github.com/cartoflow/cartoflow/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete import → layout → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Import
	importStart := time.Now()
	m, err := r.Import(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Model = m
	result.Stats.ImportTime = time.Since(importStart)
	result.Stats.NodeCount = m.NodeCount()
	result.Stats.FlowCount = m.FlowCount()

	r.Logger.Info("imported flows",
		"nodes", m.NodeCount(),
		"flows", m.FlowCount(),
		"duration", result.Stats.ImportTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	laidOut, layoutHit, err := r.LayoutWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Model = laidOut
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	result.Grade = layout.GradeModel(laidOut)

	layoutData, err := marshalModel(laidOut)
	if err != nil {
		return nil, err
	}
	result.ModelHash = cache.Hash(layoutData)

	r.Logger.Info("computed layout",
		"crossings", result.Grade.FlowIntersections,
		"overlaps", result.Grade.FlowObstacleOverlaps,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, laidOut, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Import reads the input file into a model.
func (r *Runner) Import(ctx context.Context, opts Options) (*model.Model, error) {
	if err := opts.ValidateForImport(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	params, err := opts.LayoutParams()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Layout().OnImportStart(ctx, opts.Format, opts.Input)

	raw, err := os.ReadFile(opts.Input)
	if err != nil {
		observability.Layout().OnImportComplete(ctx, opts.Format, opts.Input, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read input %s", opts.Input)
	}

	var m *model.Model
	switch opts.Format {
	case InputCSV:
		m, err = flowio.ReadCSV(bytes.NewReader(raw), params)
	case InputJSON:
		m, err = flowio.ReadJSON(bytes.NewReader(raw), params)
	}
	if err != nil {
		observability.Layout().OnImportComplete(ctx, opts.Format, opts.Input, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "import %s", opts.Input)
	}

	observability.Layout().OnImportComplete(ctx, opts.Format, opts.Input, m.FlowCount(), time.Since(start), nil)
	return m, nil
}

// LayoutWithCacheInfo runs the layout engine with caching and returns
// cache hit info. When SkipLayout is set, the model passes through
// untouched.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, m *model.Model, opts Options) (*model.Model, bool, error) {
	if opts.SkipLayout {
		return m, false, nil
	}
	r.applyLogger(&opts)

	modelData, err := marshalModel(m)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(modelData), opts.LayoutKeyOpts(m.Params()))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := flowio.ReadJSON(bytes.NewReader(data), m.Params())
			if err == nil {
				return cached, true, nil // Cache hit
			}
			// A corrupt entry falls through to recompute.
		}
	}

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, opts.Name(), m.FlowCount())

	layouter := layout.NewForceLayouter(m, opts.Monitor)
	if err := layouter.Run(ctx); err != nil {
		observability.Layout().OnLayoutComplete(ctx, opts.Name(), m.Params().Iterations, time.Since(start), err)
		return nil, false, err
	}
	observability.Layout().OnLayoutComplete(ctx, opts.Name(), m.Params().Iterations, time.Since(start), nil)

	if data, err := marshalModel(m); err == nil {
		r.cacheSet(ctx, cacheKey, data, cache.TTLLayout)
	}
	return m, false, nil // Cache miss
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, m *model.Model, opts Options) (*model.Model, error) {
	laidOut, _, err := r.LayoutWithCacheInfo(ctx, m, opts)
	return laidOut, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *model.Model, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := marshalModel(m)
	if err != nil {
		return nil, false, err
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.RenderKey(layoutHash, opts.RenderKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	start := time.Now()
	observability.Layout().OnRenderStart(ctx, opts.Formats)

	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.renderFormat(ctx, m, format, opts, layoutData)
		if err != nil {
			observability.Layout().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		rendered[format] = data
	}
	observability.Layout().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)

	for format, data := range rendered {
		cacheKey := r.Keyer.RenderKey(layoutHash, opts.RenderKeyOpts(format))
		r.cacheSet(ctx, cacheKey, data, cache.TTLRender)
	}
	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *model.Model, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

func (r *Runner) renderFormat(ctx context.Context, m *model.Model, format string, opts Options, layoutData []byte) ([]byte, error) {
	switch format {
	case FormatSVG:
		svgOpts := render.DefaultSVGOptions()
		svgOpts.Width = float64(opts.Width)
		svgOpts.Height = float64(opts.Height)
		var buf bytes.Buffer
		if err := render.RenderSVG(&buf, m, svgOpts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(render.ToDOT(m, render.DOTOptions{})), nil
	case FormatGraph:
		return render.RenderDOT(ctx, render.ToDOT(m, render.DOTOptions{}))
	case FormatJSON:
		return layoutData, nil
	default:
		return nil, ValidateFormat(format)
	}
}

// cacheSet writes through the cache, retrying transient backend failures.
// A write that still fails only costs a future recompute, so the error is
// logged and dropped.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func marshalModel(m *model.Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := flowio.WriteJSON(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

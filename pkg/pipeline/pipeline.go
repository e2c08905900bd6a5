// Package pipeline provides the import → layout → render pipeline.
//
// The CLI and the HTTP server both drive the engine through this package,
// so option validation, caching, and stage sequencing behave identically
// across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Import: read flows from a CSV origin-destination file or a JSON
//     layout document into a model
//  2. Layout: run the force-directed engine over the model
//  3. Render: produce output artifacts (SVG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete
// pipeline. Layout and render results are cached, keyed by content
// hashes, so re-running the pipeline over unchanged input is cheap.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "flows.csv",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cartoflow/cartoflow/pkg/cache"
	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/layout"
	"github.com/cartoflow/cartoflow/pkg/model"
)

// Default viewport for SVG rendering.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Input format constants.
const (
	InputCSV  = "csv"
	InputJSON = "json"
)

// Output format constants. FormatGraph feeds the DOT view through the
// embedded Graphviz engine and yields a rendered SVG.
const (
	FormatSVG   = "svg"
	FormatDOT   = "dot"
	FormatJSON  = "json"
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatDOT:   true,
	FormatJSON:  true,
	FormatGraph: true,
}

// Options contains all configuration for the pipeline. The struct
// supports JSON serialization for API requests.
type Options struct {
	// Import options
	Input      string `json:"input"`            // path to the flow data
	Format     string `json:"format,omitempty"` // csv or json; inferred from the extension when empty
	ParamsFile string `json:"params,omitempty"` // optional TOML parameter overlay
	Refresh    bool   `json:"refresh,omitempty"`

	// Layout options
	Iterations int  `json:"iterations,omitempty"` // overrides the parameter file when positive
	SkipLayout bool `json:"skip_layout,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger    `json:"-"`
	Monitor layout.Monitor `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the laid-out flow model.
	Model *model.Model

	// ModelHash is the content hash of the laid-out model.
	ModelHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Grade scores the layout: remaining crossings and obstacle overlaps.
	Grade layout.Grade

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	FlowCount  int
	ImportTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the laid-out model came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, dot, json, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all output formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForImport(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForImport checks required fields for the import stage and
// infers the input format from the file extension when unset.
func (o *Options) ValidateForImport() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidParams, "input is required")
	}
	if o.Format == "" {
		switch strings.ToLower(filepath.Ext(o.Input)) {
		case ".csv":
			o.Format = InputCSV
		case ".json":
			o.Format = InputJSON
		default:
			return errors.New(errors.ErrCodeInvalidFormat,
				"cannot infer input format from %q; set format explicitly", o.Input)
		}
	}
	if o.Format != InputCSV && o.Format != InputJSON {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid input format: %q (must be csv or json)", o.Format)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Name returns the run's display name: the input file without extension.
func (o *Options) Name() string {
	base := filepath.Base(o.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts(params model.Params) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ParamsHash: cache.Hash([]byte(fmt.Sprintf("%+v", params))),
		Iterations: params.Iterations,
	}
}

// RenderKeyOpts returns cache key options for one output format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format: format,
		Width:  o.Width,
		Height: o.Height,
	}
}

// LayoutParams resolves the effective layout parameters: the defaults,
// overlaid by the TOML file when given, with the iteration override
// applied last.
func (o *Options) LayoutParams() (model.Params, error) {
	params := model.DefaultParams()
	if o.ParamsFile != "" {
		loaded, err := model.LoadParams(o.ParamsFile)
		if err != nil {
			return model.Params{}, err
		}
		params = loaded
	}
	if o.Iterations > 0 {
		params.Iterations = o.Iterations
	}
	return params, nil
}

// Package pkg provides the core libraries for cartoflow flow map layout.
//
// # Overview
//
// Cartoflow computes uncluttered flow maps: origin-destination flows drawn
// as quadratic Bézier curves that bend around nodes and each other. The
// pkg directory is organized into three main areas:
//
//  1. Domain logic (geometry, flow model, force-directed layout, rendering)
//  2. Infrastructure (caching, storage, observability, errors)
//  3. Orchestration (the import → layout → render pipeline)
//
// # Architecture
//
// The typical data flow through cartoflow:
//
//	CSV or JSON flow data
//	         ↓
//	    [io] package (import into a model)
//	         ↓
//	    [layout] package (force-directed curve layout)
//	         ↓
//	    [render] package (SVG, Graphviz DOT, JSON output)
//
// # Quick Start
//
// Import flows and compute a layout:
//
//	import (
//	    "context"
//	    "os"
//	    "github.com/cartoflow/cartoflow/pkg/io"
//	    "github.com/cartoflow/cartoflow/pkg/layout"
//	    "github.com/cartoflow/cartoflow/pkg/model"
//	    "github.com/cartoflow/cartoflow/pkg/render"
//	)
//
//	// 1. Import OD data
//	f, _ := os.Open("flows.csv")
//	m, _ := io.ReadCSV(f, model.DefaultParams())
//
//	// 2. Run the layout
//	layouter := layout.NewForceLayouter(m, layout.NopMonitor{})
//	_ = layouter.Run(context.Background())
//
//	// 3. Render to SVG
//	_ = render.RenderSVG(os.Stdout, m, render.DefaultSVGOptions())
//
// # Main Packages
//
// ## Domain Logic
//
// [geom] - Low-level 2D primitives: points, rectangles, segments.
//
// [flow] - Flows as quadratic Bézier curves: evaluation, clipping
// against node circles, parallel offsets for bidirectional pairs.
//
// [model] - The flow map model: nodes, flows, layout parameters, and
// derived quantities such as stroke widths and node radii.
//
// [layout] - The iterative force-directed layouter that bends flows
// around obstacles, plus the grader that scores a finished layout.
//
// [render] - Output formats: direct SVG drawing and Graphviz DOT
// node-link export.
//
// [io] - CSV import of origin-destination flow lists and JSON
// round-tripping of laid-out models.
//
// ## Infrastructure
//
// [cache] - Content-addressed result cache with file, Redis, and null
// backends. Keys derive from input hashes and stage options.
//
// [store] - Saved layout persistence with memory and MongoDB backends.
//
// [observability] - Process-wide hooks for layout, cache, and store
// instrumentation.
//
// [errors] - Structured errors with stable codes used by the driver
// layers (pipeline, HTTP API, CLI).
//
// [buildinfo] - Build-time version information set via ldflags.
//
// ## Orchestration
//
// [pipeline] - The complete import → layout → render pipeline used by
// both the CLI and the HTTP API. Ensures consistent behavior across
// entry points.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//
// [geom]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/geom
// [flow]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/flow
// [model]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/model
// [layout]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/layout
// [render]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/render
// [io]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/io
// [cache]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/cache
// [store]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/store
// [observability]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/observability
// [errors]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/cartoflow/cartoflow/pkg/pipeline
package pkg

package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartoflow/cartoflow/pkg/layout"
	"github.com/cartoflow/cartoflow/pkg/pipeline"
)

func newRenderCmd() *cobra.Command {
	var (
		output     string
		formats    []string
		paramsFile string
		iterations int
		width      int
		height     int
		noCache    bool
		refresh    bool
		skipLayout bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "render <input>",
		Short: "Render a flow map as SVG, DOT, JSON, or a Graphviz-drawn graph",
		Long: `Render a flow map from origin-destination data.

The pipeline imports the input, computes the layout unless
--skip-layout is set, and writes one file per requested format next
to the input. Pass a saved layout JSON with --skip-layout to re-render
without recomputing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			c := &CLI{Logger: logger}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				Input:      args[0],
				ParamsFile: paramsFile,
				Iterations: iterations,
				Refresh:    refresh,
				SkipLayout: skipLayout,
				Formats:    formats,
				Width:      width,
				Height:     height,
				Logger:     logger,
			}

			var result *pipeline.Result
			run := func(mon layout.Monitor) error {
				opts.Monitor = mon
				var runErr error
				result, runErr = runner.Execute(cmd.Context(), opts)
				return runErr
			}
			if plain || skipLayout {
				err = run(layout.NopMonitor{})
			} else {
				err = runWithProgress("render", run)
			}
			if err != nil {
				printError("render failed: %v", err)
				return err
			}

			base := output
			if base == "" {
				base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}
			printSuccess("Rendered %d flows between %d nodes", result.Stats.FlowCount, result.Stats.NodeCount)
			for format, data := range result.Artifacts {
				path := base + "." + artifactExt(format)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				printDetail("%s: %s (%d bytes)", format, path, len(data))
			}
			if result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit {
				printInfo("all outputs came from cache (use --refresh to recompute)")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path without extension (default input base)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{pipeline.FormatSVG}, "output formats: svg, dot, json, graph")
	cmd.Flags().StringVarP(&paramsFile, "params", "p", "", "TOML file with layout parameter overrides")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "override the iteration count")
	cmd.Flags().IntVar(&width, "width", pipeline.DefaultWidth, "viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", pipeline.DefaultHeight, "viewport height in pixels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached results exist")
	cmd.Flags().BoolVar(&skipLayout, "skip-layout", false, "render the input geometry as-is")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress bar")

	return cmd
}

// artifactExt maps an output format to the written file extension. The
// graph format is Graphviz-rendered SVG, so it keeps the .svg suffix.
func artifactExt(format string) string {
	if format == pipeline.FormatGraph {
		return "graph.svg"
	}
	return format
}

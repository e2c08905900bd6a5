package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartoflow/cartoflow/pkg/layout"
	"github.com/cartoflow/cartoflow/pkg/pipeline"
)

func newLayoutCmd() *cobra.Command {
	var (
		output     string
		paramsFile string
		iterations int
		noCache    bool
		refresh    bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "layout <input>",
		Short: "Compute a flow map layout",
		Long: `Compute a flow map layout from origin-destination data.

The input may be a CSV flow list or a previously saved layout JSON.
The laid-out model is written as JSON, by default next to the input
as <input>.layout.json.`,
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
				Formats:    []string{pipeline.FormatJSON},
				Logger:     logger,
			}

			prog := newProgress(logger)
			var result *pipeline.Result
			run := func(mon layout.Monitor) error {
				opts.Monitor = mon
				var runErr error
				result, runErr = runner.Execute(cmd.Context(), opts)
				return runErr
			}
			if plain {
				err = run(layout.NopMonitor{})
			} else {
				err = runWithProgress("layout", run)
			}
			if err != nil {
				printError("layout failed: %v", err)
				return err
			}

			out := output
			if out == "" {
				out = layoutOutputPath(args[0])
			}
			if err := os.WriteFile(out, result.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
				return err
			}

			prog.done("layout complete")
			printSuccess("Laid out %d flows between %d nodes", result.Stats.FlowCount, result.Stats.NodeCount)
			printDetail("output: %s", out)
			printDetail("crossings: %d, obstacle overlaps: %d",
				result.Grade.FlowIntersections, result.Grade.FlowObstacleOverlaps)
			if result.CacheInfo.LayoutHit {
				printInfo("layout loaded from cache (use --refresh to recompute)")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <input>.layout.json)")
	cmd.Flags().StringVarP(&paramsFile, "params", "p", "", "TOML file with layout parameter overrides")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "override the iteration count")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress bar")

	return cmd
}

// layoutOutputPath derives the default output path for an input file,
// e.g. "flows.csv" becomes "flows.layout.json".
func layoutOutputPath(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".layout.json"
}

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartoflow/cartoflow/pkg/buildinfo"
)

// Execute runs the root command with os.Args under ctx.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Flow map layout engine",
		Long: `cartoflow computes uncluttered flow map layouts.

It imports origin-destination flow data, runs a force-directed layout
that bends flows into quadratic curves around nodes and each other,
and renders the result as SVG, Graphviz DOT, or JSON.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := LogInfo
			if verbose {
				level = LogDebug
			}
			logger := newLogger(os.Stderr, level)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.SetVersionTemplate(buildinfo.Template())

	cmd.AddCommand(
		newLayoutCmd(),
		newRenderCmd(),
		newServeCmd(),
		newCacheCmd(),
		newCompletionCmd(),
	)

	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

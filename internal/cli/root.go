package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdag/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "gitdag maps how branches and tags of a repository relate",
		Long: `gitdag builds the ancestry graph of a set of branches and tags: every
reference becomes a node, the merge bases that connect them are discovered
automatically, and only direct ancestry edges are kept.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./gitdag.toml)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

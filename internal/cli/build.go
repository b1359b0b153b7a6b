package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/config"
	"github.com/matzehuels/gitdag/pkg/errors"
	"github.com/matzehuels/gitdag/pkg/report"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	json     string // JSON output path, overrides [output] json
	dot      string // DOT output path, overrides [output] dot
	svg      string // SVG output path, overrides [output] svg
	caption  string // report caption, overrides [output] caption
	detailed bool   // show commit ids under names
	verify   bool   // check graph invariants after building
	fetch    bool   // fetch the configured remote first
	noCache  bool   // bypass the query cache
	quiet    bool   // do not print the graph
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [refs...]",
		Short: "Build the ancestry graph of the configured refs",
		Long: `Build the ancestry graph of the refs listed in gitdag.toml plus any given
on the command line, then write it as JSON, DOT or SVG.

Refs can be branches, tags or commit ids. Merge bases that connect them are
added automatically, and every edge is labelled with the number of commits
between its endpoints.`,
		Example: `  gitdag build master release/1.0 v1.0.1
  gitdag build --svg graph.svg
  gitdag build --fetch --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.json, "json", "", "write the graph as JSON")
	cmd.Flags().StringVar(&opts.dot, "dot", "", "write the graph as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "write the graph as SVG (or .pdf/.png)")
	cmd.Flags().StringVar(&opts.caption, "caption", "", "graph caption")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show commit ids under names")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "check graph invariants after building")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "fetch the configured remote before building")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the query cache")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the graph")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, args []string, opts buildOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	out := cfg.Output
	if opts.json != "" {
		out.JSON = opts.json
	}
	if opts.dot != "" {
		out.DOT = opts.dot
	}
	if opts.svg != "" {
		out.SVG = opts.svg
	}
	if opts.caption != "" {
		out.Caption = opts.caption
	}
	out.Detailed = out.Detailed || opts.detailed

	repo, err := c.openRepository(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer repo.Close()

	if opts.fetch {
		if err := c.fetch(ctx, repo); err != nil {
			return err
		}
	}

	specs, err := buildSpecs(cfg, args)
	if err != nil {
		return err
	}
	b, err := c.build(ctx, repo, specs, out.Caption)
	if err != nil {
		return err
	}

	if opts.verify {
		if err := b.Graph().View(func(g *ancestry.Graph) error { return g.Validate() }); err != nil {
			return fmt.Errorf("graph failed verification: %w", err)
		}
		printSuccess("Graph invariants hold")
	}

	r, err := b.Report(ctx)
	if err != nil {
		return errors.FromGraph(err)
	}

	if !opts.quiet {
		printNewline()
		printReport(r)
		printNewline()
	}
	printStats(r)
	n, err := writeOutputs(ctx, r, out)
	if err != nil {
		return err
	}
	if n > 0 && out.JSON != "" && out.SVG == "" {
		printNewline()
		printNextStep("Render it", appName+" render "+out.JSON)
	}
	return nil
}

// buildSpecs combines configured refs with refs given as arguments.
func buildSpecs(cfg *config.Config, args []string) ([]report.RefSpec, error) {
	specs := qualifyRefs(cfg.Refs, cfg.Repository.Remote)
	for _, arg := range args {
		if err := errors.ValidateRef(arg); err != nil {
			return nil, err
		}
		specs = append(specs, report.RefSpec{Ref: arg})
	}
	if len(specs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no refs to build; pass refs as arguments or add [[refs]] to %s", config.FileName)
	}
	return specs, nil
}

// build adds specs to a new builder, showing a spinner while the repository
// is queried.
func (c *CLI) build(ctx context.Context, repo *repository, specs []report.RefSpec, caption string) (*report.Builder, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	b := report.NewBuilder(repo, report.WithLogger(logger), report.WithCaption(caption))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d refs...", len(specs)))
	spinner.Start()
	err := b.AddAll(ctx, specs)
	spinner.Stop()
	if err != nil {
		return nil, errors.FromGraph(err)
	}

	prog.done(fmt.Sprintf("Built graph of %d commits from %d refs", b.Graph().Len(), len(specs)))
	return b, nil
}

func (c *CLI) fetch(ctx context.Context, repo *repository) error {
	spinner := newSpinnerWithContext(ctx, "Fetching...")
	spinner.Start()
	err := repo.Fetch(ctx)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.StopWithSuccess("Fetched remote refs")
	return nil
}

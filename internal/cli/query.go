package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/errors"
	"github.com/matzehuels/gitdag/pkg/report"
)

// queryOpts holds the command-line flags for the query command.
type queryOpts struct {
	pred    bool // list predecessors
	succ    bool // list successors
	all     bool // follow edges transitively
	noCache bool
}

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	var opts queryOpts

	cmd := &cobra.Command{
		Use:   "query <ref>",
		Short: "Show which tracked refs a commit descends from or leads to",
		Long: `Build the graph of the configured refs plus <ref>, then list the nodes
directly before (--pred) or after (--succ) it. With --all the listing
follows edges transitively. Without --pred or --succ both are shown.`,
		Example: `  gitdag query release/1.0 --pred
  gitdag query v1.0.1 --succ --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.pred, "pred", false, "list predecessors")
	cmd.Flags().BoolVar(&opts.succ, "succ", false, "list successors")
	cmd.Flags().BoolVar(&opts.all, "all", false, "follow edges transitively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the query cache")

	return cmd
}

func (c *CLI) runQuery(ctx context.Context, ref string, opts queryOpts) error {
	if err := errors.ValidateRef(ref); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	repo, err := c.openRepository(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer repo.Close()

	b, err := c.build(ctx, repo, qualifyRefs(cfg.Refs, cfg.Repository.Remote), cfg.Output.Caption)
	if err != nil {
		return err
	}
	id, err := b.Add(ctx, report.RefSpec{Ref: ref})
	if err != nil && !stderrors.Is(err, ancestry.ErrDuplicateNode) {
		return errors.FromGraph(err)
	}

	if !opts.pred && !opts.succ {
		opts.pred, opts.succ = true, true
	}
	g := b.Graph()

	self, _ := b.Node(id)
	printNewline()
	printKeyValue(id.Short(), nodeLabel(self))

	if opts.pred {
		query := g.DirectPredecessors
		if opts.all {
			query = g.AllPredecessors
		}
		if err := printRelatives(b, "Predecessors", id, query); err != nil {
			return err
		}
	}
	if opts.succ {
		query := g.DirectSuccessors
		if opts.all {
			query = g.AllSuccessors
		}
		if err := printRelatives(b, "Successors", id, query); err != nil {
			return err
		}
	}
	return nil
}

func printRelatives(b *report.Builder, title string, id ancestry.CommitID, query func(ancestry.CommitID) ([]ancestry.CommitID, error)) error {
	ids, err := query(id)
	if err != nil {
		return errors.FromGraph(err)
	}
	printNewline()
	fmt.Println(StyleTitle.Render(title))
	if len(ids) == 0 {
		printDetail("none")
		return nil
	}
	for _, rel := range ids {
		n, _ := b.Node(rel)
		printKeyValue(rel.Short(), nodeLabel(n))
	}
	return nil
}

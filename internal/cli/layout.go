package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/layout"
)

type layoutOpts struct {
	output     string
	drill      []string
	all        bool
	write      bool
	reset      bool
	iterations int
	seed       int64
}

// layoutCommand computes entity positions with the force layout.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{output: "-"}

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Compute entity positions with a force layout",
		Long: `Compute entity positions with a force layout.

Entities that already have a position stay where they are unless --reset is
given. By default the computed layout is printed as JSON; --write stores the
positions in the document instead.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := drillPath(s, opts.drill); err != nil {
				return err
			}

			lo := c.cfg.LayoutOptions()
			if opts.iterations > 0 {
				lo.Iterations = opts.iterations
			}
			if opts.seed != 0 {
				lo.Seed = opts.seed
			}

			targets := []*graph.Graph{s.Model.Current()}
			if opts.all {
				targets = targets[:0]
				s.Stack.Root().Walk(func(g *graph.Graph, _ int) bool {
					targets = append(targets, g)
					return true
				})
			}

			var last graph.Layout
			placed := 0
			for _, g := range targets {
				if opts.reset {
					for _, e := range g.Nodes {
						e.Position = nil
					}
				}
				if opts.write {
					last = layout.Apply(g, lo)
				} else {
					last = layout.Compute(g, lo)
				}
				placed += len(last.Positions)
			}

			if !opts.write {
				data, err := graph.MarshalLayout(last)
				if err != nil {
					return err
				}
				return writeOutput(opts.output, append(data, '\n'))
			}
			s.Model.Render()
			if err := s.SaveFile(args[0]); err != nil {
				return err
			}
			printSuccess("Placed %d entities in %d graphs", placed, len(targets))
			printFile(args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "layout JSON output, - for stdout")
	cmd.Flags().StringSliceVar(&opts.drill, "drill", nil, "entities to drill into first (comma-separated)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "lay out every level (implies --write)")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "store positions in the document")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "discard existing positions first")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "simulation steps (default from config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (default from config)")
	cmd.MarkFlagsMutuallyExclusive("all", "drill")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if opts.all && !opts.write {
			return cmd.Flags().Set("write", "true")
		}
		return nil
	}
	return cmd
}

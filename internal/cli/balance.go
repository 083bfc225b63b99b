package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/pipeline"
)

// layoutFlags are shared by balance and render.
type layoutFlags struct {
	stored   bool // treat the argument as a stored map name
	collapse bool
	depth    int
	paint    bool
	maxDepth int
	noCache  bool
	refresh  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.stored, "stored", false, "read the map from the store instead of a file")
	cmd.Flags().BoolVar(&f.collapse, "collapse", false, "collapse the map and reopen --depth generations below the root")
	cmd.Flags().IntVar(&f.depth, "depth", 0, "generations left open when collapsing (default from config)")
	cmd.Flags().BoolVar(&f.paint, "paint", false, "recolor branches and rescale text by depth")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "depth cap for text scaling (0 = tree height)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
}

// pipelineOptions builds pipeline options for the map named by arg.
func (c *CLI) pipelineOptions(ctx context.Context, arg string, f *layoutFlags) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Collapse:     f.collapse,
		ExpandDepth:  f.depth,
		Paint:        f.paint,
		MaxDepth:     f.maxDepth,
		NodeSpacing:  cfg.Layout.NodeSpacing,
		LayerSpacing: cfg.Layout.LayerSpacing,
		Refresh:      f.refresh,
		Logger:       c.Logger,
	}
	if opts.Collapse && opts.ExpandDepth == 0 {
		opts.ExpandDepth = cfg.ExpandDepth
	}
	if !f.stored {
		opts.Input = arg
		return opts, nil
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return opts, err
	}
	defer st.Close()
	if opts.Data, err = st.Load(ctx, arg); err != nil {
		return opts, err
	}
	opts.Input = arg
	return opts, nil
}

// balanceCommand creates the balance command.
func (c *CLI) balanceCommand() *cobra.Command {
	var (
		flags   layoutFlags
		output  string
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "balance [file]",
		Short: "Balance branches across both sides of the root and lay out the map",
		Long: `Balance assigns every branch of the root to the left or right side so that
both sides carry about the same number of leaves, then positions the nodes.
The result is written as a tree model JSON document.`,
		Example: `  mindmap balance physics.json -o balanced.json
  mindmap balance physics.json --collapse --depth 2 --in-place
  mindmap balance physics --stored`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && (flags.stored || output != "") {
				return fmt.Errorf("--in-place cannot be combined with --stored or --output")
			}
			if inPlace {
				output = args[0]
			}
			return c.runBalance(cmd.Context(), args[0], output, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "overwrite the input file")

	return cmd
}

func (c *CLI) runBalance(ctx context.Context, arg, output string, flags *layoutFlags) error {
	opts, err := c.pipelineOptions(ctx, arg, flags)
	if err != nil {
		return err
	}
	opts.Formats = []string{pipeline.FormatJSON}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Balanced %d nodes", result.Stats.NodeCount))

	data := result.Artifacts[pipeline.FormatJSON]
	if output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Balanced %s", arg)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	printFile(output)
	return nil
}

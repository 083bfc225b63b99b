package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/pipeline"
)

// renderOpts holds the output flags of the render command.
type renderOpts struct {
	output   string   // output file (one format) or base path (several)
	formats  []string // json, dot, svg, png, pdf
	all      bool     // draw hidden nodes
	detailed bool     // key and leaf count in labels
	scale    float64  // PNG resolution multiplier
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		opts       renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Balance a map and render it as DOT, SVG, PNG or PDF",
		Example: `  mindmap render physics.json
  mindmap render physics.json -f svg,png -o out/physics
  mindmap render physics --stored --collapse --depth 2 --paint`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &flags, &opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "draw collapsed nodes too")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node keys and leaf counts")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, arg string, flags *layoutFlags, ro *renderOpts) error {
	opts, err := c.pipelineOptions(ctx, arg, flags)
	if err != nil {
		return err
	}
	opts.Formats = ro.formats
	opts.All = ro.all
	opts.Detailed = ro.detailed
	opts.PNGScale = ro.scale

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+arg+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s", arg))
	printStats(result.Stats, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)

	paths, err := writeArtifacts(arg, ro.output, result.Artifacts)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes every artifact and returns the paths in format
// order. A single artifact goes to output verbatim; several share output
// (or the input name) as a base path.
func writeArtifacts(input, output string, artifacts map[string][]byte) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + f
		if output != "" && len(formats) == 1 {
			path = output
		}
		if path == input {
			return nil, fmt.Errorf("refusing to overwrite input %s; pass --output", input)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

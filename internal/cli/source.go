package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// sourceCommand creates the source command, which prints the link behind a
// node's "view section" action.
func (c *CLI) sourceCommand() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "source [map] [key]",
		Short: "Print the source page link for a node",
		Long: `Source walks up from a node to the nearest ancestor that records the page the
map was generated from, and prints a link to the section named by --section
(the node's own text by default).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			var link string
			err = sessions.View(ctx, args[0], func(ed *mindmap.Editor) error {
				n, ok := ed.Node(key)
				if !ok {
					return apperrors.FromTree(&tree.UnknownNodeError{Key: key})
				}
				title, ok := ed.ResolveSourceTitle(key)
				if !ok {
					return fmt.Errorf("node %d has no source page", key)
				}
				s := section
				if s == "" {
					s = n.Text
				}
				link = mindmap.SectionURL(cfg.Source.BaseURL, title, s)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, link)
			return nil
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "section heading (default: the node's text)")
	return cmd
}

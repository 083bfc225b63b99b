package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// editCommands creates the commands that change a stored map. Each one
// loads the map, applies a single editor operation and saves it back.
func (c *CLI) editCommands() []*cobra.Command {
	return []*cobra.Command{
		c.expandCommand(),
		c.collapseCommand(),
		c.expandAllCommand(),
		c.collapseAllCommand(),
		c.rebalanceCommand(),
		c.addCommand(),
		c.removeCommand(),
		c.moveCommand(),
		c.renameCommand(),
	}
}

// edit applies fn to the stored map name and prints the resulting sides.
func (c *CLI) edit(ctx context.Context, name, done string, fn func(ctx context.Context, ed *mindmap.Editor) error) error {
	sessions, closeStore, err := c.newSessions(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var left, right int
	_, err = sessions.Edit(ctx, name, func(ctx context.Context, ed *mindmap.Editor) error {
		if err := fn(ctx, ed); err != nil {
			return err
		}
		left, right = ed.Sums()
		return nil
	})
	if err != nil {
		return apperrors.FromTree(err)
	}
	loggerFromContext(ctx).Debug("saved map", "map", name, "left", left, "right", right)
	printSuccess("%s", done)
	printSides(left, right)
	return nil
}

func parseKey(s string) (tree.Key, error) {
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid node key %q: must be an integer", s)
	}
	return tree.Key(k), nil
}

func (c *CLI) expandCommand() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "expand [map] [key]",
		Short: "Show exactly --depth generations below a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			if err := apperrors.ValidateDepth(depth); err != nil {
				return err
			}
			return c.edit(cmd.Context(), args[0], fmt.Sprintf("Expanded node %d to depth %d", key, depth),
				func(ctx context.Context, ed *mindmap.Editor) error {
					return ed.SetVisibility(ctx, key, true, depth)
				})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", mindmap.DefaultExpandDepth, "generations to reveal (0 collapses)")
	return cmd
}

func (c *CLI) collapseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse [map] [key]",
		Short: "Hide every descendant of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			return c.edit(cmd.Context(), args[0], fmt.Sprintf("Collapsed node %d", key),
				func(ctx context.Context, ed *mindmap.Editor) error {
					return ed.Collapse(ctx, key)
				})
		},
	}
}

func (c *CLI) expandAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expand-all [map]",
		Short: "Make every node visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], "Expanded all nodes", func(ctx context.Context, ed *mindmap.Editor) error {
				return ed.ExpandAll(ctx)
			})
		},
	}
}

func (c *CLI) collapseAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse-all [map]",
		Short: "Collapse the map down to its root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], "Collapsed all nodes", func(ctx context.Context, ed *mindmap.Editor) error {
				return ed.CollapseAll(ctx)
			})
		},
	}
}

func (c *CLI) rebalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebalance [map]",
		Short: "Reassign every branch to a side and lay the map out again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], "Rebalanced "+args[0], func(ctx context.Context, ed *mindmap.Editor) error {
				return ed.RebalanceAndLayout(ctx)
			})
		},
	}
}

func (c *CLI) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add [map] [parent] [text...]",
		Short: "Add a child node",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseKey(args[1])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			var key tree.Key
			err = c.edit(cmd.Context(), args[0], fmt.Sprintf("Added child of node %d", parent),
				func(ctx context.Context, ed *mindmap.Editor) error {
					var err error
					key, err = ed.AddChild(ctx, parent, text)
					return err
				})
			if err != nil {
				return err
			}
			printKeyValue("key", strconv.Itoa(int(key)))
			return nil
		},
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [map] [key]",
		Aliases: []string{"rm"},
		Short:   "Delete a node and its subtree",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			return c.edit(cmd.Context(), args[0], fmt.Sprintf("Removed node %d", key),
				func(ctx context.Context, ed *mindmap.Editor) error {
					return ed.Delete(ctx, key)
				})
		},
	}
}

func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "move [map] [key] [left|right]",
		Short:     "Move a branch of the root to the other side",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"left", "right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			side, err := tree.ParseDirection(args[2])
			if err != nil || side == tree.None {
				return fmt.Errorf("invalid side %q: must be left or right", args[2])
			}
			return c.edit(cmd.Context(), args[0], fmt.Sprintf("Moved node %d to the %s", key, side),
				func(ctx context.Context, ed *mindmap.Editor) error {
					return ed.MoveBranch(ctx, key, side)
				})
		},
	}
}

func (c *CLI) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [map] [key] [text...]",
		Short: "Change the label of a node",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			return c.edit(cmd.Context(), args[0], fmt.Sprintf("Renamed node %d", key),
				func(ctx context.Context, ed *mindmap.Editor) error {
					return ed.SetText(ctx, key, text)
				})
		},
	}
}

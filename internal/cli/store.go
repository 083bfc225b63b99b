package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// storeCommand creates the store command for managing saved maps.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage maps in the configured store",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

type mapSummary struct {
	name                string
	nodes, height       int
	left, right, hidden int
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored maps",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			names, err := sessions.Store().List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No maps stored")
				printNextStep("Add one with", appName+" store put <name> <file>")
				return nil
			}

			summaries := make([]mapSummary, 0, len(names))
			for _, name := range names {
				s := mapSummary{name: name}
				err := sessions.View(ctx, name, func(ed *mindmap.Editor) error {
					s.nodes, s.height = ed.Len(), ed.Height()
					s.left, s.right = ed.Sums()
					s.hidden = s.nodes - len(ed.VisibleSet())
					return nil
				})
				if err != nil {
					c.Logger.Warn("skipping unreadable map", "name", name, "error", err)
					continue
				}
				summaries = append(summaries, s)
			}
			fmt.Fprintln(c.Out, renderMapTable(summaries))
			return nil
		},
	}
}

func renderMapTable(summaries []mapSummary) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.name,
			strconv.Itoa(s.nodes),
			strconv.Itoa(s.height),
			strconv.Itoa(s.left),
			strconv.Itoa(s.right),
			strconv.Itoa(s.hidden),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(colorCyan)
	numStyle := lipgloss.NewStyle().Foreground(colorWhite).Align(lipgloss.Right)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Map", "Nodes", "Height", "Left", "Right", "Hidden").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			}
			return numStyle
		}).
		Render()
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Print or export a stored map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			doc, err := sessions.Document(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return document.Write(doc, c.Out)
			}
			if err := document.WriteFile(doc, output); err != nil {
				return err
			}
			printSuccess("Exported %s", args[0])
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "put [name] [file]",
		Short: "Store a map under a name",
		Long: `Put reads a GoJS tree-model file and stores it. The map is balanced, folded to
the configured expand depth and laid out first unless --raw is given, in
which case it is stored exactly as read.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, path := args[0], args[1]

			doc, err := document.ReadFile(path)
			if err != nil {
				return err
			}
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if raw {
				if err := sessions.Save(ctx, name, doc); err != nil {
					return err
				}
				printSuccess("Stored %s (%d nodes, unbalanced)", name, len(doc.Nodes))
				return nil
			}
			out, err := sessions.Put(ctx, name, doc)
			if err != nil {
				return err
			}
			printSuccess("Stored %s (%d nodes)", name, len(out.Nodes))
			printNextStep("Browse it with", appName+" browse "+name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "store without balancing or layout")
	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [name]",
		Aliases: []string{"rm"},
		Short:   "Delete a stored map",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := sessions.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/session"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// browseCommand creates the browse command, an interactive outline of a
// stored map that expands, collapses and moves branches in place.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [map]",
		Short: "Explore and fold a stored map interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			m, err := newBrowseModel(ctx, sessions, args[0])
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if bm, ok := final.(browseModel); ok && bm.edits > 0 {
				printSuccess("Saved %d edits to %s", bm.edits, args[0])
			}
			return nil
		},
	}
}

// Outline styles
var (
	outlineSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	outlineLeftStyle     = lipgloss.NewStyle().Foreground(colorBlue)
	outlineRightStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	outlineDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	outlineErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// outlineRow is one visible node in depth-first order.
type outlineRow struct {
	Key      tree.Key
	Depth    int
	Text     string
	Dir      tree.Direction
	Leaves   int
	Children int
	Expanded bool
}

// outline is a read of the map after an edit.
type outline struct {
	Rows        []outlineRow
	Left, Right int
}

// editResultMsg carries the outcome of an edit back into the model.
type editResultMsg struct {
	outline outline
	status  string
	err     error
}

// browseModel is the bubbletea model for the outline view.
type browseModel struct {
	ctx      context.Context
	sessions *session.Manager
	name     string

	outline outline
	Cursor  int
	Offset  int
	Height  int

	status string
	err    error
	busy   bool
	edits  int
}

func newBrowseModel(ctx context.Context, sessions *session.Manager, name string) (browseModel, error) {
	m := browseModel{ctx: ctx, sessions: sessions, name: name, Height: 20}
	o, err := m.read()
	if err != nil {
		return m, err
	}
	m.outline = o
	return m, nil
}

// read builds the outline of every visible node.
func (m browseModel) read() (outline, error) {
	var o outline
	err := m.sessions.View(m.ctx, m.name, func(ed *mindmap.Editor) error {
		o.Left, o.Right = ed.Sums()
		var walk func(k tree.Key, depth int)
		walk = func(k tree.Key, depth int) {
			n, ok := ed.Node(k)
			if !ok {
				return
			}
			kids := ed.Children(k)
			o.Rows = append(o.Rows, outlineRow{
				Key:      k,
				Depth:    depth,
				Text:     n.Text,
				Dir:      n.Dir,
				Leaves:   n.Leaves,
				Children: len(kids),
				Expanded: n.Expanded,
			})
			if !n.Expanded {
				return
			}
			for _, c := range kids {
				walk(c, depth+1)
			}
		}
		walk(tree.RootKey, 0)
		return nil
	})
	return o, err
}

// edit returns a command that applies fn to the stored map and reads it back.
func (m browseModel) edit(status string, fn func(ctx context.Context, ed *mindmap.Editor) error) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.sessions.Edit(m.ctx, m.name, fn); err != nil {
			return editResultMsg{err: err}
		}
		o, err := m.read()
		return editResultMsg{outline: o, status: status, err: err}
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) selected() (outlineRow, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.outline.Rows) {
		return outlineRow{}, false
	}
	return m.outline.Rows[m.Cursor], true
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editResultMsg:
		m.busy = false
		if msg.err != nil {
			m.err, m.status = msg.err, ""
			return m, nil
		}
		m.err, m.status = nil, msg.status
		m.outline = msg.outline
		m.edits++
		m.clampCursor()
		return m, nil
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m browseModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.clampCursor()
		return m, nil
	case "down", "j":
		if m.Cursor < len(m.outline.Rows)-1 {
			m.Cursor++
		}
		m.clampCursor()
		return m, nil
	}

	if m.busy {
		return m, nil
	}
	row, ok := m.selected()
	if !ok {
		return m, nil
	}

	var cmd tea.Cmd
	switch key {
	case "enter", " ":
		if row.Children == 0 {
			return m, nil
		}
		if row.Expanded {
			cmd = m.edit(fmt.Sprintf("Collapsed %q", row.Text), func(ctx context.Context, ed *mindmap.Editor) error {
				return ed.Collapse(ctx, row.Key)
			})
		} else {
			cmd = m.edit(fmt.Sprintf("Expanded %q", row.Text), func(ctx context.Context, ed *mindmap.Editor) error {
				return ed.Expand(ctx, row.Key)
			})
		}
	case "E":
		cmd = m.edit("Expanded all", func(ctx context.Context, ed *mindmap.Editor) error {
			return ed.ExpandAll(ctx)
		})
	case "C":
		cmd = m.edit("Collapsed all", func(ctx context.Context, ed *mindmap.Editor) error {
			return ed.CollapseAll(ctx)
		})
	case "r":
		cmd = m.edit("Rebalanced", func(ctx context.Context, ed *mindmap.Editor) error {
			return ed.RebalanceAndLayout(ctx)
		})
	case "a":
		cmd = m.edit(fmt.Sprintf("Added child to %q", row.Text), func(ctx context.Context, ed *mindmap.Editor) error {
			_, err := ed.AddChild(ctx, row.Key, "")
			return err
		})
	case "<", ">":
		side := tree.Left
		if key == ">" {
			side = tree.Right
		}
		cmd = m.edit(fmt.Sprintf("Moved %q to the %s", row.Text, side), func(ctx context.Context, ed *mindmap.Editor) error {
			return ed.MoveBranch(ctx, row.Key, side)
		})
	default:
		return m, nil
	}
	m.busy = true
	return m, cmd
}

func (m *browseModel) clampCursor() {
	if m.Cursor >= len(m.outline.Rows) {
		m.Cursor = len(m.outline.Rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.name))
	b.WriteString("  ")
	b.WriteString(outlineDimStyle.Render(fmt.Sprintf("%d left · %d right", m.outline.Left, m.outline.Right)))
	b.WriteString("\n")
	b.WriteString(outlineDimStyle.Render("↑/↓ navigate  ⏎ fold  E/C all  </> side  a add  r rebalance  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.outline.Rows))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(outlineErrorStyle.Render(iconError + " " + m.err.Error()))
	case m.busy:
		b.WriteString(outlineDimStyle.Render("saving..."))
	case m.status != "":
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + m.status)
	}
	return b.String()
}

func (m browseModel) renderRow(i int) string {
	row := m.outline.Rows[i]

	cursor := "  "
	if i == m.Cursor {
		cursor = "▸ "
	}
	fold := " "
	if row.Children > 0 {
		fold = "+"
		if row.Expanded {
			fold = "-"
		}
	}

	text := row.Text
	if i == m.Cursor {
		text = outlineSelectedStyle.Render(text)
	}
	side := ""
	switch row.Dir {
	case tree.Left:
		side = outlineLeftStyle.Render("L")
	case tree.Right:
		side = outlineRightStyle.Render("R")
	}

	return fmt.Sprintf("%s%s%s %s %s %s",
		cursor,
		strings.Repeat("  ", row.Depth),
		fold,
		text,
		side,
		outlineDimStyle.Render(fmt.Sprintf("(%d)", row.Leaves)),
	)
}

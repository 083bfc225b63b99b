package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/mindmap/pkg/document"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/pipeline"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// Tool arguments. Node keys arrive as JSON numbers.

type NameArgs struct {
	Name string `json:"name"`
}

type BalanceArgs struct {
	Model    string `json:"model"`
	Collapse bool   `json:"collapse"`
	Depth    int    `json:"depth"`
	Paint    bool   `json:"paint"`
}

type PutMapArgs struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type VisibilityArgs struct {
	Name   string `json:"name"`
	Key    int    `json:"key"`
	Expand bool   `json:"expand"`
	Depth  int    `json:"depth"`
}

type NodeArgs struct {
	Name string `json:"name"`
	Key  int    `json:"key"`
}

type AddChildArgs struct {
	Name   string `json:"name"`
	Parent int    `json:"parent"`
	Text   string `json:"text"`
}

type MoveArgs struct {
	Name string `json:"name"`
	Key  int    `json:"key"`
	Side string `json:"side"`
}

type TextArgs struct {
	Name string `json:"name"`
	Key  int    `json:"key"`
	Text string `json:"text"`
}

type SourceArgs struct {
	Name    string `json:"name"`
	Key     int    `json:"key"`
	Section string `json:"section"`
}

type RenderArgs struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	All      bool   `json:"all"`
	Detailed bool   `json:"detailed"`
}

// SourceLink is the result of the source_link tool.
type SourceLink struct {
	Key   int    `json:"key"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ChildAdded is the result of the add_child tool.
type ChildAdded struct {
	Key   int `json:"key"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

func (s *Server) listMaps(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, error) {
	names, err := s.sessions.Store().List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(map[string][]string{"maps": names})
}

func (s *Server) getMap(ctx context.Context, _ mcp.CallToolRequest, args NameArgs) (*mcp.CallToolResult, error) {
	doc, err := s.sessions.Document(ctx, args.Name)
	if err != nil {
		return toolError(err), nil
	}
	return documentResult(doc)
}

func (s *Server) balance(ctx context.Context, _ mcp.CallToolRequest, args BalanceArgs) (*mcp.CallToolResult, error) {
	doc, err := parseModel(args.Model)
	if err != nil {
		return toolError(err), nil
	}
	if err := apperrors.ValidateDepth(args.Depth); err != nil {
		return toolError(err), nil
	}
	ed, err := pipeline.GenerateLayout(ctx, doc, pipeline.Options{
		Collapse:    args.Collapse,
		ExpandDepth: args.Depth,
		Paint:       args.Paint,
		Logger:      s.log,
	})
	if err != nil {
		return toolError(err), nil
	}
	out := document.New(ed.Snapshot())
	out.Extra = doc.Extra
	return documentResult(out)
}

func (s *Server) putMap(ctx context.Context, _ mcp.CallToolRequest, args PutMapArgs) (*mcp.CallToolResult, error) {
	if err := apperrors.ValidateMapName(args.Name); err != nil {
		return toolError(err), nil
	}
	doc, err := parseModel(args.Model)
	if err != nil {
		return toolError(err), nil
	}
	out, err := s.sessions.Put(ctx, args.Name, doc)
	if err != nil {
		return toolError(err), nil
	}
	return documentResult(out)
}

// edit applies fn to a stored map and returns the updated model.
func (s *Server) edit(ctx context.Context, name string, fn func(ctx context.Context, ed *mindmap.Editor) error) (*mcp.CallToolResult, error) {
	doc, err := s.sessions.Edit(ctx, name, fn)
	if err != nil {
		return toolError(err), nil
	}
	return documentResult(doc)
}

func (s *Server) rebalance(ctx context.Context, _ mcp.CallToolRequest, args NameArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.RebalanceAndLayout(ctx)
	})
}

func (s *Server) setVisibility(ctx context.Context, _ mcp.CallToolRequest, args VisibilityArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.SetVisibility(ctx, tree.Key(args.Key), args.Expand, args.Depth)
	})
}

func (s *Server) expandAll(ctx context.Context, _ mcp.CallToolRequest, args NameArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.ExpandAll(ctx)
	})
}

func (s *Server) collapseAll(ctx context.Context, _ mcp.CallToolRequest, args NameArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.CollapseAll(ctx)
	})
}

func (s *Server) addChild(ctx context.Context, _ mcp.CallToolRequest, args AddChildArgs) (*mcp.CallToolResult, error) {
	var out ChildAdded
	_, err := s.sessions.Edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		k, err := ed.AddChild(ctx, tree.Key(args.Parent), args.Text)
		if err != nil {
			return err
		}
		out.Key = int(k)
		out.Left, out.Right = ed.Sums()
		return nil
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(out)
}

func (s *Server) deleteNode(ctx context.Context, _ mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.Delete(ctx, tree.Key(args.Key))
	})
}

func (s *Server) moveBranch(ctx context.Context, _ mcp.CallToolRequest, args MoveArgs) (*mcp.CallToolResult, error) {
	side, err := tree.ParseDirection(args.Side)
	if err != nil || side == tree.None {
		return toolError(apperrors.New(apperrors.ErrCodeInvalidInput, "side must be left or right")), nil
	}
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.MoveBranch(ctx, tree.Key(args.Key), side)
	})
}

func (s *Server) setText(ctx context.Context, _ mcp.CallToolRequest, args TextArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, args.Name, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.SetText(ctx, tree.Key(args.Key), args.Text)
	})
}

func (s *Server) sourceLink(ctx context.Context, _ mcp.CallToolRequest, args SourceArgs) (*mcp.CallToolResult, error) {
	key := tree.Key(args.Key)
	var link SourceLink
	err := s.sessions.View(ctx, args.Name, func(ed *mindmap.Editor) error {
		n, ok := ed.Node(key)
		if !ok {
			return &tree.UnknownNodeError{Key: key}
		}
		title, ok := ed.ResolveSourceTitle(key)
		if !ok {
			return apperrors.New(apperrors.ErrCodeNotFound, "node %d has no source page", key)
		}
		section := args.Section
		if section == "" {
			section = n.Text
		}
		link = SourceLink{Key: args.Key, Title: title, URL: mindmap.SectionURL(s.sourceBase, title, section)}
		return nil
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(link)
}

func (s *Server) render(ctx context.Context, _ mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, error) {
	format := args.Format
	if format == "" {
		format = pipeline.FormatSVG
	}
	if format != pipeline.FormatDOT && format != pipeline.FormatSVG {
		return toolError(apperrors.New(apperrors.ErrCodeInvalidFormat, "format must be dot or svg, got %q", format)), nil
	}
	doc, err := s.sessions.Document(ctx, args.Name)
	if err != nil {
		return toolError(err), nil
	}
	artifacts, _, _, err := s.runner.RenderWithCacheInfo(ctx, doc.Nodes, pipeline.Options{
		Formats:  []string{format},
		All:      args.All,
		Detailed: args.Detailed,
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(artifacts[format])), nil
}

// =============================================================================
// Helpers
// =============================================================================

func parseModel(model string) (*document.Document, error) {
	if model == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "model is required")
	}
	doc, err := document.Unmarshal([]byte(model))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "invalid model")
	}
	return doc, nil
}

// toolError reports err to the client as a failed tool call, prefixed with
// its error code.
func toolError(err error) *mcp.CallToolResult {
	err = apperrors.FromTree(err)
	if code := apperrors.GetCode(err); code != "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, apperrors.UserMessage(err)))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func documentResult(doc *document.Document) (*mcp.CallToolResult, error) {
	data, err := document.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal map: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

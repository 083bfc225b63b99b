// Package mcpserver exposes the mind map engine as Model Context Protocol
// tools, so assistants can balance, fold and edit stored maps.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/mindmap/pkg/buildinfo"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/pipeline"
	"github.com/matzehuels/mindmap/pkg/session"
)

// DefaultEndpoint is the path the streamable HTTP transport listens on.
const DefaultEndpoint = "/mcp"

// Options configures a Server.
type Options struct {
	Sessions   *session.Manager
	Runner     *pipeline.Runner
	Logger     *log.Logger
	SourceBase string
}

// Server wraps an MCP server with the mind map tools registered.
type Server struct {
	mcp        *server.MCPServer
	sessions   *session.Manager
	runner     *pipeline.Runner
	log        *log.Logger
	sourceBase string
}

// New creates an MCP server with every tool registered.
func New(opts Options) *Server {
	s := &Server{
		sessions:   opts.Sessions,
		runner:     opts.Runner,
		log:        opts.Logger,
		sourceBase: opts.SourceBase,
	}
	if s.log == nil {
		s.log = log.New(io.Discard)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.log)
	}
	if s.sourceBase == "" {
		s.sourceBase = mindmap.DefaultSourceBase
	}
	s.mcp = server.NewMCPServer(
		"mindmap",
		buildinfo.Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves on stdin and stdout until ctx is done or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.log.Info("serving MCP on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(DefaultEndpoint))
	errc := make(chan error, 1)
	go func() { errc <- httpServer.Start(addr) }()
	s.log.Info("serving MCP over HTTP", "addr", addr, "endpoint", DefaultEndpoint)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_maps",
		mcp.WithDescription("List the names of all stored mind maps"),
	), mcp.NewTypedToolHandler(s.listMaps))

	s.mcp.AddTool(mcp.NewTool("get_map",
		mcp.WithDescription("Get a stored mind map as a GoJS tree model"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
	), mcp.NewTypedToolHandler(s.getMap))

	s.mcp.AddTool(mcp.NewTool("balance",
		mcp.WithDescription("Balance a mind map's branches across the left and right side of the root and lay it out. Nothing is stored."),
		mcp.WithString("model", mcp.Required(), mcp.Description("GoJS tree model JSON with a nodeDataArray")),
		mcp.WithBoolean("collapse", mcp.Description("Collapse the map and reopen only the first depth generations")),
		mcp.WithNumber("depth", mcp.Description("Generations left open below the root when collapsing (default 1)")),
		mcp.WithBoolean("paint", mcp.Description("Recolor branches and rescale text by depth")),
	), mcp.NewTypedToolHandler(s.balance))

	s.mcp.AddTool(mcp.NewTool("put_map",
		mcp.WithDescription("Store a mind map under a name, balanced and laid out"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name to store the map under")),
		mcp.WithString("model", mcp.Required(), mcp.Description("GoJS tree model JSON with a nodeDataArray")),
	), mcp.NewTypedToolHandler(s.putMap))

	s.mcp.AddTool(mcp.NewTool("rebalance",
		mcp.WithDescription("Reassign every branch of a stored map to a side and lay it out again"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
	), mcp.NewTypedToolHandler(s.rebalance))

	s.mcp.AddTool(mcp.NewTool("set_visibility",
		mcp.WithDescription("Expand a node to exactly depth generations, or collapse it"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key of the node")),
		mcp.WithBoolean("expand", mcp.Required(), mcp.Description("true to expand, false to collapse")),
		mcp.WithNumber("depth", mcp.Description("Generations to reveal when expanding (0 collapses)")),
	), mcp.NewTypedToolHandler(s.setVisibility))

	s.mcp.AddTool(mcp.NewTool("expand_all",
		mcp.WithDescription("Make every node of a stored map visible"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
	), mcp.NewTypedToolHandler(s.expandAll))

	s.mcp.AddTool(mcp.NewTool("collapse_all",
		mcp.WithDescription("Collapse every node of a stored map down to the root"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
	), mcp.NewTypedToolHandler(s.collapseAll))

	s.mcp.AddTool(mcp.NewTool("add_child",
		mcp.WithDescription("Add a child node and return its key"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("parent", mcp.Required(), mcp.Description("Key of the parent node")),
		mcp.WithString("text", mcp.Description("Label of the new node")),
	), mcp.NewTypedToolHandler(s.addChild))

	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and its whole subtree, then rebalance"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key of the node")),
	), mcp.NewTypedToolHandler(s.deleteNode))

	s.mcp.AddTool(mcp.NewTool("move_branch",
		mcp.WithDescription("Move a direct child of the root, with its subtree, to the given side"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key of the branch")),
		mcp.WithString("side", mcp.Required(), mcp.Enum("left", "right"), mcp.Description("Target side")),
	), mcp.NewTypedToolHandler(s.moveBranch))

	s.mcp.AddTool(mcp.NewTool("set_text",
		mcp.WithDescription("Change the label of a node"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key of the node")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New label")),
	), mcp.NewTypedToolHandler(s.setText))

	s.mcp.AddTool(mcp.NewTool("source_link",
		mcp.WithDescription("Resolve the source page of a node and link to a section of it"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key of the node")),
		mcp.WithString("section", mcp.Description("Section heading (defaults to the node's text)")),
	), mcp.NewTypedToolHandler(s.sourceLink))

	s.mcp.AddTool(mcp.NewTool("render",
		mcp.WithDescription("Render a stored map as DOT or SVG text"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored map")),
		mcp.WithString("format", mcp.Enum("dot", "svg"), mcp.Description("Output format (default svg)")),
		mcp.WithBoolean("all", mcp.Description("Draw hidden nodes too")),
		mcp.WithBoolean("detailed", mcp.Description("Show key and leaf count in labels")),
	), mcp.NewTypedToolHandler(s.render))
}

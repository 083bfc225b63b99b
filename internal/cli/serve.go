package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/internal/mcpserver"
	"github.com/matzehuels/mindmap/internal/server"
)

const defaultSweepInterval = time.Minute

// serveCommand creates the serve command, which runs the HTTP editor backend.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		withMCP bool
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP editor backend",
		Long: `Serve exposes stored maps over HTTP: the endpoints the browser editor saves to
and loads from, plus a JSON API for folding, moving and rendering maps.
With --mcp the MCP tools are served on server.mcp_addr as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			go sessions.Run(ctx, defaultSweepInterval)

			errc := make(chan error, 2)
			if withMCP {
				ms := mcpserver.New(mcpserver.Options{
					Sessions:   sessions,
					Runner:     runner,
					Logger:     c.Logger,
					SourceBase: cfg.Source.BaseURL,
				})
				go func() { errc <- ms.ServeHTTP(ctx, cfg.Server.MCPAddr) }()
			}

			srv := server.New(server.Options{
				Sessions:   sessions,
				Runner:     runner,
				Logger:     c.Logger,
				SourceBase: cfg.Source.BaseURL,
			})
			go func() { errc <- srv.ListenAndServe(ctx, addr) }()

			err = <-errc
			cancel()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "also serve MCP over HTTP on server.mcp_addr")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable render caching")
	return cmd
}

// mcpCommand creates the mcp command, which serves the map tools to MCP
// clients over stdio or HTTP.
func (c *CLI) mcpCommand() *cobra.Command {
	var (
		httpAddr string
		noCache  bool
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve map tools over the Model Context Protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cfg, err := c.config()
			if err != nil {
				return err
			}
			sessions, closeStore, err := c.newSessions(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			go sessions.Run(ctx, defaultSweepInterval)

			ms := mcpserver.New(mcpserver.Options{
				Sessions:   sessions,
				Runner:     runner,
				Logger:     c.Logger,
				SourceBase: cfg.Source.BaseURL,
			})
			if httpAddr != "" {
				return ms.ServeHTTP(ctx, httpAddr)
			}
			return ms.ServeStdio(ctx)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable render caching")
	return cmd
}

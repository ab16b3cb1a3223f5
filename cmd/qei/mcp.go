package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/mcpserver"
)

type mcpOptions struct {
	source sourceFlags
	addr   string
	path   string
	apiKey string
}

func newMCPCmd() *cobra.Command {
	opts := &mcpOptions{}
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ranking tools over MCP",
		Long:  "Starts a streamable-HTTP MCP server exposing rank_quarterbacks and score_quarterback. Set QEI_MCP_API_KEY to require a key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", ":8090", "HTTP listen address")
	cmd.Flags().StringVar(&opts.path, "path", "/mcp", "MCP endpoint path")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("QEI_MCP_API_KEY"), "Key required in X-API-Key or a bearer token")
	return cmd
}

func runMCP(cmd *cobra.Command, opts *mcpOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd, opts.source)
	if err != nil {
		return err
	}
	defer a.Close()

	tools := mcpserver.New(a.Service, version, mcpserver.WithAPIKey(opts.apiKey))
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           tools.Handler(opts.path),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("MCP HTTP server listening", "addr", opts.addr, "path", opts.path, "source", a.Service.SourceName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("mcp server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

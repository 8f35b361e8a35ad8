// Package serve provides the serve command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/server"
)

type serveOptions struct {
	cmdutil.GlobalOptions
	addr       string
	noFetch    bool
	logOut     io.Writer
	onListen   func(addr string)
	shutdownIn time.Duration
}

// NewCmdServe creates the serve command.
func NewCmdServe() *cobra.Command {
	opts := &serveOptions{shutdownIn: 10 * time.Second}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversions over HTTP",
		Long: `Start an HTTP server exposing the conversions:

  POST /transform/wikitext/to/html[/{title}]
  POST /transform/html/to/wikitext[/{title}]
  GET  /health

Request bodies are JSON or form posts with "wikitext" or "html" fields.
Templates are fetched from the configured wiki unless --no-fetch is given.
Requests are logged as JSON to stderr.`,
		Example: `  # Listen on the default address
  wtc serve

  # Listen on another port without template fetches
  wtc serve --addr :9000 --no-fetch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.GlobalOptions = cmdutil.Globals(cmd)
			opts.logOut = cmd.ErrOrStderr()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().BoolVar(&opts.noFetch, "no-fetch", false, "Report every template missing instead of fetching it")

	return cmd
}

// runServe serves until ctx is done, then shuts down gracefully.
func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(opts.logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var sources api.PageSourceGetter
	if !opts.noFetch {
		sources = api.NewClient(cfg.URL(), cfg.AccessToken)
	}

	httpServer := &http.Server{
		Handler:      server.NewServer(cfg, sources, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.addr, err)
	}
	if opts.onListen != nil {
		opts.onListen(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	log.Info("starting wtc server", "addr", ln.Addr().String(), "api_url", cfg.URL(), "fetch_templates", !opts.noFetch)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownIn)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

package configcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/config"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity with the configured wiki",
		Long:  `Test that wtc can read pages from the configured MediaWiki REST API.`,
		Example: `  # Test connection
  wtc config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := cmdutil.Globals(cmd)
			cfg, err := g.LoadConfig()
			if err != nil {
				return err
			}
			return runTest(cmd.Context(), cfg, g.NoColor, cmd.OutOrStdout(), nil)
		},
	}

	return cmd
}

// runTest checks the API connection. client may be injected for testing.
func runTest(ctx context.Context, cfg *config.Config, noColor bool, w io.Writer, client api.PageSourceGetter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if noColor {
		color.NoColor = true
	}
	if client == nil {
		client = api.NewClient(cfg.URL(), cfg.AccessToken)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "Testing connection to %s...\n", cfg.URL())

	if err := api.VerifyConnection(ctx, client); err != nil {
		_, _ = red.Fprintln(w, "✗ Connection failed:", err)
		fmt.Fprintln(w, "\nCheck your settings with: wtc config show")
		fmt.Fprintln(w, "Reconfigure with: wtc init")
		return fmt.Errorf("connection failed: %w", err)
	}

	_, _ = green.Fprintln(w, "✓ API access verified")
	if cfg.AccessToken != "" {
		_, _ = green.Fprintln(w, "✓ Access token accepted")
	}

	return nil
}

// Package init provides the init command for wtc.
package init

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/config"
)

type initOptions struct {
	configPath string
	url        string
	token      string
	lang       string
	noVerify   bool
	noInput    bool
	out        io.Writer
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize wtc configuration",
		Long: `Initialize wtc with the wiki it fetches pages and templates from.

This command will guide you through setting the MediaWiki REST API URL,
an optional access token, and conversion defaults. The configuration
will be saved to ~/.config/wtc/config.yml.

The REST API URL ends in rest.php, for example:
  https://en.wikipedia.org/w/rest.php`,
		Example: `  # Interactive setup
  wtc init

  # Pre-populate the URL
  wtc init --url https://de.wikipedia.org/w/rest.php

  # Non-interactive setup
  wtc init --url https://wiki.example.org/w/rest.php --lang de --no-input`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath = cmdutil.Globals(cmd).ConfigPath
			opts.out = cmd.OutOrStdout()
			return runInit(cmd.Context(), opts, nil)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "MediaWiki REST API URL (e.g., https://en.wikipedia.org/w/rest.php)")
	cmd.Flags().StringVar(&opts.token, "token", "", "OAuth access token (optional)")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Default content language (e.g., en)")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Skip connection verification")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Write the config from flags without prompting")

	return cmd
}

// runInit prompts for the config, verifies it and saves it. client may
// be injected for testing.
func runInit(ctx context.Context, opts *initOptions, client api.PageSourceGetter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	cfg := &config.Config{
		APIURL:          opts.url,
		AccessToken:     opts.token,
		DefaultLanguage: opts.lang,
	}

	if !opts.noInput {
		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			var overwrite bool
			err := huh.NewConfirm().
				Title("Configuration already exists").
				Description(fmt.Sprintf("Overwrite %s?", configPath)).
				Value(&overwrite).
				Run()
			if err != nil {
				return err
			}
			if !overwrite {
				fmt.Fprintln(opts.out, "Initialization cancelled.")
				return nil
			}
		}

		if cfg.APIURL == "" {
			cfg.APIURL = config.DefaultAPIURL
		}
		if err := newForm(cfg).Run(); err != nil {
			return err
		}
	}

	cfg.NormalizeURL()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Verify connection unless skipped
	if !opts.noVerify {
		if client == nil {
			client = api.NewClient(cfg.URL(), cfg.AccessToken)
		}
		fmt.Fprint(opts.out, "Verifying connection... ")
		if err := api.VerifyConnection(ctx, client); err != nil {
			fmt.Fprintln(opts.out, "failed!")
			return fmt.Errorf("connection verification failed: %w", err)
		}
		fmt.Fprintln(opts.out, "success!")
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Fprintf(opts.out, "\nConfiguration saved to %s\n", configPath)
	fmt.Fprintln(opts.out, "\nYou're all set! Try running:")
	fmt.Fprintln(opts.out, `  wtc fetch "Main Page"`)
	fmt.Fprintln(opts.out, "  echo \"see [[Foo]]\" | wtc wt2html --lints")

	return nil
}

func newForm(cfg *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("REST API URL").
				Description("The rest.php endpoint of your wiki").
				Placeholder(config.DefaultAPIURL).
				Value(&cfg.APIURL).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("URL is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Access Token (optional)").
				Description("OAuth 2 access token for private wikis").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.AccessToken),

			huh.NewInput().
				Title("Default Language (optional)").
				Description("Content language used when a page names none").
				Placeholder("en").
				Value(&cfg.DefaultLanguage).
				Validate(cmdutil.ValidateLanguage),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Scrub wikitext?").
				Description("Normalize wikitext when converting HTML back").
				Value(&cfg.ScrubWikitext),

			huh.NewConfirm().
				Title("Wrap sections?").
				Description("Wrap converted HTML in <section> elements at each heading").
				Value(&cfg.WrapSections),
		),
	)
}

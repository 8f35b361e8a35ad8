package convert

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/view"
)

type fetchOptions struct {
	cmdutil.GlobalOptions
	wt2htmlFlags
	source bool
	streams
}

// NewCmdFetch creates the fetch command.
func NewCmdFetch() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <title>",
		Short: "Fetch a page from the wiki and convert it",
		Long: `Fetch the wikitext of a page from the configured wiki and convert it to
annotated HTML. Templates the page uses are fetched from the same wiki.`,
		Example: `  # Convert a page
  wtc fetch "Go (programming language)"

  # Print the wikitext only
  wtc fetch "Go (programming language)" --source

  # Use another wiki
  WTC_API_URL=https://de.wikipedia.org/w/rest.php wtc fetch Berlin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = cmdutil.Globals(cmd)
			opts.streams = streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return runFetch(cmd.Context(), args[0], opts, nil)
		},
	}

	addWt2HTMLFlags(cmd, &opts.wt2htmlFlags)
	cmd.Flags().BoolVar(&opts.source, "source", false, "Print the page wikitext instead of converting it")

	return cmd
}

// runFetch fetches title and converts it. client may be injected for
// testing; otherwise one is built from the config.
func runFetch(ctx context.Context, title string, opts *fetchOptions, client api.PageSourceGetter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := view.ValidateFormat(opts.Output); err != nil {
		return err
	}
	if err := cmdutil.ValidateLanguage(opts.lang); err != nil {
		return err
	}

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	if opts.wrapSections {
		cfg.WrapSections = true
	}

	if client == nil {
		client = api.NewClient(cfg.URL(), cfg.AccessToken)
	}

	page, err := client.GetPageSource(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	if opts.source {
		if opts.Output == string(view.FormatJSON) {
			r := view.NewRenderer(view.FormatJSON, opts.NoColor)
			r.SetWriter(opts.out)
			return r.RenderJSON(page)
		}
		writeDocument(opts.out, page.Source)
		return nil
	}

	env := cfg.NewEnv(api.NewPageConfig(page, opts.lang), api.NewDataAccess(ctx, client), cmdutil.NewLogger(cfg, opts.errOut))
	return renderWt2HTML(env, opts.wt2htmlFlags, opts.GlobalOptions, opts.streams)
}

package convert

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/view"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

type wt2htmlOptions struct {
	cmdutil.GlobalOptions
	wt2htmlFlags
	title          string
	fetchTemplates bool
	streams
}

// NewCmdWt2HTML creates the wt2html command.
func NewCmdWt2HTML() *cobra.Command {
	opts := &wt2htmlOptions{}

	cmd := &cobra.Command{
		Use:   "wt2html [file|-]",
		Short: "Convert wikitext to annotated HTML",
		Long: `Convert wikitext to annotated HTML.

Input is read from the file argument, or from stdin when the argument is
omitted or "-". Templates are reported missing unless --fetch-templates
is given, in which case they are read from the configured wiki.`,
		Example: `  # Convert a file
  wtc wt2html page.wiki > page.html

  # Convert stdin and show lints
  echo "see [[Foo]]" | wtc wt2html --lints

  # Show the annotated tree instead of HTML
  wtc wt2html page.wiki --dump`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = cmdutil.Globals(cmd)
			opts.streams = streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return runWt2HTML(cmdutil.ArgOrEmpty(args), opts, nil)
		},
	}

	addWt2HTMLFlags(cmd, &opts.wt2htmlFlags)
	cmd.Flags().StringVarP(&opts.title, "title", "t", "Main Page", "Page title the wikitext belongs to")
	cmd.Flags().BoolVar(&opts.fetchTemplates, "fetch-templates", false, "Fetch templates from the configured wiki")

	return cmd
}

func addWt2HTMLFlags(cmd *cobra.Command, f *wt2htmlFlags) {
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "Page language (default: site language)")
	cmd.Flags().BoolVar(&f.wrapSections, "wrap-sections", false, "Wrap content in <section> elements at each heading")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "Print the annotated tree instead of HTML")
	cmd.Flags().BoolVar(&f.lints, "lints", false, "Report lints on stderr")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Report resource usage on stderr")
}

// runWt2HTML converts the named input. sources overrides the configured
// wiki for template fetches, allowing injection for testing.
func runWt2HTML(input string, opts *wt2htmlOptions, sources api.PageSourceGetter) error {
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

	src, err := cmdutil.ReadInput(input, opts.in)
	if err != nil {
		return err
	}

	if sources == nil && opts.fetchTemplates {
		sources = api.NewClient(cfg.URL(), cfg.AccessToken)
	}
	var data wt.DataAccess
	if sources != nil {
		data = api.NewDataAccess(context.Background(), sources)
	}

	page := wt.NewStaticPage(opts.title, src)
	page.Language = opts.lang
	env := cfg.NewEnv(page, data, cmdutil.NewLogger(cfg, opts.errOut))

	return renderWt2HTML(env, opts.wt2htmlFlags, opts.GlobalOptions, opts.streams)
}

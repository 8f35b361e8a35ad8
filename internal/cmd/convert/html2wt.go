package convert

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/view"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

type html2wtOptions struct {
	cmdutil.GlobalOptions
	title string
	scrub bool
	stats bool
	streams
}

// html2wtResult is the JSON shape of an HTML to wikitext conversion.
type html2wtResult struct {
	Wikitext string         `json:"wikitext"`
	Usage    map[string]int `json:"usage,omitempty"`
}

// NewCmdHTML2Wt creates the html2wt command.
func NewCmdHTML2Wt() *cobra.Command {
	opts := &html2wtOptions{}

	cmd := &cobra.Command{
		Use:   "html2wt [file|-]",
		Short: "Convert annotated HTML back to wikitext",
		Long: `Convert annotated HTML back to wikitext.

Unedited content produced by wt2html serializes back to its original
source. With --scrub, the output is normalized instead.`,
		Example: `  # Convert a file
  wtc html2wt page.html

  # Normalize while converting
  wtc wt2html page.wiki | wtc html2wt --scrub`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = cmdutil.Globals(cmd)
			opts.streams = streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return runHTML2Wt(cmdutil.ArgOrEmpty(args), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "Main Page", "Page title the HTML belongs to")
	cmd.Flags().BoolVar(&opts.scrub, "scrub", false, "Normalize the wikitext instead of preserving the source")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Report resource usage on stderr")

	return cmd
}

func runHTML2Wt(input string, opts *html2wtOptions) error {
	if err := view.ValidateFormat(opts.Output); err != nil {
		return err
	}

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	if opts.scrub {
		cfg.ScrubWikitext = true
	}

	markup, err := cmdutil.ReadInput(input, opts.in)
	if err != nil {
		return err
	}

	env := cfg.NewEnv(wt.NewStaticPage(opts.title, ""), nil, cmdutil.NewLogger(cfg, opts.errOut))
	out, err := wt.HTMLToWikitext(env, markup)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if opts.Output == string(view.FormatJSON) {
		res := html2wtResult{Wikitext: out}
		if opts.stats {
			res.Usage = env.HTML2WtUsage().Usage()
		}
		r := view.NewRenderer(view.FormatJSON, opts.NoColor)
		r.SetWriter(opts.out)
		return r.RenderJSON(res)
	}

	writeDocument(opts.out, out)
	return renderDiagnostics(env, env.HTML2WtUsage(), false, opts.stats, opts.GlobalOptions, opts.streams)
}

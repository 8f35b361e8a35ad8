package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/config"
	"github.com/open-cli-collective/wtconv/internal/view"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

type roundTripOptions struct {
	cmdutil.GlobalOptions
	title          string
	lang           string
	scrub          bool
	wrapSections   bool
	fetchTemplates bool
	streams
}

// roundTripResult is the JSON shape of a round trip check.
type roundTripResult struct {
	Exact bool           `json:"exact"`
	Diff  *roundTripDiff `json:"diff,omitempty"`
}

// roundTripDiff locates the first difference. Offset is a byte offset;
// Line and Column are 1-based.
type roundTripDiff struct {
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// NewCmdRoundTrip creates the roundtrip command.
func NewCmdRoundTrip() *cobra.Command {
	opts := &roundTripOptions{}

	cmd := &cobra.Command{
		Use:   "roundtrip [file|-]",
		Short: "Check that wikitext survives conversion to HTML and back",
		Long: `Convert wikitext to HTML and back, then compare the result with the
input. The command exits non-zero and reports the first differing
position when the texts are not identical.`,
		Example: `  # Check a page
  wtc roundtrip page.wiki

  # Machine-readable result
  wtc roundtrip page.wiki -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = cmdutil.Globals(cmd)
			opts.streams = streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return runRoundTrip(cmdutil.ArgOrEmpty(args), opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "Main Page", "Page title the wikitext belongs to")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Page language (default: site language)")
	cmd.Flags().BoolVar(&opts.scrub, "scrub", false, "Normalize the wikitext on the way back")
	cmd.Flags().BoolVar(&opts.wrapSections, "wrap-sections", false, "Wrap content in <section> elements at each heading")
	cmd.Flags().BoolVar(&opts.fetchTemplates, "fetch-templates", false, "Fetch templates from the configured wiki")

	return cmd
}

func runRoundTrip(input string, opts *roundTripOptions, sources api.PageSourceGetter) error {
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
	if opts.scrub {
		cfg.ScrubWikitext = true
	}

	src, err := cmdutil.ReadInput(input, opts.in)
	if err != nil {
		return err
	}

	if sources == nil && opts.fetchTemplates {
		sources = api.NewClient(cfg.URL(), cfg.AccessToken)
	}
	back, err := roundTrip(cfg, opts.title, opts.lang, src, sources, opts.errOut)
	if err != nil {
		return err
	}

	res := compareRoundTrip(src, back)
	r := view.NewRenderer(view.Format(opts.Output), opts.NoColor)
	r.SetWriter(opts.out)

	if opts.Output == string(view.FormatJSON) {
		if err := r.RenderJSON(res); err != nil {
			return err
		}
	} else if res.Exact {
		r.Success("Round trip is exact")
	} else {
		r.Error(fmt.Sprintf("Round trip differs at line %d, column %d", res.Diff.Line, res.Diff.Column))
		r.RenderKeyValue("expected", res.Diff.Expected)
		r.RenderKeyValue("actual", res.Diff.Actual)
	}

	if !res.Exact {
		return fmt.Errorf("round trip differs at line %d, column %d", res.Diff.Line, res.Diff.Column)
	}
	return nil
}

// roundTrip converts src to HTML and back through separate Envs, the way
// a client editing the HTML would.
func roundTrip(cfg *config.Config, title, lang, src string, sources api.PageSourceGetter, logOut io.Writer) (string, error) {
	logger := cmdutil.NewLogger(cfg, logOut)

	var data wt.DataAccess
	if sources != nil {
		data = api.NewDataAccess(context.Background(), sources)
	}
	page := wt.NewStaticPage(title, src)
	page.Language = lang

	markup, err := wt.WikitextToHTML(cfg.NewEnv(page, data, logger))
	if err != nil {
		return "", fmt.Errorf("wikitext to HTML failed: %w", err)
	}
	back, err := wt.HTMLToWikitext(cfg.NewEnv(wt.NewStaticPage(title, ""), nil, logger), markup)
	if err != nil {
		return "", fmt.Errorf("HTML to wikitext failed: %w", err)
	}
	return back, nil
}

// contextWidth is how much text around a difference is reported.
const contextWidth = 40

func compareRoundTrip(expected, actual string) roundTripResult {
	offset, differs := firstDifference(expected, actual)
	if !differs {
		return roundTripResult{Exact: true}
	}
	line, col := lineColumn(expected, offset)
	return roundTripResult{Diff: &roundTripDiff{
		Offset:   offset,
		Line:     line,
		Column:   col,
		Expected: excerpt(expected, offset),
		Actual:   excerpt(actual, offset),
	}}
}

// firstDifference returns the byte offset of the first difference.
func firstDifference(a, b string) (int, bool) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i, true
		}
	}
	if len(a) != len(b) {
		return n, true
	}
	return 0, false
}

// lineColumn returns the 1-based line and byte column of offset in s.
func lineColumn(s string, offset int) (int, int) {
	before := s[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}

// excerpt returns the text starting at offset on one line, for display.
func excerpt(s string, offset int) string {
	if offset >= len(s) {
		return "(end of text)"
	}
	rest := s[offset:]
	rest = strings.ReplaceAll(rest, "\n", `\n`)
	return view.Truncate(rest, contextWidth)
}

// Package convert provides the wikitext/HTML conversion commands.
package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/view"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// streams are the writers a conversion command reports to. out gets the
// converted document, errOut gets lints, usage and logs.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// wt2htmlFlags are shared by wt2html and fetch.
type wt2htmlFlags struct {
	lang         string
	wrapSections bool
	dump         bool
	lints        bool
	stats        bool
}

// wt2htmlResult is the JSON shape of a wikitext to HTML conversion.
type wt2htmlResult struct {
	Title string         `json:"title"`
	HTML  string         `json:"html,omitempty"`
	Dump  string         `json:"dump,omitempty"`
	Lints []wt.Lint      `json:"lints"`
	Usage map[string]int `json:"usage,omitempty"`
}

// renderWt2HTML runs the conversion in env and writes the result.
func renderWt2HTML(env *wt.Env, flags wt2htmlFlags, g cmdutil.GlobalOptions, s streams) error {
	doc, err := wt.WikitextToDOM(env)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	res := wt2htmlResult{Title: env.TopFrame().Title(), Lints: env.Lints()}
	if flags.dump {
		res.Dump = wt.DumpDocument(doc)
	} else {
		res.HTML, err = wt.DocumentToHTML(doc)
		if err != nil {
			return fmt.Errorf("failed to render HTML: %w", err)
		}
	}

	if g.Output == string(view.FormatJSON) {
		if res.Lints == nil {
			res.Lints = []wt.Lint{}
		}
		if flags.stats {
			res.Usage = env.Wt2HTMLUsage().Usage()
		}
		r := view.NewRenderer(view.FormatJSON, g.NoColor)
		r.SetWriter(s.out)
		return r.RenderJSON(res)
	}

	writeDocument(s.out, res.HTML+res.Dump)
	return renderDiagnostics(env, env.Wt2HTMLUsage(), flags.lints, flags.stats, g, s)
}

// renderDiagnostics writes lints and resource usage to errOut.
func renderDiagnostics(env *wt.Env, ledger *wt.ResourceLedger, lints, stats bool, g cmdutil.GlobalOptions, s streams) error {
	r := view.NewRenderer(view.Format(g.Output), g.NoColor)
	r.SetWriter(s.errOut)
	if lints {
		if err := r.RenderLints(env.Lints()); err != nil {
			return err
		}
	}
	if stats {
		return r.RenderUsage(ledger)
	}
	return nil
}

func writeDocument(w io.Writer, text string) {
	fmt.Fprint(w, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
}

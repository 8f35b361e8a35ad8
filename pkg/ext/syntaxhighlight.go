package ext

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// highlightStyle is the chroma style used to pick token classes.
const highlightStyle = "github"

var highlighter = chromahtml.New(
	chromahtml.WithClasses(true), // CSS classes keep the output small
)

// SyntaxHighlight renders <syntaxhighlight lang="..."> bodies as
// highlighted code.
type SyntaxHighlight struct{}

// SourceToDOM implements wt.ExtensionTagHandler.
func (SyntaxHighlight) SourceToDOM(api *wt.ExtAPI, src string, args []wt.Attr) (*wt.Document, error) {
	lang := strings.ToLower(argValue(args, "lang"))
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
		lang = "text"
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := highlighter.Format(&sb, style, iterator); err != nil {
		return nil, err
	}

	doc, err := api.CreateDocument("<div>" + sb.String() + "</div>")
	if err != nil {
		return nil, err
	}
	div := doc.Body().FirstChild
	var kept []wt.Attr
	for _, a := range args {
		if !strings.EqualFold(a.Key, "lang") {
			kept = append(kept, a)
		}
	}
	api.SanitizeArgs(div, kept)
	addClass(div, "mw-highlight mw-highlight-lang-"+api.SanitizeHTMLID(lang))
	return doc, nil
}

// DOMToWikitext implements wt.ExtensionSerializer. The recorded source
// wins; otherwise the code text of the node is used.
func (SyntaxHighlight) DOMToWikitext(api *wt.ExtAPI, node *html.Node) (string, error) {
	start, err := api.SerializeExtensionStartTag(node)
	if err != nil {
		return "", err
	}
	mw := api.DataMw(node)
	switch {
	case mw != nil && mw.Body == nil:
		return start, nil
	case mw != nil:
		return start + mw.Body.Extsrc + closeTag(api, node, "syntaxhighlight"), nil
	}
	code := textContent(node)
	if pre := findElement(node, func(n *html.Node) bool { return n.Data == "pre" }); pre != nil {
		code = textContent(pre)
	}
	return start + code + closeTag(api, node, "syntaxhighlight"), nil
}

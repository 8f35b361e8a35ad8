package ext

import (
	"bytes"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// mdParser is a pre-configured goldmark instance with the GFM table
// extension. Raw HTML in the body is not passed through.
var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// Markdown renders a <markdown> body with goldmark.
type Markdown struct{}

// SourceToDOM implements wt.ExtensionTagHandler.
func (Markdown) SourceToDOM(api *wt.ExtAPI, src string, args []wt.Attr) (*wt.Document, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(strings.TrimSpace(src)), &buf); err != nil {
		return nil, err
	}
	doc, err := api.CreateDocument("<div>" + buf.String() + "</div>")
	if err != nil {
		return nil, err
	}
	div := doc.Body().FirstChild
	api.SanitizeArgs(div, args)
	addClass(div, "markdown")
	return doc, nil
}

// DOMToWikitext implements wt.ExtensionSerializer. Edited HTML is turned
// back into markdown.
func (Markdown) DOMToWikitext(api *wt.ExtAPI, node *html.Node) (string, error) {
	start, err := api.SerializeExtensionStartTag(node)
	if err != nil {
		return "", err
	}
	if mw := api.DataMw(node); mw != nil && mw.Body == nil {
		return start, nil
	}
	inner, err := renderChildren(node, nil)
	if err != nil {
		return "", err
	}
	markdown, err := htmltomarkdown.ConvertString(inner)
	if err != nil {
		return "", err
	}
	return start + "\n" + strings.TrimSpace(markdown) + "\n" + closeTag(api, node, "markdown"), nil
}

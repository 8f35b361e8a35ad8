package ext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// Poem renders <poem> bodies as wikitext with line breaks kept.
type Poem struct{}

// SourceToDOM implements wt.ExtensionTagHandler.
func (Poem) SourceToDOM(api *wt.ExtAPI, src string, args []wt.Attr) (*wt.Document, error) {
	body := strings.TrimLeft(src, "\n")
	leading := src[:len(src)-len(body)]
	body = strings.TrimRight(body, "\n")

	doc, err := api.ParseTokenContentsToDOM(args, leading, body, wt.ParseOptions{WrapperTag: "div"})
	if err != nil {
		return nil, err
	}
	wrapper := doc.Body().FirstChild
	if wrapper == nil {
		return doc, nil
	}
	addClass(wrapper, "poem")
	breakLines(wrapper)
	return doc, nil
}

// breakLines puts a <br> before every newline in the direct text children
// of n.
func breakLines(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.Contains(c.Data, "\n") {
			lines := strings.Split(c.Data, "\n")
			for i, line := range lines {
				if i > 0 {
					n.InsertBefore(&html.Node{Type: html.ElementNode, DataAtom: atom.Br, Data: "br"}, c)
					line = "\n" + line
				}
				if line != "" {
					n.InsertBefore(&html.Node{Type: html.TextNode, Data: line}, c)
				}
			}
			n.RemoveChild(c)
		}
		c = next
	}
}

// DOMToWikitext implements wt.ExtensionSerializer.
func (Poem) DOMToWikitext(api *wt.ExtAPI, node *html.Node) (string, error) {
	start, err := api.SerializeExtensionStartTag(node)
	if err != nil {
		return "", err
	}
	if mw := api.DataMw(node); mw != nil && mw.Body == nil {
		return start, nil
	}
	markup, err := api.RenderChildren(node, func(c *html.Node) bool {
		return !(c.Type == html.ElementNode && c.Data == "br")
	})
	if err != nil {
		return "", err
	}
	body, err := api.SerializeHTML(wt.SerializeHTMLOptions{ExtName: "poem"}, markup)
	if err != nil {
		return "", err
	}
	return start + "\n" + body + "\n" + closeTag(api, node, "poem"), nil
}

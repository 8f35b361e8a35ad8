// Package ext provides extension tags bundled with wtc. Handlers only use
// the wt.ExtAPI boundary and never reach into conversion internals.
package ext

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// Name is the extension name the bundled tags are registered under.
const Name = "Core"

// Register adds every bundled tag to reg.
func Register(reg *wt.ExtensionRegistry) error {
	return reg.Register(wt.ExtensionConfig{
		Name: Name,
		Tags: []wt.ExtensionTagConfig{
			{Name: "poem", Handler: Poem{}},
			{Name: "gallery", Handler: Gallery{}},
			{Name: "markdown", Handler: Markdown{}},
			{Name: "syntaxhighlight", Handler: SyntaxHighlight{}},
		},
	})
}

// NewRegistry returns a registry holding the bundled tags.
func NewRegistry() *wt.ExtensionRegistry {
	reg := wt.NewExtensionRegistry()
	if err := Register(reg); err != nil {
		// Only possible on a duplicate, which a fresh registry cannot have.
		panic(err)
	}
	return reg
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func argValue(args []wt.Attr, key string) string {
	for _, a := range args {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// addClass prepends class to the class attribute of n.
func addClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(class + " " + a.Val)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// renderChildren renders the children of n for which keep returns true.
func renderChildren(n *html.Node, keep func(*html.Node) bool) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if keep != nil && !keep(c) {
			continue
		}
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// closeTag returns the closing tag for the extension node n represents.
func closeTag(api *wt.ExtAPI, n *html.Node, fallback string) string {
	if mw := api.DataMw(n); mw != nil && mw.Name != "" {
		return "</" + mw.Name + ">"
	}
	return "</" + fallback + ">"
}

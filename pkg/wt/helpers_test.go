package wt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestEnv(t *testing.T, wikitext string, templates StaticDataAccess, opts EnvOptions) *Env {
	t.Helper()
	site := &StaticSiteConfig{Language: "en"}
	return NewEnv(site, NewStaticPage("Main Page", wikitext), templates, opts)
}

func parsePage(t *testing.T, env *Env) *Document {
	t.Helper()
	doc, err := WikitextToDOM(env)
	require.NoError(t, err)
	return doc
}

// roundTrip converts wikitext to HTML and back through separate Envs, as
// a client editing the HTML would.
func roundTrip(t *testing.T, wikitext string, opts EnvOptions) string {
	t.Helper()
	out, err := WikitextToHTML(newTestEnv(t, wikitext, nil, opts))
	require.NoError(t, err)
	wt, err := HTMLToWikitext(newTestEnv(t, "", nil, opts), out)
	require.NoError(t, err)
	return wt
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func findByTypeOf(n *html.Node, typeOf string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && hasTypeOf(c, typeOf) {
			found = c
			return false
		}
		return true
	})
	return found
}

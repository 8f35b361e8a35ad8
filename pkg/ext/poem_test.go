package ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

func TestPoem_SourceToDOM(t *testing.T) {
	doc := parse(t, "<poem class=\"verse\" onclick=\"x()\">\nroses\nviolets [[Blue]]\n</poem>")
	div := extNode(t, doc, "poem")

	assert.Equal(t, "div", div.Data)
	assert.Equal(t, "poem verse", attr(div, "class"))
	assert.Empty(t, attr(div, "onclick"))

	var brs int
	for c := div.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			brs++
		}
	}
	assert.Equal(t, 1, brs)
	assert.Equal(t, "roses\nviolets Blue", textContent(div))

	link := findElement(div, func(n *html.Node) bool { return n.Data == "a" })
	require.NotNil(t, link)
	assert.Equal(t, "./Blue", attr(link, "href"))
	assert.Equal(t, "poem", doc.Bag.Mw(div).Name)
}

func TestPoem_Scrubbed(t *testing.T) {
	tests := []struct {
		name     string
		wikitext string
		want     string
	}{
		{name: "normalised newlines", wikitext: "<poem>\n\nroses\nviolets [[Blue]]\n\n</poem>", want: "<poem>\nroses\nviolets [[Blue]]\n</poem>"},
		{name: "self closed", wikitext: "<poem/>", want: "<poem />"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundTrip(t, tt.wikitext, true))
		})
	}
}

func TestPoem_ScrubbedKeepsTemplates(t *testing.T) {
	src := "<poem>\nhello {{echo|world}}\nbye [[Blue|the sky]]\n</poem>"
	data := wt.StaticDataAccess{"Template:Echo": "{{{1}}}"}
	site := &wt.StaticSiteConfig{Language: "en", Registry: NewRegistry()}

	out, err := wt.WikitextToHTML(wt.NewEnv(site, wt.NewStaticPage("Main Page", src), data, wt.EnvOptions{}))
	require.NoError(t, err)
	require.Contains(t, out, "mw:Transclusion")

	back, err := wt.HTMLToWikitext(newEnv(t, "", wt.EnvOptions{ScrubWikitext: true}), out)
	require.NoError(t, err)
	assert.Equal(t, src, back)
}

func TestPoem_EditedHTML(t *testing.T) {
	markup := `<div typeof="mw:Extension/poem" data-mw='{"name":"poem","body":{"extsrc":""}}'>one<br>` + "\n" + `two {{x}}</div>`
	assert.Equal(t, "<poem>\n<nowiki>one\ntwo {{x}}</nowiki>\n</poem>", htmlToWikitext(t, markup))
}

// convert.go holds the top-level conversions in both directions.
package wt

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ContentVersion is the version of the annotated HTML this package emits.
const ContentVersion = "2.1.0"

// WikitextToDOM parses the main slot of the page into an annotated
// document.
func WikitextToDOM(env *Env) (*Document, error) {
	page := env.PageConfig()
	if page == nil || page.RevisionContent() == nil {
		return nil, errors.New("no page content configured")
	}
	src, err := page.RevisionContent().Slot(MainSlot)
	if err != nil {
		return nil, err
	}
	doc, err := ProcessContentInPipeline(env, nil, src, PipelineOptions{
		PipelineType:    PipelineDocument,
		ExpandTemplates: true,
		SrcOffsets:      &SourceRange{Start: 0, End: len(src)},
		SOL:             true,
	})
	if err != nil {
		return nil, err
	}
	if env.GetWrapSections() {
		wrapSections(doc)
	}
	if head := doc.Head(); head != nil {
		meta := doc.CreateElement("meta")
		setAttr(meta, "property", "mw:htmlVersion")
		setAttr(meta, "content", ContentVersion)
		head.AppendChild(meta)
	}
	env.Log(slog.LevelDebug, "wt2html", LogText(env.TopFrame().Title()), LogNumber(len(src)))
	return doc, nil
}

// DocumentToHTML stores the bag entries of doc as data attributes and
// renders the whole document.
func DocumentToHTML(doc *Document) (string, error) {
	if err := StoreDataAttribs(doc.Bag, doc.Root); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := html.Render(&sb, doc.Root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WikitextToHTML converts the page wikitext to annotated HTML.
func WikitextToHTML(env *Env) (string, error) {
	doc, err := WikitextToDOM(env)
	if err != nil {
		return "", err
	}
	return DocumentToHTML(doc)
}

// HTMLToWikitext converts annotated HTML back to wikitext.
func HTMLToWikitext(env *Env, markup string) (string, error) {
	if err := env.BumpHTML2WtResourceUse(ResourceHTMLSize, len(markup)); err != nil {
		return "", err
	}
	doc, err := env.CreateDocument(markup)
	if err != nil {
		return "", err
	}
	if err := LoadDataAttribs(doc.Bag, doc.Root); err != nil {
		return "", err
	}
	out, err := serializeDocument(env, doc)
	if err != nil {
		return "", err
	}
	env.Log(slog.LevelDebug, "html2wt", LogNumber(len(markup)), LogNumber(len(out)))
	return out, nil
}

// wrapSections groups the top-level body content into sections that
// start at each heading. Section 0 holds the lead.
func wrapSections(doc *Document) {
	body := doc.Body()
	kids := detachChildren(body)
	if len(kids) == 0 {
		return
	}
	id := 0
	cur := newSection(id)
	body.AppendChild(cur)
	for _, k := range kids {
		if isHeading(k) {
			id++
			cur = newSection(id)
			body.AppendChild(cur)
		}
		cur.AppendChild(k)
	}
}

func newSection(id int) *html.Node {
	s := newElement("section")
	setAttr(s, "data-mw-section-id", strconv.Itoa(id))
	return s
}

func isHeading(n *html.Node) bool {
	return n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6'
}

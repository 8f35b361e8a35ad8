package ext

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// Gallery renders a <gallery> body of "File:Name|caption" lines as a list
// of images with captions.
type Gallery struct{}

// galleryLine is one parsed line of a gallery body.
type galleryLine struct {
	file    string
	caption string
}

func parseGalleryLines(src string) []galleryLine {
	var lines []galleryLine
	for _, raw := range strings.Split(src, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		file, caption, _ := strings.Cut(raw, "|")
		file = strings.TrimSpace(file)
		if !strings.Contains(file, ":") {
			file = "File:" + file
		}
		lines = append(lines, galleryLine{file: file, caption: strings.TrimSpace(caption)})
	}
	return lines
}

// SourceToDOM implements wt.ExtensionTagHandler.
func (Gallery) SourceToDOM(api *wt.ExtAPI, src string, args []wt.Attr) (*wt.Document, error) {
	doc, err := api.CreateDocument("")
	if err != nil {
		return nil, err
	}
	ul := doc.CreateElement("ul")
	api.SanitizeArgs(ul, args)
	addClass(ul, "gallery")
	doc.Body().AppendChild(ul)

	for _, line := range parseGalleryLines(src) {
		li := doc.CreateElement("li")
		li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: "gallerybox"})
		ul.AppendChild(li)
		li.AppendChild(galleryImage(doc, line.file))

		text := doc.CreateElement("div")
		text.Attr = append(text.Attr, html.Attribute{Key: "class", Val: "gallerytext"})
		li.AppendChild(text)
		if line.caption == "" {
			continue
		}
		capDoc, err := api.ParseWikitextToDOM(line.caption, wt.ParseOptions{PipelineType: wt.PipelineInline, InlineContext: true}, false)
		if err != nil {
			return nil, err
		}
		wt.MoveChildren(capDoc, capDoc.Body(), doc, text)
	}
	return doc, nil
}

func galleryImage(doc *wt.Document, file string) *html.Node {
	href := "./" + strings.ReplaceAll(file, " ", "_")
	span := doc.CreateElement("span")
	span.Attr = append(span.Attr, html.Attribute{Key: "typeof", Val: "mw:File"})
	a := doc.CreateElement("a")
	a.Attr = append(a.Attr, html.Attribute{Key: "href", Val: href})
	img := doc.CreateElement("img")
	img.Attr = append(img.Attr,
		html.Attribute{Key: "resource", Val: href},
		html.Attribute{Key: "alt", Val: file},
	)
	a.AppendChild(img)
	span.AppendChild(a)
	return span
}

// DOMToWikitext implements wt.ExtensionSerializer.
func (Gallery) DOMToWikitext(api *wt.ExtAPI, node *html.Node) (string, error) {
	start, err := api.SerializeExtensionStartTag(node)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(start + "\n")
	for li := node.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		img := findElement(li, func(n *html.Node) bool { return n.Data == "img" })
		if img == nil {
			continue
		}
		file := strings.ReplaceAll(strings.TrimPrefix(attr(img, "resource"), "./"), "_", " ")
		escaped, err := api.EscapeWikitext(file, img, wt.ContextInMedia|wt.ContextSOL)
		if err != nil {
			return "", err
		}
		sb.WriteString(escaped)
		if text := findElement(li, func(n *html.Node) bool { return hasClass(n, "gallerytext") }); text != nil && text.FirstChild != nil {
			caption, err := api.SerializeChildren(text, wt.ContextInImgCaption|wt.ContextInOptionList, true)
			if err != nil {
				return "", err
			}
			sb.WriteString("|" + caption)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(closeTag(api, node, "gallery"))
	return sb.String(), nil
}

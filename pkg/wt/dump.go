package wt

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
	"golang.org/x/net/html"
)

// DumpDocument renders the body of doc as an indented tree, with bag
// entries shown as metadata. It is meant for debugging.
func DumpDocument(doc *Document) string {
	tree := treeprint.NewWithRoot("body")
	if body := doc.Body(); body != nil {
		dumpChildren(tree, doc.Bag, body)
	}
	return tree.String()
}

func dumpChildren(branch treeprint.Tree, bag *DataBag, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			branch.AddNode(fmt.Sprintf("#text %q", c.Data))
		case html.CommentNode:
			branch.AddNode(fmt.Sprintf("#comment %q", c.Data))
		case html.ElementNode:
			label := elementLabel(c)
			var sub treeprint.Tree
			if meta := bagSummary(bag, c); meta != "" {
				sub = branch.AddMetaBranch(meta, label)
			} else {
				sub = branch.AddBranch(label)
			}
			dumpChildren(sub, bag, c)
		}
	}
}

func elementLabel(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		fmt.Fprintf(&sb, " %s=%q", a.Key, a.Val)
	}
	sb.WriteString(">")
	return sb.String()
}

func bagSummary(bag *DataBag, n *html.Node) string {
	nd, ok := bag.Lookup(n)
	if !ok {
		return ""
	}
	var parts []string
	if dp := nd.Parsoid; dp != nil {
		if dp.DSR != nil {
			parts = append(parts, fmt.Sprintf("dsr=%d..%d", dp.DSR.Start, dp.DSR.End))
		}
		if dp.Stx != "" {
			parts = append(parts, "stx="+dp.Stx)
		}
		if dp.Empty {
			parts = append(parts, "empty")
		}
		if dp.SelfClose {
			parts = append(parts, "selfClose")
		}
	}
	if nd.Mw != nil {
		if nd.Mw.Name != "" {
			parts = append(parts, "ext="+nd.Mw.Name)
		}
		if len(nd.Mw.Parts) > 0 {
			parts = append(parts, fmt.Sprintf("parts=%d", len(nd.Mw.Parts)))
		}
	}
	return strings.Join(parts, " ")
}

// dom.go holds small helpers over golang.org/x/net/html nodes.
package wt

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is an ordered attribute as written in wikitext or HTML.
type Attr struct {
	Key string
	Val string
}

// walk visits n and its descendants in document order. Returning false
// from fn stops the walk.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !walk(c, fn) {
			return false
		}
		c = next
	}
	return true
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, def string) string {
	if v, ok := getAttr(n, key); ok {
		return v
	}
	return def
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// hasTypeOf reports whether the space-separated typeof of n contains t.
func hasTypeOf(n *html.Node, t string) bool {
	for _, v := range strings.Fields(attrOr(n, "typeof", "")) {
		if v == t {
			return true
		}
	}
	return false
}

// typeOfPrefix returns the first typeof value of n starting with prefix.
func typeOfPrefix(n *html.Node, prefix string) (string, bool) {
	for _, v := range strings.Fields(attrOr(n, "typeof", "")) {
		if strings.HasPrefix(v, prefix) {
			return v, true
		}
	}
	return "", false
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

func newElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func newText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendText appends s to parent, merging with a trailing text node.
func appendText(parent *html.Node, s string) {
	if s == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += s
		return
	}
	parent.AppendChild(newText(s))
}

// textContent concatenates the text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// children returns a snapshot of n's children.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// detachChildren removes and returns all children of n.
func detachChildren(n *html.Node) []*html.Node {
	out := children(n)
	for _, c := range out {
		n.RemoveChild(c)
	}
	return out
}

// MoveChildren moves the children of from (owned by src) to the end of to
// (owned by dst), carrying their bag entries along.
func MoveChildren(src *Document, from *html.Node, dst *Document, to *html.Node) {
	for _, c := range detachChildren(from) {
		if src != nil && dst != nil {
			dst.Bag.Adopt(src.Bag, c)
		}
		to.AppendChild(c)
	}
}

// innerHTML renders the children of n without data attributes.
func innerHTML(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if isElement(c, tag) {
			found = c
			return false
		}
		return true
	})
	return found
}

// ucfirst upper-cases the first ASCII letter of s.
func ucfirst(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

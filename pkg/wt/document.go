// document.go defines annotated documents and the per-Env registry that
// keeps them alive for the duration of a conversion.
package wt

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed tree plus its side-channel data bag.
type Document struct {
	Root *html.Node
	Bag  *DataBag
}

// Body returns the <body> element of the document.
func (d *Document) Body() *html.Node {
	return findElement(d.Root, "body")
}

// Head returns the <head> element of the document.
func (d *Document) Head() *html.Node {
	return findElement(d.Root, "head")
}

// CreateElement returns a detached element. Ownership follows the node
// once it is inserted into this document.
func (d *Document) CreateElement(tag string) *html.Node {
	return newElement(tag)
}

// CreateText returns a detached text node.
func (d *Document) CreateText(s string) *html.Node {
	return newText(s)
}

// parseDocument runs the HTML5 tree builder over markup.
func parseDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{Root: root, Bag: NewDataBag()}, nil
}

// DocumentRegistry holds every document created during one conversion.
// Documents are only ever appended; the registry is dropped with its Env.
type DocumentRegistry struct {
	docs   []*Document
	byRoot map[*html.Node]*Document
}

func newDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{byRoot: make(map[*html.Node]*Document)}
}

// Register retains doc for the lifetime of the registry.
func (r *DocumentRegistry) Register(doc *Document) {
	r.docs = append(r.docs, doc)
	r.byRoot[doc.Root] = doc
}

// Len returns the number of registered documents.
func (r *DocumentRegistry) Len() int {
	return len(r.docs)
}

// OwnerOf returns the registered document whose tree contains n.
func (r *DocumentRegistry) OwnerOf(n *html.Node) (*Document, bool) {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	doc, ok := r.byRoot[root]
	return doc, ok
}

// databag.go defines the side table that carries data-parsoid and data-mw
// records for the nodes of one document.
package wt

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DSR is a source range: start and end byte offsets of a node's wikitext
// plus the widths of its opening and closing syntax.
type DSR struct {
	Start      int
	End        int
	OpenWidth  int
	CloseWidth int
}

// MarshalJSON encodes a DSR as [start, end, open, close].
func (d DSR) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{d.Start, d.End, d.OpenWidth, d.CloseWidth})
}

// UnmarshalJSON accepts two- or four-element arrays.
func (d *DSR) UnmarshalJSON(b []byte) error {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 && len(raw) != 4 {
		return fmt.Errorf("dsr: expected 2 or 4 offsets, got %d", len(raw))
	}
	d.Start, d.End = raw[0], raw[1]
	if len(raw) == 4 {
		d.OpenWidth, d.CloseWidth = raw[2], raw[3]
	}
	return nil
}

// MediaPart is one "|"-separated part of an inline media link, kept in
// source order so the link can be rebuilt exactly.
type MediaPart struct {
	Caption bool   `json:"caption,omitempty"`
	Raw     string `json:"raw,omitempty"` // empty for the caption part
}

// TmpData holds pipeline-internal bookkeeping. It is never stored in
// data attributes.
type TmpData struct {
	FragmentID string
	TypeOf     string
	About      string
}

// DataParsoid is parse-time bookkeeping for one node.
type DataParsoid struct {
	DSR       *DSR              `json:"dsr,omitempty"`
	Src       string            `json:"src,omitempty"`
	Stx       string            `json:"stx,omitempty"`
	SelfClose bool              `json:"selfClose,omitempty"`
	Empty     bool              `json:"empty,omitempty"`
	SA        map[string]string `json:"sa,omitempty"` // source form of attributes
	Parts     []MediaPart       `json:"optList,omitempty"`
	Pi        []string          `json:"pi,omitempty"` // template parameter order
	Tmp       TmpData           `json:"-"`
}

func (dp *DataParsoid) isZero() bool {
	return dp.DSR == nil && dp.Src == "" && dp.Stx == "" && !dp.SelfClose &&
		!dp.Empty && len(dp.SA) == 0 && len(dp.Parts) == 0 && len(dp.Pi) == 0
}

// ExtBody is the body of an extension tag invocation.
type ExtBody struct {
	Extsrc string `json:"extsrc"`
	HTML   string `json:"html,omitempty"`
}

// TemplateTarget names the invoked template.
type TemplateTarget struct {
	Wt   string `json:"wt"`
	Href string `json:"href,omitempty"`
}

// TemplateParam is the wikitext of one template argument.
type TemplateParam struct {
	Wt string `json:"wt"`
}

// TemplateInvocation is one template call inside a transclusion.
type TemplateInvocation struct {
	Target TemplateTarget           `json:"target"`
	Params map[string]TemplateParam `json:"params"`
}

// TemplatePart is one element of a transclusion's parts list.
type TemplatePart struct {
	Template *TemplateInvocation `json:"template,omitempty"`
}

// ExpandedAttr is the source and rendered form of an attribute key or value.
type ExpandedAttr struct {
	Txt  string `json:"txt,omitempty"`
	HTML string `json:"html,omitempty"`
}

// VariantText holds the HTML of a variant payload.
type VariantText struct {
	T string `json:"t"`
}

// VariantTwoway is one language entry of a two-way conversion rule.
type VariantTwoway struct {
	L string `json:"l"`
	T string `json:"t"`
}

// VariantOneway is one entry of a one-way conversion rule.
type VariantOneway struct {
	F string `json:"f"`
	L string `json:"l"`
	T string `json:"t"`
}

// VariantFilter restricts a payload to the listed languages.
type VariantFilter struct {
	L []string `json:"l"`
	T string   `json:"t"`
}

// VariantData is the semantic payload of a language-variant construct.
type VariantData struct {
	Disabled *VariantText    `json:"disabled,omitempty"`
	Twoway   []VariantTwoway `json:"twoway,omitempty"`
	Oneway   []VariantOneway `json:"oneway,omitempty"`
	Filter   *VariantFilter  `json:"filter,omitempty"`
}

// ErrorInfo describes a rendering error attached to a node.
type ErrorInfo struct {
	Key    string   `json:"key"`
	Params []string `json:"params,omitempty"`
}

// DataMw is the semantic payload of a node.
type DataMw struct {
	Name    string            `json:"name,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
	Body    *ExtBody          `json:"body,omitempty"`
	Parts   []TemplatePart    `json:"parts,omitempty"`
	Attribs [][2]ExpandedAttr `json:"attribs,omitempty"`
	Caption string            `json:"caption,omitempty"`
	Variant *VariantData      `json:"variant,omitempty"`
	Errors  []ErrorInfo       `json:"errors,omitempty"`
}

// NodeData is the bag entry for one node.
type NodeData struct {
	Parsoid *DataParsoid
	Mw      *DataMw
}

// DataBag maps node identity to its annotation records.
type DataBag struct {
	entries map[*html.Node]*NodeData
}

// NewDataBag returns an empty bag.
func NewDataBag() *DataBag {
	return &DataBag{entries: make(map[*html.Node]*NodeData)}
}

// Get returns the entry for n, creating it if needed.
func (b *DataBag) Get(n *html.Node) *NodeData {
	nd, ok := b.entries[n]
	if !ok {
		nd = &NodeData{Parsoid: &DataParsoid{}}
		b.entries[n] = nd
	}
	return nd
}

// Lookup returns the entry for n without creating one.
func (b *DataBag) Lookup(n *html.Node) (*NodeData, bool) {
	nd, ok := b.entries[n]
	return nd, ok
}

// Parsoid returns the data-parsoid record of n, creating it if needed.
func (b *DataBag) Parsoid(n *html.Node) *DataParsoid {
	return b.Get(n).Parsoid
}

// Mw returns the data-mw record of n, creating it if needed.
func (b *DataBag) Mw(n *html.Node) *DataMw {
	nd := b.Get(n)
	if nd.Mw == nil {
		nd.Mw = &DataMw{}
	}
	return nd.Mw
}

// HasMw reports whether n carries a data-mw record.
func (b *DataBag) HasMw(n *html.Node) bool {
	nd, ok := b.entries[n]
	return ok && nd.Mw != nil
}

// Set replaces the entry for n.
func (b *DataBag) Set(n *html.Node, nd *NodeData) {
	if nd.Parsoid == nil {
		nd.Parsoid = &DataParsoid{}
	}
	b.entries[n] = nd
}

// Clear removes the entry for n.
func (b *DataBag) Clear(n *html.Node) {
	delete(b.entries, n)
}

// ClearSubtree removes the entries of n and all its descendants.
func (b *DataBag) ClearSubtree(n *html.Node) {
	walk(n, func(c *html.Node) bool {
		delete(b.entries, c)
		return true
	})
}

// Adopt moves the entries of n and its descendants from other into b.
func (b *DataBag) Adopt(other *DataBag, n *html.Node) {
	if other == nil || other == b {
		return
	}
	walk(n, func(c *html.Node) bool {
		if nd, ok := other.entries[c]; ok {
			b.entries[c] = nd
			delete(other.entries, c)
		}
		return true
	})
}

// Len returns the number of entries.
func (b *DataBag) Len() int {
	return len(b.entries)
}

// StoreDataAttribs writes every bag entry below root as data-parsoid and
// data-mw attributes and removes it from the bag.
func StoreDataAttribs(bag *DataBag, root *html.Node) error {
	var err error
	walk(root, func(n *html.Node) bool {
		nd, ok := bag.entries[n]
		if !ok {
			return true
		}
		if n.Type != html.ElementNode {
			bag.Clear(n)
			return true
		}
		if err = storeEntry(n, nd); err != nil {
			return false
		}
		bag.Clear(n)
		return true
	})
	return err
}

func storeEntry(n *html.Node, nd *NodeData) error {
	if nd.Parsoid != nil && !nd.Parsoid.isZero() {
		b, err := json.Marshal(nd.Parsoid)
		if err != nil {
			return fmt.Errorf("failed to encode data-parsoid: %w", err)
		}
		setAttr(n, "data-parsoid", string(b))
	}
	if nd.Mw != nil {
		b, err := json.Marshal(nd.Mw)
		if err != nil {
			return fmt.Errorf("failed to encode data-mw: %w", err)
		}
		setAttr(n, "data-mw", string(b))
	}
	return nil
}

// LoadDataAttribs strips data-parsoid and data-mw attributes below root
// into the bag.
func LoadDataAttribs(bag *DataBag, root *html.Node) error {
	var err error
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if raw, ok := getAttr(n, "data-parsoid"); ok {
			dp := &DataParsoid{}
			if uerr := json.Unmarshal([]byte(raw), dp); uerr != nil {
				err = fmt.Errorf("invalid data-parsoid on <%s>: %w", n.Data, uerr)
				return false
			}
			bag.Get(n).Parsoid = dp
			removeAttr(n, "data-parsoid")
		}
		if raw, ok := getAttr(n, "data-mw"); ok {
			dmw := &DataMw{}
			if uerr := json.Unmarshal([]byte(raw), dmw); uerr != nil {
				err = fmt.Errorf("invalid data-mw on <%s>: %w", n.Data, uerr)
				return false
			}
			bag.Get(n).Mw = dmw
			removeAttr(n, "data-mw")
		}
		return true
	})
	return err
}

// renderWithDataAttribs renders nodes as HTML with their bag entries
// written as attributes. The bag and the nodes are left untouched.
func renderWithDataAttribs(bag *DataBag, nodes []*html.Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		clone, err := cloneTree(n, bag)
		if err != nil {
			return "", err
		}
		if err := html.Render(&sb, clone); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// cloneTree deep-copies n. When bag is set, entries of the original nodes
// are stored as attributes on the copies.
func cloneTree(n *html.Node, bag *DataBag) (*html.Node, error) {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if bag != nil && c.Type == html.ElementNode {
		if nd, ok := bag.entries[n]; ok {
			if err := storeEntry(c, nd); err != nil {
				return nil, err
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		cc, err := cloneTree(child, bag)
		if err != nil {
			return nil, err
		}
		c.AppendChild(cc)
	}
	return c, nil
}

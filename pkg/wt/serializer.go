// serializer.go turns an annotated document back into wikitext.
package wt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// SerializerState is the state of one html2wt run. Extension serializers
// reach it only through a serialize-mode ExtAPI.
type SerializerState struct {
	env        *Env
	bag        *DataBag
	esc        escaper
	buf        *strings.Builder
	sol        bool
	singleLine int
}

func newSerializerState(env *Env, bag *DataBag) *SerializerState {
	return &SerializerState{env: env, bag: bag, esc: newEscaper(env), buf: &strings.Builder{}, sol: true}
}

// PushSingleLine enters single-line mode; newlines are emitted as spaces
// until the matching PopSingleLine.
func (s *SerializerState) PushSingleLine() { s.singleLine++ }

// PopSingleLine leaves one level of single-line mode.
func (s *SerializerState) PopSingleLine() {
	if s.singleLine > 0 {
		s.singleLine--
	}
}

// SingleLine reports whether single-line mode is active.
func (s *SerializerState) SingleLine() bool { return s.singleLine > 0 }

func (s *SerializerState) emit(str string) {
	if str == "" {
		return
	}
	if s.singleLine > 0 {
		str = strings.ReplaceAll(str, "\n", " ")
	}
	s.buf.WriteString(str)
	s.sol = str[len(str)-1] == '\n'
}

// capture runs fn against a fresh buffer and returns what it emitted.
func (s *SerializerState) capture(bag *DataBag, sol bool, fn func() error) (string, error) {
	saved, savedSOL, savedBag := s.buf, s.sol, s.bag
	s.buf = &strings.Builder{}
	s.sol = sol
	if bag != nil {
		s.bag = bag
	}
	err := fn()
	out := s.buf.String()
	s.buf, s.sol, s.bag = saved, savedSOL, savedBag
	return out, err
}

// serializeDocument serializes the body children of doc and drops the
// bag entries it consumed.
func serializeDocument(env *Env, doc *Document) (string, error) {
	body := doc.Body()
	if body == nil {
		return "", nil
	}
	s := newSerializerState(env, doc.Bag)
	if err := s.serializeChildren(body, 0); err != nil {
		return "", err
	}
	doc.Bag.ClearSubtree(body)
	return s.buf.String(), nil
}

// serializeFragment parses an HTML fragment and serializes it in ctx.
func (s *SerializerState) serializeFragment(markup string, ctx EscapeContext) (string, error) {
	doc, err := s.env.CreateDocument(markup)
	if err != nil {
		return "", err
	}
	if err := LoadDataAttribs(doc.Bag, doc.Root); err != nil {
		return "", err
	}
	body := doc.Body()
	return s.capture(doc.Bag, false, func() error {
		return s.serializeChildren(body, ctx)
	})
}

func (s *SerializerState) serializeChildren(n *html.Node, ctx EscapeContext) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := s.serializeNode(c, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *SerializerState) serializeNode(n *html.Node, ctx EscapeContext) error {
	if err := s.env.BumpHTML2WtResourceUse(ResourceNode, 1); err != nil {
		return err
	}
	switch n.Type {
	case html.TextNode:
		c := ctx
		if s.sol {
			c |= ContextSOL
		}
		s.emit(s.esc.escape(n.Data, c))
		return nil
	case html.CommentNode:
		s.emit("<!--" + n.Data + "-->")
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	switch {
	case hasTypeOf(n, "mw:Transclusion"):
		return s.transclusion(n, ctx)
	case strings.Contains(attrOr(n, "typeof", ""), "mw:Extension/"):
		return s.extension(n)
	case hasTypeOf(n, "mw:Nowiki"):
		text := textContent(n)
		if dp := s.dp(n); s.preferSource(dp) && strings.Contains(dp.Src, text) {
			s.emit(dp.Src)
			return nil
		}
		s.emit(wrapNowiki(text))
		return nil
	case hasTypeOf(n, "mw:LanguageVariant"):
		return s.variant(n)
	case isMediaElement(n):
		return s.media(n)
	case n.Data == "a" && attrOr(n, "rel", "") == "mw:WikiLink":
		return s.link(n)
	case len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6':
		return s.heading(n)
	case n.Data == "section":
		return s.serializeChildren(n, ctx)
	case n.Data == "meta" && attrOr(n, "property", "") == "mw:htmlVersion":
		return nil
	}
	return s.literalElement(n, ctx)
}

func (s *SerializerState) dp(n *html.Node) *DataParsoid {
	if nd, ok := s.bag.Lookup(n); ok && nd.Parsoid != nil {
		return nd.Parsoid
	}
	return &DataParsoid{}
}

func (s *SerializerState) mw(n *html.Node) *DataMw {
	if nd, ok := s.bag.Lookup(n); ok {
		return nd.Mw
	}
	return nil
}

// preferSource reports whether the original source of a node is reused.
func (s *SerializerState) preferSource(dp *DataParsoid) bool {
	return dp.Src != "" && !s.env.ShouldScrubWikitext()
}

func (s *SerializerState) transclusion(n *html.Node, ctx EscapeContext) error {
	dp := s.dp(n)
	if s.preferSource(dp) {
		s.emit(dp.Src)
		return nil
	}
	mw := s.mw(n)
	if mw == nil || len(mw.Parts) == 0 {
		return s.serializeChildren(n, ctx)
	}
	var sb strings.Builder
	for _, part := range mw.Parts {
		if part.Template == nil {
			continue
		}
		sb.WriteString(buildTemplate(part.Template, dp.Pi, s.env.ShouldScrubWikitext()))
	}
	s.emit(sb.String())
	return nil
}

// buildTemplate rebuilds {{target|...}} from a template invocation.
// Parameters follow order, then any remaining keys sorted.
func buildTemplate(inv *TemplateInvocation, order []string, scrub bool) string {
	keys := make([]string, 0, len(inv.Params))
	seen := make(map[string]bool, len(inv.Params))
	for _, k := range order {
		if _, ok := inv.Params[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range inv.Params {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, aerr := strconv.Atoi(rest[i])
		b, berr := strconv.Atoi(rest[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return rest[i] < rest[j]
	})
	keys = append(keys, rest...)

	target := inv.Target.Wt
	if scrub {
		target = strings.TrimSpace(target)
	}
	var sb strings.Builder
	sb.WriteString("{{" + target)
	next := 1
	for _, k := range keys {
		sb.WriteByte('|')
		if k == strconv.Itoa(next) && !strings.Contains(inv.Params[k].Wt, "=") {
			next++
		} else {
			sb.WriteString(k + "=")
		}
		sb.WriteString(inv.Params[k].Wt)
	}
	sb.WriteString("}}")
	return sb.String()
}

func (s *SerializerState) extension(n *html.Node) error {
	typeOf, _ := typeOfPrefix(n, "mw:Extension/")
	name := strings.TrimPrefix(typeOf, "mw:Extension/")
	dp := s.dp(n)
	if s.preferSource(dp) {
		s.emit(dp.Src)
		return nil
	}
	if handler, ok := s.env.Extensions().Lookup(name); ok {
		if ser, ok := handler.(ExtensionSerializer); ok {
			out, err := ser.DOMToWikitext(NewSerializeModeExtAPI(s.env, s), n)
			if err != nil {
				return fmt.Errorf("extension %s: %w", name, err)
			}
			s.emit(out)
			return nil
		}
	}
	mw := s.mw(n)
	if mw == nil {
		return &UnsupportedOperationError{Op: "serialize", Reason: "extension " + name + " has neither source nor data-mw"}
	}
	if mw.Name == "" {
		mw.Name = name
	}
	s.emit(buildExtensionTag(mw))
	return nil
}

// buildExtensionTag rebuilds <name attrs>body</name> from data-mw.
func buildExtensionTag(mw *DataMw) string {
	var sb strings.Builder
	sb.WriteString(extensionStartTag(mw.Name, mw.Attrs, mw.Body == nil))
	if mw.Body != nil {
		sb.WriteString(mw.Body.Extsrc)
		sb.WriteString("</" + mw.Name + ">")
	}
	return sb.String()
}

func extensionStartTag(name string, attrs map[string]string, selfClose bool) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString("<" + name)
	for _, k := range keys {
		sb.WriteString(" " + k + "=\"" + strings.ReplaceAll(attrs[k], "\"", "&quot;") + "\"")
	}
	if selfClose {
		sb.WriteString(" />")
	} else {
		sb.WriteString(">")
	}
	return sb.String()
}

func (s *SerializerState) variant(n *html.Node) error {
	dp := s.dp(n)
	if s.preferSource(dp) {
		s.emit(dp.Src)
		return nil
	}
	mw := s.mw(n)
	if mw == nil || mw.Variant == nil {
		return &UnsupportedOperationError{Op: "serialize", Reason: "language variant without data-mw"}
	}
	v := mw.Variant
	var rules []string
	switch {
	case len(v.Twoway) > 0:
		for _, r := range v.Twoway {
			t, err := s.serializeFragment(r.T, 0)
			if err != nil {
				return err
			}
			rules = append(rules, r.L+":"+t)
		}
	case len(v.Oneway) > 0:
		for _, r := range v.Oneway {
			f, err := s.serializeFragment(r.F, 0)
			if err != nil {
				return err
			}
			t, err := s.serializeFragment(r.T, 0)
			if err != nil {
				return err
			}
			rules = append(rules, f+"=>"+r.L+":"+t)
		}
	case v.Disabled != nil:
		t, err := s.serializeFragment(v.Disabled.T, 0)
		if err != nil {
			return err
		}
		rules = append(rules, t)
	}
	s.emit("-{" + strings.Join(rules, ";") + "}-")
	return nil
}

func isMediaElement(n *html.Node) bool {
	if n.Data != "span" && n.Data != "figure" {
		return false
	}
	_, ok := typeOfPrefix(n, "mw:File")
	return ok
}

func (s *SerializerState) media(n *html.Node) error {
	dp := s.dp(n)
	resource := ""
	if img := findElement(n, "img"); img != nil {
		resource = hrefToTitle(attrOr(img, "resource", ""))
	}
	target := resource
	if sa, ok := dp.SA["resource"]; ok && (resource == "" || normalizeTitle(strings.TrimSpace(sa)) == resource) {
		target = sa
	}
	if target == "" {
		return &UnsupportedOperationError{Op: "serialize", Reason: "media element without a resource"}
	}

	caption := ""
	mw := s.mw(n)
	if mw != nil && mw.Caption != "" {
		var err error
		caption, err = s.serializeFragment(mw.Caption, ContextInImgCaption|ContextInOptionList)
		if err != nil {
			return err
		}
	}
	var sb strings.Builder
	sb.WriteString("[[" + target)
	wroteCaption := false
	for _, p := range dp.Parts {
		sb.WriteByte('|')
		if p.Caption {
			sb.WriteString(caption)
			wroteCaption = true
			continue
		}
		sb.WriteString(p.Raw)
	}
	if !wroteCaption && caption != "" {
		sb.WriteString("|" + caption)
	}
	sb.WriteString("]]")
	s.emit(sb.String())
	return nil
}

func (s *SerializerState) link(n *html.Node) error {
	dp := s.dp(n)
	title := hrefToTitle(attrOr(n, "href", ""))
	target := title
	if sa, ok := dp.SA["href"]; ok && normalizeTitle(strings.TrimSpace(sa)) == title {
		target = sa
	}
	text, err := s.capture(nil, false, func() error {
		return s.serializeChildren(n, contextLinkText)
	})
	if err != nil {
		return err
	}
	plain := !hasElementChild(n)
	switch {
	case dp.Stx == "simple" && plain && text == target:
		s.emit("[[" + target + "]]")
	case s.env.ShouldScrubWikitext() && plain && normalizeTitle(strings.TrimSpace(textContent(n))) == title:
		s.emit("[[" + target + "]]")
	case dp.Stx != "piped" && plain && text == target:
		s.emit("[[" + target + "]]")
	default:
		s.emit("[[" + target + "|" + text + "]]")
	}
	return nil
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func (s *SerializerState) heading(n *html.Node) error {
	level := int(n.Data[1] - '0')
	if !s.sol {
		s.emit("\n")
	}
	content, err := s.capture(nil, false, func() error {
		return s.serializeChildren(n, contextInHeading)
	})
	if err != nil {
		return err
	}
	eq := strings.Repeat("=", level)
	s.emit(eq + escapeHeadingEdges(content) + eq)
	if next := n.NextSibling; next != nil && !(next.Type == html.TextNode && strings.HasPrefix(next.Data, "\n")) {
		s.emit("\n")
	}
	return nil
}

func (s *SerializerState) literalElement(n *html.Node, ctx EscapeContext) error {
	var sb strings.Builder
	sb.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		sb.WriteString(" " + a.Key + "=\"" + html.EscapeString(a.Val) + "\"")
	}
	sb.WriteString(">")
	s.emit(sb.String())
	if voidElements[n.Data] {
		return nil
	}
	if err := s.serializeChildren(n, ctx); err != nil {
		return err
	}
	s.emit("</" + n.Data + ">")
	return nil
}

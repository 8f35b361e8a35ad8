// pipeline.go drives wikitext through tokenization and tree construction.
// Templates and extension tags recurse into the pipeline; their output is
// parked in the fragment store behind placeholders and spliced back in
// once the containing invocation has finished building its tree.
package wt

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PipelineType selects the grammar subset of an invocation.
type PipelineType int

const (
	PipelineDocument PipelineType = iota // full document, block constructs allowed
	PipelineInline                       // inline fragment
)

// SourceRange is a byte range of the top-level source.
type SourceRange struct {
	Start int
	End   int
}

// PipelineOptions configures one pipeline invocation.
type PipelineOptions struct {
	PipelineType    PipelineType
	ExpandTemplates bool
	ExtTag          string         // enclosing extension tag, if any
	ExtTagOpts      map[string]any // options of the enclosing extension tag
	InTemplate      bool
	InlineContext   bool
	InPHPBlock      bool         // propagated verbatim to nested invocations
	SrcOffsets      *SourceRange // position of the input in the top-level source
	SOL             bool
}

// nested returns the options a child invocation inherits.
func (o PipelineOptions) nested() PipelineOptions {
	return PipelineOptions{
		PipelineType:    o.PipelineType,
		ExpandTemplates: o.ExpandTemplates,
		ExtTag:          o.ExtTag,
		ExtTagOpts:      o.ExtTagOpts,
		InTemplate:      o.InTemplate,
		InlineContext:   o.InlineContext,
		InPHPBlock:      o.InPHPBlock,
	}
}

// ProcessContentInPipeline parses wikitext into a new document registered
// with env. A nil frame means the page's own frame. Nested invocations for
// templates and extension tags complete before this call returns. Resource
// limit errors abort the whole conversion.
func ProcessContentInPipeline(env *Env, frame *Frame, wikitext string, opts PipelineOptions) (*Document, error) {
	if frame == nil {
		frame = env.TopFrame()
	}
	if wikitext == "" {
		return env.CreateDocument("")
	}
	if err := env.BumpWt2HTMLResourceUse(ResourceWikitextSize, len(wikitext)); err != nil {
		return nil, err
	}

	res := env.Tokenizer().Tokenize(wikitext, TokenizeOptions{
		SOL:           opts.SOL,
		InlineContext: opts.InlineContext || opts.PipelineType == PipelineInline,
		IsExtTag:      env.Extensions().IsExtensionTag,
		Variants:      env.LangConverterEnabled(),
	})
	if err := env.BumpWt2HTMLResourceUse(ResourceToken, countTokens(res.Tokens)); err != nil {
		return nil, err
	}

	doc, err := env.CreateDocument("")
	if err != nil {
		return nil, err
	}
	b := &treeBuilder{env: env, frame: frame, opts: opts, doc: doc}
	if opts.SrcOffsets != nil {
		b.base = opts.SrcOffsets.Start
	}
	for _, w := range res.Warnings {
		env.RecordLint(w.Type, map[string]any{
			"offset": b.offset(w.Offset),
			"name":   nonEmpty(w.Detail),
		})
	}
	if err := b.build(doc.Body(), res.Tokens); err != nil {
		return nil, err
	}
	if err := b.unpackFragments(); err != nil {
		return nil, err
	}
	return doc, nil
}

func countTokens(toks []Token) int {
	n := len(toks)
	for _, t := range toks {
		n += countTokens(t.Children)
	}
	return n
}

// treeBuilder turns one token stream into nodes of doc.
type treeBuilder struct {
	env          *Env
	frame        *Frame
	opts         PipelineOptions
	doc          *Document
	base         int
	placeholders []*html.Node
}

// offset maps an input offset to the top-level source, or nil when the
// input's position is unknown.
func (b *treeBuilder) offset(off int) any {
	if b.opts.SrcOffsets == nil {
		return nil
	}
	return b.base + off
}

func (b *treeBuilder) dsr(tok Token, open, close int) *DSR {
	if b.opts.SrcOffsets == nil {
		return nil
	}
	return &DSR{Start: b.base + tok.Start, End: b.base + tok.End, OpenWidth: open, CloseWidth: close}
}

func (b *treeBuilder) subRange(start int, text string) *SourceRange {
	if b.opts.SrcOffsets == nil {
		return nil
	}
	return &SourceRange{Start: b.base + start, End: b.base + start + len(text)}
}

func (b *treeBuilder) build(parent *html.Node, toks []Token) error {
	for _, tok := range toks {
		var err error
		switch tok.Kind {
		case TokenText:
			appendText(parent, tok.Text)
		case TokenHeading:
			err = b.heading(parent, tok)
		case TokenComment:
			parent.AppendChild(&html.Node{Type: html.CommentNode, Data: tok.Text})
		case TokenNowiki:
			span := newElement("span")
			setAttr(span, "typeof", "mw:Nowiki")
			appendText(span, tok.Text)
			dp := b.doc.Bag.Parsoid(span)
			dp.Src = tok.Src
			dp.DSR = b.dsr(tok, len("<nowiki>"), len("</nowiki>"))
			parent.AppendChild(span)
		case TokenWikiLink:
			err = b.wikiLink(parent, tok)
		case TokenMedia:
			err = b.media(parent, tok)
		case TokenVariant:
			err = b.variant(parent, tok)
		case TokenTemplate:
			err = b.template(parent, tok)
		case TokenExtTag:
			err = b.extension(parent, tok)
		default:
			err = fmt.Errorf("unknown token kind %d", tok.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *treeBuilder) heading(parent *html.Node, tok Token) error {
	h := newElement("h" + strconv.Itoa(tok.Level))
	b.doc.Bag.Parsoid(h).DSR = b.dsr(tok, tok.Level, tok.Level)
	parent.AppendChild(h)
	return b.build(h, tok.Children)
}

func (b *treeBuilder) wikiLink(parent *html.Node, tok Token) error {
	title := normalizeTitle(strings.TrimSpace(tok.Target))
	a := newElement("a")
	setAttr(a, "rel", "mw:WikiLink")
	setAttr(a, "href", titleToHref(title))
	setAttr(a, "title", title)
	dp := b.doc.Bag.Parsoid(a)
	dp.SA = map[string]string{"href": tok.Target}
	dp.DSR = b.dsr(tok, 2, 2)
	parent.AppendChild(a)
	if !tok.Piped {
		dp.Stx = "simple"
		appendText(a, tok.Target)
		return nil
	}
	dp.Stx = "piped"
	return b.build(a, tok.Children)
}

func (b *treeBuilder) media(parent *html.Node, tok Token) error {
	title := normalizeTitle(strings.TrimSpace(tok.Target))
	href := titleToHref(title)
	span := newElement("span")
	setAttr(span, "typeof", "mw:File")
	a := newElement("a")
	setAttr(a, "href", href)
	img := newElement("img")
	setAttr(img, "resource", href)
	a.AppendChild(img)
	span.AppendChild(a)

	dp := b.doc.Bag.Parsoid(span)
	dp.SA = map[string]string{"resource": tok.Target}
	dp.DSR = b.dsr(tok, 2, 2)
	for _, part := range tok.Parts {
		if !part.Caption {
			dp.Parts = append(dp.Parts, MediaPart{Raw: part.Raw})
			applyMediaOption(span, img, part.Raw)
			continue
		}
		dp.Parts = append(dp.Parts, MediaPart{Caption: true})
		caption, err := b.renderInline(part.Raw, b.subRange(part.Start, part.Raw))
		if err != nil {
			return err
		}
		b.doc.Bag.Mw(span).Caption = caption
	}
	parent.AppendChild(span)
	return nil
}

// applyMediaOption reflects a rendering option on the output elements.
func applyMediaOption(span, img *html.Node, raw string) {
	opt := strings.TrimSpace(raw)
	switch lower := asciiLower(opt); {
	case lower == "thumb" || lower == "thumbnail":
		span.Data, span.DataAtom = "figure", atom.Figure
		setAttr(span, "typeof", "mw:File/Thumb")
	case lower == "frame" || lower == "framed":
		span.Data, span.DataAtom = "figure", atom.Figure
		setAttr(span, "typeof", "mw:File/Frame")
	case lower == "frameless":
		setAttr(span, "typeof", "mw:File/Frameless")
	case lower == "left" || lower == "right" || lower == "center" || lower == "centre" || lower == "none":
		setAttr(span, "class", "mw-halign-"+lower)
	case strings.HasSuffix(lower, "px"):
		w, h, _ := strings.Cut(strings.TrimSuffix(lower, "px"), "x")
		if w != "" {
			setAttr(img, "width", w)
		}
		if h != "" {
			setAttr(img, "height", h)
		}
	case strings.HasPrefix(lower, "alt="):
		setAttr(img, "alt", opt[len("alt="):])
	}
}

func (b *treeBuilder) variant(parent *html.Node, tok Token) error {
	span := newElement("span")
	setAttr(span, "typeof", "mw:LanguageVariant")
	dp := b.doc.Bag.Parsoid(span)
	dp.Src = tok.Src
	dp.DSR = b.dsr(tok, 2, 2)
	data := &VariantData{}
	switch tok.Variant {
	case VariantKindTwoway:
		for _, r := range tok.Rules {
			t, err := b.renderInline(r.Text, nil)
			if err != nil {
				return err
			}
			data.Twoway = append(data.Twoway, VariantTwoway{L: r.Lang, T: t})
		}
	case VariantKindOneway:
		for _, r := range tok.Rules {
			from, err := b.renderInline(r.From, nil)
			if err != nil {
				return err
			}
			t, err := b.renderInline(r.Text, nil)
			if err != nil {
				return err
			}
			data.Oneway = append(data.Oneway, VariantOneway{F: from, L: r.Lang, T: t})
		}
	default:
		t, err := b.renderInline(tok.Text, b.subRange(tok.BodyStart, tok.Text))
		if err != nil {
			return err
		}
		data.Disabled = &VariantText{T: t}
	}
	b.doc.Bag.Mw(span).Variant = data
	parent.AppendChild(span)
	return nil
}

// renderInline parses wikitext as an inline fragment and returns its HTML
// with annotations stored as data attributes.
func (b *treeBuilder) renderInline(wikitext string, at *SourceRange) (string, error) {
	opts := b.opts.nested()
	opts.PipelineType = PipelineInline
	opts.InlineContext = true
	opts.SrcOffsets = at
	sub, err := ProcessContentInPipeline(b.env, b.frame, wikitext, opts)
	if err != nil {
		return "", err
	}
	body := sub.Body()
	if err := StoreDataAttribs(sub.Bag, body); err != nil {
		return "", err
	}
	return innerHTML(body)
}

// templateTitle resolves a template target to a page title. A leading
// colon selects the main namespace.
func templateTitle(target string) string {
	if strings.HasPrefix(target, ":") {
		return normalizeTitle(target[1:])
	}
	if ns, _, ok := strings.Cut(target, ":"); ok && strings.EqualFold(ns, "template") {
		return normalizeTitle(target)
	}
	return normalizeTitle("Template:" + target)
}

func (b *treeBuilder) template(parent *html.Node, tok Token) error {
	env := b.env
	if err := env.BumpWt2HTMLResourceUse(ResourceTransclusion, 1); err != nil {
		return err
	}
	title := templateTitle(strings.TrimSpace(tok.Target))
	inv := &TemplateInvocation{
		Target: TemplateTarget{Wt: tok.Target, Href: titleToHref(title)},
		Params: make(map[string]TemplateParam, len(tok.Args)),
	}
	dp := &DataParsoid{Src: tok.Src, DSR: b.dsr(tok, 0, 0)}
	pos := 0
	for _, arg := range tok.Args {
		key := strings.TrimSpace(arg.Name)
		if !arg.Named {
			pos++
			key = strconv.Itoa(pos)
		}
		inv.Params[key] = TemplateParam{Wt: arg.Value}
		dp.Pi = append(dp.Pi, key)
	}
	dmw := &DataMw{Parts: []TemplatePart{{Template: inv}}}
	typeOf := "mw:Transclusion"

	var forest []*html.Node
	switch {
	case !b.opts.ExpandTemplates:
	case b.frame.Expanding(title):
		env.RecordLint("template-loop", map[string]any{"title": title, "dsr": dp.DSR})
		dmw.Errors = append(dmw.Errors, ErrorInfo{Key: "template-loop", Params: []string{title}})
		typeOf = "mw:Transclusion mw:Error"
		forest = []*html.Node{newText("Template loop detected: [[" + title + "]]")}
	default:
		child := b.frame.NewChild(title, tok.Args)
		if used := env.Wt2HTMLUsage().Used(ResourceTemplateDepth); child.Depth() > used {
			if err := env.BumpWt2HTMLResourceUse(ResourceTemplateDepth, child.Depth()-used); err != nil {
				return err
			}
		}
		src, ok, err := b.fetchTemplate(title)
		if err != nil {
			return err
		}
		if !ok {
			env.RecordLint("missing-template", map[string]any{"title": title, "dsr": dp.DSR})
			forest = []*html.Node{missingPageLink(title)}
			break
		}
		opts := b.opts.nested()
		opts.ExpandTemplates = true
		opts.InTemplate = true
		opts.SOL = true
		sub, err := ProcessContentInPipeline(env, child, child.Expand(src), opts)
		if err != nil {
			return err
		}
		forest = b.adopt(sub)
	}
	b.park(parent, forest, dp, dmw, typeOf)
	return nil
}

func (b *treeBuilder) fetchTemplate(title string) (string, bool, error) {
	da := b.env.DataAccess()
	if da == nil {
		return "", false, nil
	}
	src, ok, err := da.FetchTemplateSource(title)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch %s: %w", title, err)
	}
	return src, ok, nil
}

func missingPageLink(title string) *html.Node {
	a := newElement("a")
	setAttr(a, "rel", "mw:WikiLink")
	setAttr(a, "href", titleToHref(title))
	setAttr(a, "title", title)
	setAttr(a, "class", "new")
	appendText(a, title)
	return a
}

// adopt detaches the body children of sub, moving their bag entries into
// the builder's document.
func (b *treeBuilder) adopt(sub *Document) []*html.Node {
	if sub == nil {
		return nil
	}
	body := sub.Body()
	if body == nil {
		return nil
	}
	forest := detachChildren(body)
	for _, n := range forest {
		b.doc.Bag.Adopt(sub.Bag, n)
	}
	return forest
}

func (b *treeBuilder) extension(parent *html.Node, tok Token) error {
	env := b.env
	if err := env.BumpWt2HTMLResourceUse(ResourceExtension, 1); err != nil {
		return err
	}
	handler, ok := env.Extensions().Lookup(tok.Name)
	if !ok {
		return &NotFoundError{Kind: "extension", Key: tok.Name}
	}
	extTok := tok
	var at *SourceRange
	if b.opts.SrcOffsets != nil {
		at = &SourceRange{Start: b.base + tok.Start, End: b.base + tok.End}
	}
	api := NewParseModeExtAPI(env, ParseModeOptions{
		Frame:         b.frame,
		ExtToken:      &extTok,
		InTemplate:    b.opts.InTemplate,
		ExtTag:        tok.Name,
		ExtTagOpts:    b.opts.ExtTagOpts,
		InlineContext: b.opts.InlineContext,
		SrcOffsets:    at,
	})
	out, err := handler.SourceToDOM(api, tok.Body, tok.Attrs)
	if err != nil {
		return fmt.Errorf("extension <%s>: %w", tok.Name, err)
	}

	dmw := &DataMw{Name: tok.Name}
	if len(tok.Attrs) > 0 {
		dmw.Attrs = make(map[string]string, len(tok.Attrs))
		for _, a := range tok.Attrs {
			dmw.Attrs[a.Key] = a.Val
		}
	}
	open, close := tok.End-tok.Start, 0
	if !tok.SelfClose {
		dmw.Body = &ExtBody{Extsrc: tok.Body}
		open = tok.BodyStart - tok.Start
		close = tok.End - tok.BodyStart - len(tok.Body)
	}
	dp := &DataParsoid{Src: tok.Src, DSR: b.dsr(tok, open, close)}
	b.park(parent, b.adopt(out), dp, dmw, "mw:Extension/"+tok.Name)
	return nil
}

// park stores forest in the fragment store and inserts a placeholder
// whose bag entry carries the fragment id and final annotations.
func (b *treeBuilder) park(parent *html.Node, forest []*html.Node, dp *DataParsoid, dmw *DataMw, typeOf string) {
	env := b.env
	id := "mwf" + strconv.Itoa(env.GenerateUID())
	env.SetFragment(id, forest)
	ph := newElement("meta")
	setAttr(ph, "typeof", "mw:Placeholder/Fragment")
	dp.Tmp = TmpData{
		FragmentID: id,
		TypeOf:     typeOf,
		About:      "#mwt" + strconv.Itoa(env.GenerateUID()),
	}
	b.doc.Bag.Set(ph, &NodeData{Parsoid: dp, Mw: dmw})
	parent.AppendChild(ph)
	b.placeholders = append(b.placeholders, ph)
}

// unpackFragments replaces every placeholder with its stored fragment,
// taking each fragment exactly once.
func (b *treeBuilder) unpackFragments() error {
	bag := b.doc.Bag
	for _, ph := range b.placeholders {
		nd, ok := bag.Lookup(ph)
		if !ok || ph.Parent == nil {
			return fmt.Errorf("placeholder lost its annotations")
		}
		tmp := nd.Parsoid.Tmp
		forest, err := b.env.Fragments().Take(tmp.FragmentID)
		if err != nil {
			return err
		}
		nd.Parsoid.Tmp = TmpData{}

		var wrapper *html.Node
		if strings.HasPrefix(tmp.TypeOf, "mw:Extension/") && len(forest) == 1 && forest[0].Type == html.ElementNode {
			wrapper = forest[0]
			merged := bag.Get(wrapper)
			merged.Parsoid.Src = nd.Parsoid.Src
			merged.Parsoid.DSR = nd.Parsoid.DSR
			merged.Mw = nd.Mw
			if prev := attrOr(wrapper, "typeof", ""); prev != "" {
				tmp.TypeOf += " " + prev
			}
		} else {
			wrapper = newElement("span")
			for _, n := range forest {
				wrapper.AppendChild(n)
			}
			bag.Set(wrapper, &NodeData{Parsoid: nd.Parsoid, Mw: nd.Mw})
		}
		setAttr(wrapper, "typeof", tmp.TypeOf)
		setAttr(wrapper, "about", tmp.About)
		ph.Parent.InsertBefore(wrapper, ph)
		ph.Parent.RemoveChild(ph)
		bag.Clear(ph)
	}
	b.placeholders = nil
	return nil
}

// nonEmpty returns nil for the empty string so lint data drops it.
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

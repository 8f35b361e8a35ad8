// extapi.go is the boundary between the core and extension tag handlers.
// An ExtAPI is built for one use site in either parse or serialize mode;
// calling an operation of the other mode fails with an
// *UnsupportedOperationError.
package wt

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

// ParseModeOptions is the context of an extension tag being parsed.
type ParseModeOptions struct {
	Frame         *Frame
	ExtToken      *Token // the tag invocation being handled
	InTemplate    bool
	ExtTag        string
	ExtTagOpts    map[string]any
	InlineContext bool
	SrcOffsets    *SourceRange // range of ExtToken in the top-level source
}

// extMode is the tagged union of the two construction bundles.
type extMode interface {
	modeName() string
}

type parseMode struct {
	opts ParseModeOptions
}

func (parseMode) modeName() string { return "parse" }

type serializeMode struct {
	state *SerializerState
}

func (serializeMode) modeName() string { return "serialize" }

// ExtAPI is handed to extension handlers in place of internal state.
type ExtAPI struct {
	env  *Env
	mode extMode
}

// NewParseModeExtAPI builds an API for handling a tag during wt2html.
func NewParseModeExtAPI(env *Env, opts ParseModeOptions) *ExtAPI {
	if opts.Frame == nil {
		opts.Frame = env.TopFrame()
	}
	return &ExtAPI{env: env, mode: parseMode{opts: opts}}
}

// NewSerializeModeExtAPI builds an API for serializing a node during
// html2wt.
func NewSerializeModeExtAPI(env *Env, state *SerializerState) *ExtAPI {
	return &ExtAPI{env: env, mode: serializeMode{state: state}}
}

func (a *ExtAPI) parseMode(op string) (parseMode, error) {
	pm, ok := a.mode.(parseMode)
	if !ok {
		return parseMode{}, &UnsupportedOperationError{Op: op, Reason: "not available in " + a.mode.modeName() + " mode"}
	}
	return pm, nil
}

func (a *ExtAPI) serializeMode(op string) (serializeMode, error) {
	sm, ok := a.mode.(serializeMode)
	if !ok {
		return serializeMode{}, &UnsupportedOperationError{Op: op, Reason: "not available in " + a.mode.modeName() + " mode"}
	}
	return sm, nil
}

// ParseOptions tunes a nested parse started by an extension.
type ParseOptions struct {
	PipelineType  PipelineType
	InlineContext bool
	Frame         *Frame // defaults to the caller's frame
	ExtTag        string // defaults to the caller's tag
	ExtTagOpts    map[string]any
	SrcOffsets    *SourceRange
	WrapperTag    string // ParseTokenContentsToDOM only; defaults to "div"
}

// ParseWikitextToDOM parses wikitext in the caller's frame and tag
// context unless opts overrides them.
func (a *ExtAPI) ParseWikitextToDOM(wikitext string, opts ParseOptions, sol bool) (*Document, error) {
	pm, err := a.parseMode("ParseWikitextToDOM")
	if err != nil {
		return nil, err
	}
	frame := opts.Frame
	if frame == nil {
		frame = pm.opts.Frame
	}
	extTag, extTagOpts := opts.ExtTag, opts.ExtTagOpts
	if extTag == "" {
		extTag = pm.opts.ExtTag
	}
	if extTagOpts == nil {
		extTagOpts = pm.opts.ExtTagOpts
	}
	return ProcessContentInPipeline(a.env, frame, wikitext, PipelineOptions{
		PipelineType:    opts.PipelineType,
		ExpandTemplates: true,
		ExtTag:          extTag,
		ExtTagOpts:      extTagOpts,
		InTemplate:      pm.opts.InTemplate,
		InlineContext:   opts.InlineContext,
		SrcOffsets:      opts.SrcOffsets,
		SOL:             sol,
	})
}

// ParseTokenContentsToDOM parses the body of the current tag and moves the
// result into a wrapper element carrying the sanitized tag arguments.
// leadingWS is whitespace the caller stripped from the front of the body.
func (a *ExtAPI) ParseTokenContentsToDOM(extArgs []Attr, leadingWS, wikitext string, opts ParseOptions) (*Document, error) {
	pm, err := a.parseMode("ParseTokenContentsToDOM")
	if err != nil {
		return nil, err
	}
	tok := pm.opts.ExtToken
	if opts.SrcOffsets == nil && pm.opts.SrcOffsets != nil && tok != nil {
		start := pm.opts.SrcOffsets.Start + (tok.BodyStart - tok.Start) + len(leadingWS)
		opts.SrcOffsets = &SourceRange{Start: start, End: start + len(wikitext)}
	}
	doc, err := a.ParseWikitextToDOM(wikitext, opts, true)
	if err != nil {
		return nil, err
	}
	tag := opts.WrapperTag
	if tag == "" {
		tag = "div"
	}
	body := doc.Body()
	wrapper := doc.CreateElement(tag)
	MoveChildren(doc, body, doc, wrapper)
	body.AppendChild(wrapper)
	a.SanitizeArgs(wrapper, extArgs)

	dp := doc.Bag.Parsoid(wrapper)
	if wikitext == "" {
		dp.Empty = true
	}
	if tok != nil && tok.SelfClose {
		dp.SelfClose = true
	}
	return doc, nil
}

// SanitizeArgs sets the sanitized form of args on el.
func (a *ExtAPI) SanitizeArgs(el *html.Node, args []Attr) {
	for _, at := range a.env.Sanitizer().SanitizeArgs(el.Data, args) {
		setAttr(el, at.Key, at.Val)
	}
}

// SanitizeHTMLID cleans a value for use as an id attribute.
func (a *ExtAPI) SanitizeHTMLID(id string) string {
	return a.env.Sanitizer().SanitizeHTMLID(id)
}

// SanitizeCSS cleans a style attribute value.
func (a *ExtAPI) SanitizeCSS(css string) string {
	return a.env.Sanitizer().SanitizeCSS(css)
}

// GetValidHTMLAttributes returns the attribute whitelist for tag.
func (a *ExtAPI) GetValidHTMLAttributes(tag string) map[string]bool {
	return a.env.Sanitizer().ValidHTMLAttributes(tag)
}

// ProcessHiddenHTMLInDataAttributes rewrites HTML that lives only inside
// el's data-mw: expanded attributes, then language variant payloads, then
// the media caption.
func (a *ExtAPI) ProcessHiddenHTMLInDataAttributes(el *html.Node, proc func(string) string) {
	bag := a.bagFor(el)
	if bag == nil || !bag.HasMw(el) {
		return
	}
	mw := bag.Mw(el)
	for i := range mw.Attribs {
		for j := range mw.Attribs[i] {
			if mw.Attribs[i][j].HTML != "" {
				mw.Attribs[i][j].HTML = proc(mw.Attribs[i][j].HTML)
			}
		}
	}
	if v := mw.Variant; v != nil {
		if v.Disabled != nil {
			v.Disabled.T = proc(v.Disabled.T)
		}
		for i := range v.Twoway {
			v.Twoway[i].T = proc(v.Twoway[i].T)
		}
		for i := range v.Oneway {
			v.Oneway[i].F = proc(v.Oneway[i].F)
			v.Oneway[i].T = proc(v.Oneway[i].T)
		}
		if v.Filter != nil {
			v.Filter.T = proc(v.Filter.T)
		}
	}
	if mw.Caption != "" {
		mw.Caption = proc(mw.Caption)
	}
}

func (a *ExtAPI) bagFor(n *html.Node) *DataBag {
	if bag, ok := a.env.BagFor(n); ok {
		return bag
	}
	if sm, ok := a.mode.(serializeMode); ok {
		return sm.state.bag
	}
	return nil
}

// CreateDocument parses markup into a document owned by the conversion.
func (a *ExtAPI) CreateDocument(markup string) (*Document, error) {
	return a.env.CreateDocument(markup)
}

// DataMw returns the data-mw record of n, or nil.
func (a *ExtAPI) DataMw(n *html.Node) *DataMw {
	bag := a.bagFor(n)
	if bag == nil || !bag.HasMw(n) {
		return nil
	}
	return bag.Mw(n)
}

// PageTitle returns the title of the page being converted.
func (a *ExtAPI) PageTitle() string {
	return a.env.TopFrame().Title()
}

// Log emits a record through the conversion's logger.
func (a *ExtAPI) Log(level slog.Level, msg string, args ...LogArg) {
	a.env.Log(level, msg, args...)
}

// SerializeHTMLOptions identifies the caller of SerializeHTML.
type SerializeHTMLOptions struct {
	ExtName string
}

// SerializeHTML converts an HTML payload of an extension back to
// wikitext.
func (a *ExtAPI) SerializeHTML(opts SerializeHTMLOptions, markup string) (string, error) {
	sm, err := a.serializeMode("SerializeHTML")
	if err != nil {
		return "", err
	}
	out, err := sm.state.serializeFragment(markup, 0)
	if err != nil {
		return "", fmt.Errorf("extension %s: %w", opts.ExtName, err)
	}
	return out, nil
}

// SerializeExtensionStartTag returns the opening tag of the extension
// invocation el represents.
func (a *ExtAPI) SerializeExtensionStartTag(el *html.Node) (string, error) {
	if _, err := a.serializeMode("SerializeExtensionStartTag"); err != nil {
		return "", err
	}
	mw := a.DataMw(el)
	name := ""
	if mw != nil {
		name = mw.Name
	}
	if name == "" {
		typeOf, ok := typeOfPrefix(el, "mw:Extension/")
		if !ok {
			return "", &UnsupportedOperationError{Op: "SerializeExtensionStartTag", Reason: "node is not an extension"}
		}
		name = strings.TrimPrefix(typeOf, "mw:Extension/")
	}
	var attrs map[string]string
	selfClose := false
	if mw != nil {
		attrs = mw.Attrs
		selfClose = mw.Body == nil
	}
	return extensionStartTag(name, attrs, selfClose), nil
}

// SerializeChildren serializes the children of el. Only image caption
// contexts are supported here; other contexts belong to the core
// serializer.
func (a *ExtAPI) SerializeChildren(el *html.Node, ctx EscapeContext, singleLine bool) (string, error) {
	sm, err := a.serializeMode("SerializeChildren")
	if err != nil {
		return "", err
	}
	if ctx != ContextInImgCaption && ctx != ContextInImgCaption|ContextInOptionList {
		return "", &UnsupportedOperationError{Op: "SerializeChildren", Reason: "context " + ctx.String()}
	}
	st := sm.state
	if singleLine {
		st.PushSingleLine()
		defer st.PopSingleLine()
	}
	return st.capture(a.bagFor(el), false, func() error {
		return st.serializeChildren(el, ctx)
	})
}

// RenderChildren renders the children of el for which keep returns true
// as HTML, with their data-parsoid and data-mw records written back as
// attributes so SerializeHTML sees them.
func (a *ExtAPI) RenderChildren(el *html.Node, keep func(*html.Node) bool) (string, error) {
	if _, err := a.serializeMode("RenderChildren"); err != nil {
		return "", err
	}
	var nodes []*html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if keep == nil || keep(c) {
			nodes = append(nodes, c)
		}
	}
	return renderWithDataAttribs(a.bagFor(el), nodes)
}

// EscapeWikitext protects text for the media or link construct it is
// written into so it reads back literally.
func (a *ExtAPI) EscapeWikitext(text string, contextNode *html.Node, ctx EscapeContext) (string, error) {
	sm, err := a.serializeMode("EscapeWikitext")
	if err != nil {
		return "", err
	}
	if ctx&(ContextInMedia|ContextInLink) == 0 || ctx&^(ContextSOL|ContextInMedia|ContextInLink) != 0 {
		return "", &UnsupportedOperationError{Op: "EscapeWikitext", Reason: "context " + ctx.String()}
	}
	if contextNode != nil {
		a.env.Log(slog.LevelDebug, "escape", LogText(contextNode.Data), LogText(ctx.String()))
	}
	return sm.state.esc.escape(text, ctx), nil
}

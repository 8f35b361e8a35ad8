// env.go defines the per-request conversion context.
package wt

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"
)

// MainSlot is the revision slot holding the page wikitext.
const MainSlot = "main"

// EnvOptions configures an Env.
type EnvOptions struct {
	Wt2HTMLLimits Limits
	HTML2WtLimits Limits
	ScrubWikitext bool
	WrapSections  bool
	Tokenizer     Tokenizer // defaults to DefaultTokenizer
	Sanitizer     Sanitizer // defaults to DefaultSanitizer
}

// Env is the context of one top-level conversion. It is created per
// request, mutated by every stage of the conversion and never shared
// between requests; it is not safe for concurrent use.
type Env struct {
	siteConfig SiteConfig
	pageConfig PageConfig
	dataAccess DataAccess

	wt2htmlUsage *ResourceLedger
	html2wtUsage *ResourceLedger

	uid              int
	fragments        *FragmentStore
	lints            LintCollector
	behaviorSwitches map[string]any
	docs             *DocumentRegistry
	topFrame         *Frame

	scrubWikitext bool
	wrapSections  bool
	tokenizer     Tokenizer
	sanitizer     Sanitizer
}

// NewEnv creates the context for one conversion.
func NewEnv(site SiteConfig, page PageConfig, data DataAccess, opts EnvOptions) *Env {
	env := &Env{
		siteConfig:       site,
		pageConfig:       page,
		dataAccess:       data,
		wt2htmlUsage:     NewResourceLedger(DirectionWt2HTML, opts.Wt2HTMLLimits),
		html2wtUsage:     NewResourceLedger(DirectionHTML2Wt, opts.HTML2WtLimits),
		fragments:        NewFragmentStore(),
		behaviorSwitches: make(map[string]any),
		docs:             newDocumentRegistry(),
		scrubWikitext:    opts.ScrubWikitext,
		wrapSections:     opts.WrapSections,
		tokenizer:        opts.Tokenizer,
		sanitizer:        opts.Sanitizer,
	}
	if env.tokenizer == nil {
		env.tokenizer = DefaultTokenizer{}
	}
	if env.sanitizer == nil {
		env.sanitizer = DefaultSanitizer{}
	}
	title := ""
	if page != nil {
		title = page.Title()
	}
	env.topFrame = NewTopFrame(title)
	return env
}

// SiteConfig returns the site configuration handle.
func (e *Env) SiteConfig() SiteConfig { return e.siteConfig }

// PageConfig returns the page configuration handle.
func (e *Env) PageConfig() PageConfig { return e.pageConfig }

// DataAccess returns the data-access handle.
func (e *Env) DataAccess() DataAccess { return e.dataAccess }

// TopFrame returns the expansion frame of the page itself.
func (e *Env) TopFrame() *Frame { return e.topFrame }

// Tokenizer returns the wikitext tokenizer in use.
func (e *Env) Tokenizer() Tokenizer { return e.tokenizer }

// Sanitizer returns the attribute sanitizer in use.
func (e *Env) Sanitizer() Sanitizer { return e.sanitizer }

// GenerateUID returns the next id of a strictly increasing sequence
// starting at 1.
func (e *Env) GenerateUID() int {
	e.uid++
	return e.uid
}

// CreateDocument parses markup into a new document with an empty data bag
// and registers it so it lives as long as the Env.
func (e *Env) CreateDocument(markup string) (*Document, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}
	e.docs.Register(doc)
	return doc, nil
}

// Documents returns the registry of documents created by this Env.
func (e *Env) Documents() *DocumentRegistry { return e.docs }

// BagFor returns the data bag of the registered document containing n.
func (e *Env) BagFor(n *html.Node) (*DataBag, bool) {
	doc, ok := e.docs.OwnerOf(n)
	if !ok {
		return nil, false
	}
	return doc.Bag, true
}

// SetFragment stores a detached forest under id.
func (e *Env) SetFragment(id string, forest []*html.Node) {
	e.fragments.Set(id, forest)
}

// GetFragment returns the forest stored under id, or a *NotFoundError.
func (e *Env) GetFragment(id string) ([]*html.Node, error) {
	return e.fragments.Get(id)
}

// Fragments returns the fragment store.
func (e *Env) Fragments() *FragmentStore { return e.fragments }

// RecordLint appends a lint, dropping nil-valued fields from data.
func (e *Env) RecordLint(lintType string, data map[string]any) {
	l := e.lints.Add(lintType, data)
	e.Log(slog.LevelDebug, "lint/"+lintType, LogDeferred(func() LogArg {
		return LogCollection(l.Data)
	}))
}

// Lints returns the recorded lints in order.
func (e *Env) Lints() []Lint { return e.lints.All() }

// BumpWt2HTMLResourceUse adds count to a wikitext->HTML counter.
func (e *Env) BumpWt2HTMLResourceUse(resource string, count int) error {
	return e.wt2htmlUsage.Bump(resource, count)
}

// BumpHTML2WtResourceUse adds count to an HTML->wikitext counter.
func (e *Env) BumpHTML2WtResourceUse(resource string, count int) error {
	return e.html2wtUsage.Bump(resource, count)
}

// Wt2HTMLUsage returns the wikitext->HTML ledger.
func (e *Env) Wt2HTMLUsage() *ResourceLedger { return e.wt2htmlUsage }

// HTML2WtUsage returns the HTML->wikitext ledger.
func (e *Env) HTML2WtUsage() *ResourceLedger { return e.html2wtUsage }

// SetBehaviorSwitch records state for a behavior switch such as "notoc".
func (e *Env) SetBehaviorSwitch(name string, state any) {
	e.behaviorSwitches[name] = state
}

// GetBehaviorSwitch returns the recorded state of name, or def.
func (e *Env) GetBehaviorSwitch(name string, def any) any {
	if v, ok := e.behaviorSwitches[name]; ok {
		return v
	}
	return def
}

// PageLanguage resolves the page language, falling back to the site
// language and then DefaultLocale.
func (e *Env) PageLanguage() string {
	lang := ""
	if e.pageConfig != nil {
		lang = e.pageConfig.PageLanguage()
	}
	if lang == "" && e.siteConfig != nil {
		lang = e.siteConfig.DefaultLanguage()
	}
	if lang == "" {
		lang = DefaultLocale
	}
	return canonicalLanguage(lang)
}

// LangConverterEnabled reports whether language variant conversion is
// enabled for the page language.
func (e *Env) LangConverterEnabled() bool {
	if e.siteConfig == nil {
		return false
	}
	return e.siteConfig.LangConverterEnabled(e.PageLanguage())
}

// ShouldScrubWikitext reports whether serialization normalizes output
// instead of preserving the original source.
func (e *Env) ShouldScrubWikitext() bool { return e.scrubWikitext }

// GetWrapSections reports whether top-level output is wrapped in sections.
func (e *Env) GetWrapSections() bool { return e.wrapSections }

// Extensions returns the site's extension registry, which may be empty.
func (e *Env) Extensions() *ExtensionRegistry {
	if e.siteConfig == nil {
		return nil
	}
	return e.siteConfig.Extensions()
}

// Log emits a record through the site logger if one is configured and the
// level is enabled. Arguments are only formatted when emitted.
func (e *Env) Log(level slog.Level, msg string, args ...LogArg) {
	if e.siteConfig == nil {
		return
	}
	logger := e.siteConfig.Logger()
	if logger == nil || !logger.Enabled(context.Background(), level) {
		return
	}
	logger.Log(context.Background(), level, msg, "args", FormatLogArgs(args...))
}

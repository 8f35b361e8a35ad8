// escape.go decides how literal text is protected when it is written back
// as wikitext. The same text needs different treatment depending on the
// construct it lands in, so callers pass an EscapeContext.
package wt

import (
	"strings"
)

// EscapeContext is a bit set describing where text is being emitted.
type EscapeContext uint

const (
	ContextSOL          EscapeContext = 1 << iota // at start of line
	ContextInMedia                                // inside [[File:...]] options
	ContextInLink                                 // inside [[...]] target or text
	ContextInImgCaption                           // inside a media caption
	ContextInOptionList                           // inside a "|"-separated option list

	// contextLinkText is link text of a core wiki link, where "|" is
	// literal after the first separator.
	contextLinkText
	// contextInHeading is heading content; only inline syntax applies.
	contextInHeading
)

var contextNames = []struct {
	flag EscapeContext
	name string
}{
	{ContextSOL, "sol"},
	{ContextInMedia, "inMedia"},
	{ContextInLink, "inLink"},
	{ContextInImgCaption, "inImgCaption"},
	{ContextInOptionList, "inOptionList"},
	{contextLinkText, "linkText"},
	{contextInHeading, "inHeading"},
}

func (c EscapeContext) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range contextNames {
		if c&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Has reports whether every flag of f is set in c.
func (c EscapeContext) Has(f EscapeContext) bool {
	return c&f == f
}

// escaper re-tokenizes candidate output to check that it reads back as
// the same literal text.
type escaper struct {
	tokenizer Tokenizer
	isExtTag  func(string) bool
	variants  bool
}

func newEscaper(env *Env) escaper {
	return escaper{
		tokenizer: env.Tokenizer(),
		isExtTag:  env.Extensions().IsExtensionTag,
		variants:  env.LangConverterEnabled(),
	}
}

// escape returns text, wrapped in nowiki when it would not read back as
// literal text in ctx.
func (e escaper) escape(text string, ctx EscapeContext) string {
	if text == "" {
		return text
	}
	var special []string
	switch {
	case ctx.Has(ContextInImgCaption | ContextInOptionList):
		special = []string{"|", "]]"}
	case ctx.Has(ContextInImgCaption):
		special = []string{"]]"}
	case ctx&(ContextInLink|ContextInMedia) != 0:
		special = []string{"|", "]]"}
	case ctx.Has(contextLinkText):
		special = []string{"]]"}
	}
	for _, s := range special {
		if strings.Contains(text, s) {
			return wrapNowiki(text)
		}
	}
	if !e.readsAsText(text, ctx) {
		return wrapNowiki(text)
	}
	return text
}

// readsAsText reports whether text tokenizes to nothing but plain text.
func (e escaper) readsAsText(text string, ctx EscapeContext) bool {
	inline := ctx&^ContextSOL != 0
	res := e.tokenizer.Tokenize(text, TokenizeOptions{
		SOL:           ctx.Has(ContextSOL),
		InlineContext: inline,
		IsExtTag:      e.isExtTag,
		Variants:      e.variants,
	})
	for _, t := range res.Tokens {
		if t.Kind != TokenText {
			return false
		}
	}
	return true
}

func wrapNowiki(text string) string {
	return "<nowiki>" + text + "</nowiki>"
}

// escapeHeadingEdges protects "=" runs at either end of heading content,
// which would otherwise change the heading level.
func escapeHeadingEdges(s string) string {
	if s != "" && strings.Trim(s, "=") == "" {
		return wrapNowiki(s)
	}
	if n := countLeading(s, '='); n > 0 && n < len(s) {
		s = wrapNowiki(s[:n]) + s[n:]
	}
	if n := countTrailing(s, '='); n > 0 && n < len(s) {
		s = s[:len(s)-n] + wrapNowiki(s[len(s)-n:])
	}
	return s
}

// tokenizer.go implements the bundled wikitext tokenizer. It recognises a
// small subset of the grammar: headings, templates, wiki links, inline
// media, extension tags, nowiki, comments and language variants.
package wt

import (
	"strings"
)

// TokenKind identifies the construct a token was produced from.
type TokenKind int

const (
	TokenText     TokenKind = iota // plain text run
	TokenHeading                   // ==heading== at start of line
	TokenTemplate                  // {{target|args}}
	TokenWikiLink                  // [[Target|text]]
	TokenMedia                     // [[File:X|options|caption]]
	TokenExtTag                    // <name attrs>body</name> or <name/>
	TokenNowiki                    // <nowiki>text</nowiki>
	TokenComment                   // <!--text-->
	TokenVariant                   // -{...}-
)

// VariantKind distinguishes the forms of a language variant construct.
type VariantKind int

const (
	VariantDisabled   VariantKind = iota // -{text}-
	VariantKindTwoway                    // -{l1:t1;l2:t2}-
	VariantKindOneway                    // -{a=>l:t}-
)

// TemplateArg is one argument of a template invocation as written.
type TemplateArg struct {
	Name  string
	Value string
	Named bool
}

// VariantRule is one ";"-separated rule of a variant construct.
type VariantRule struct {
	From string // one-way only
	Lang string
	Text string
}

// MediaTokenPart is one "|"-separated part of a media link.
type MediaTokenPart struct {
	Raw     string
	Start   int // offset of Raw in the tokenized input
	Caption bool
}

// Token is one construct found in the input. Offsets are byte offsets into
// the tokenized input; tokens of nested content carry offsets into the
// same input.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
	Src   string

	Text     string  // text, nowiki and comment payload
	Level    int     // heading level
	Children []Token // heading content, link text

	Target string        // template, link and media target as written
	Args   []TemplateArg // template arguments
	Piped  bool          // link text was given explicitly
	Parts  []MediaTokenPart

	Name      string // extension tag name, lower-cased
	Attrs     []Attr
	Body      string
	BodyStart int
	SelfClose bool

	Variant VariantKind
	Rules   []VariantRule
}

// TokenWarning reports a construct that looked like syntax but was not
// closed. The pipeline turns warnings into lints.
type TokenWarning struct {
	Type   string
	Offset int
	Detail string
}

// TokenizeOptions selects which constructs are recognised.
type TokenizeOptions struct {
	SOL           bool              // input starts at start of line
	InlineContext bool              // no block constructs (headings)
	IsExtTag      func(string) bool // registered extension tag names
	Variants      bool              // language variant syntax is active
}

// TokenizeResult is the token stream plus warnings.
type TokenizeResult struct {
	Tokens   []Token
	Warnings []TokenWarning
}

// Tokenizer turns wikitext into a token stream.
type Tokenizer interface {
	Tokenize(input string, opts TokenizeOptions) *TokenizeResult
}

// DefaultTokenizer is the bundled Tokenizer.
type DefaultTokenizer struct{}

// Tokenize scans input left to right. Text between constructs is returned
// as merged TokenText tokens; anything that fails to parse as a construct
// is text.
func (DefaultTokenizer) Tokenize(input string, opts TokenizeOptions) *TokenizeResult {
	s := &scanner{in: input, opts: opts, res: &TokenizeResult{}}
	s.run()
	return s.res
}

type scanner struct {
	in   string
	opts TokenizeOptions
	res  *TokenizeResult
}

func (s *scanner) run() {
	pos := 0
	textStart := 0
	for pos < len(s.in) {
		tok, ok := s.tryConstruct(pos)
		if !ok {
			pos++
			continue
		}
		s.emitText(textStart, pos)
		s.emit(tok)
		pos = tok.End
		textStart = pos
	}
	s.emitText(textStart, len(s.in))
}

func (s *scanner) emitText(start, end int) {
	if end <= start {
		return
	}
	s.emit(Token{Kind: TokenText, Start: start, End: end, Src: s.in[start:end], Text: s.in[start:end]})
}

// emit appends tok, merging adjacent text tokens.
func (s *scanner) emit(tok Token) {
	toks := s.res.Tokens
	if tok.Kind == TokenText && len(toks) > 0 && toks[len(toks)-1].Kind == TokenText {
		last := &toks[len(toks)-1]
		last.End = tok.End
		last.Src += tok.Src
		last.Text += tok.Text
		return
	}
	s.res.Tokens = append(toks, tok)
}

func (s *scanner) warn(typ string, offset int, detail string) {
	s.res.Warnings = append(s.res.Warnings, TokenWarning{Type: typ, Offset: offset, Detail: detail})
}

func (s *scanner) atSOL(pos int) bool {
	if pos == 0 {
		return s.opts.SOL
	}
	return s.in[pos-1] == '\n'
}

func (s *scanner) tryConstruct(pos int) (Token, bool) {
	rest := s.in[pos:]
	switch {
	case rest[0] == '=' && !s.opts.InlineContext && s.atSOL(pos):
		return s.heading(pos)
	case strings.HasPrefix(rest, "<!--"):
		return s.comment(pos)
	case hasPrefixFold(rest, "<nowiki>"):
		return s.nowiki(pos)
	case rest[0] == '<':
		return s.extTag(pos)
	case strings.HasPrefix(rest, "{{{"):
		return s.paramRef(pos)
	case strings.HasPrefix(rest, "{{"):
		return s.template(pos)
	case strings.HasPrefix(rest, "[["):
		return s.link(pos)
	case strings.HasPrefix(rest, "-{") && s.opts.Variants:
		return s.variant(pos)
	}
	return Token{}, false
}

// sub tokenizes a nested region starting at offset in s.in.
func (s *scanner) sub(offset int, text string, inline bool) []Token {
	toks, warnings := s.scanNested(offset, text, inline)
	s.res.Warnings = append(s.res.Warnings, warnings...)
	return toks
}

// scanNested tokenizes a nested region without recording its warnings.
func (s *scanner) scanNested(offset int, text string, inline bool) ([]Token, []TokenWarning) {
	opts := s.opts
	opts.SOL = false
	opts.InlineContext = opts.InlineContext || inline
	res := DefaultTokenizer{}.Tokenize(text, opts)
	for i := range res.Warnings {
		res.Warnings[i].Offset += offset
	}
	return ShiftTokens(res.Tokens, offset), res.Warnings
}

// ShiftTokens adds delta to the offsets of toks and their children.
func ShiftTokens(toks []Token, delta int) []Token {
	if delta == 0 {
		return toks
	}
	for i := range toks {
		t := &toks[i]
		t.Start += delta
		t.End += delta
		t.BodyStart += delta
		for j := range t.Parts {
			t.Parts[j].Start += delta
		}
		t.Children = ShiftTokens(t.Children, delta)
	}
	return toks
}

func (s *scanner) heading(pos int) (Token, bool) {
	end := strings.IndexByte(s.in[pos:], '\n')
	if end < 0 {
		end = len(s.in)
	} else {
		end += pos
	}
	line := s.in[pos:end]
	n := countLeading(line, '=')
	m := countTrailing(line, '=')
	if n < 1 || n > 6 || n != m || len(line) <= 2*n {
		return Token{}, false
	}
	content := line[n : len(line)-n]
	return Token{
		Kind:     TokenHeading,
		Start:    pos,
		End:      end,
		Src:      line,
		Level:    n,
		Children: s.sub(pos+n, content, true),
	}, true
}

func (s *scanner) comment(pos int) (Token, bool) {
	close := strings.Index(s.in[pos+4:], "-->")
	if close < 0 {
		return Token{}, false
	}
	end := pos + 4 + close + 3
	return Token{
		Kind:  TokenComment,
		Start: pos,
		End:   end,
		Src:   s.in[pos:end],
		Text:  s.in[pos+4 : end-3],
	}, true
}

func (s *scanner) nowiki(pos int) (Token, bool) {
	bodyStart := pos + len("<nowiki>")
	close := indexFold(s.in[bodyStart:], "</nowiki>")
	if close < 0 {
		return Token{}, false
	}
	end := bodyStart + close + len("</nowiki>")
	return Token{
		Kind:      TokenNowiki,
		Start:     pos,
		End:       end,
		Src:       s.in[pos:end],
		Text:      s.in[bodyStart : bodyStart+close],
		BodyStart: bodyStart,
	}, true
}

func (s *scanner) extTag(pos int) (Token, bool) {
	i := pos + 1
	for i < len(s.in) && isTagNameChar(s.in[i]) {
		i++
	}
	name := asciiLower(s.in[pos+1 : i])
	if name == "" || s.opts.IsExtTag == nil || !s.opts.IsExtTag(name) {
		return Token{}, false
	}
	attrs, tagEnd, selfClose, ok := parseTagAttrs(s.in, i)
	if !ok {
		return Token{}, false
	}
	tok := Token{
		Kind:  TokenExtTag,
		Start: pos,
		Name:  name,
		Attrs: attrs,
	}
	if selfClose {
		tok.End = tagEnd
		tok.Src = s.in[pos:tagEnd]
		tok.SelfClose = true
		tok.BodyStart = tagEnd
		return tok, true
	}
	closeTag := "</" + name + ">"
	close := indexFold(s.in[tagEnd:], closeTag)
	if close < 0 {
		s.warn("unclosed-extension", pos, name)
		return Token{}, false
	}
	tok.BodyStart = tagEnd
	tok.Body = s.in[tagEnd : tagEnd+close]
	tok.End = tagEnd + close + len(closeTag)
	tok.Src = s.in[pos:tok.End]
	return tok, true
}

// paramRef consumes a {{{...}}} parameter reference left in page text as
// plain text.
func (s *scanner) paramRef(pos int) (Token, bool) {
	end := matchTripleBrace(s.in, pos)
	if end < 0 {
		return Token{}, false
	}
	return Token{Kind: TokenText, Start: pos, End: end, Src: s.in[pos:end], Text: s.in[pos:end]}, true
}

func (s *scanner) template(pos int) (Token, bool) {
	end := matchPair(s.in, pos, "{{", "}}")
	if end < 0 {
		if pos == 0 || s.in[pos-1] != '{' {
			s.warn("unclosed-template", pos, "")
		}
		return Token{}, false
	}
	parts := splitTopLevel(s.in[pos+2:end-2], pos+2)
	target := strings.TrimSpace(parts[0].text)
	if !validTarget(target) {
		return Token{}, false
	}
	tok := Token{
		Kind:   TokenTemplate,
		Start:  pos,
		End:    end,
		Src:    s.in[pos:end],
		Target: parts[0].text,
	}
	for _, p := range parts[1:] {
		if name, val, ok := cutTopLevelEquals(p.text); ok {
			tok.Args = append(tok.Args, TemplateArg{Name: name, Value: val, Named: true})
			continue
		}
		tok.Args = append(tok.Args, TemplateArg{Value: p.text})
	}
	return tok, true
}

func (s *scanner) link(pos int) (Token, bool) {
	end := matchPair(s.in, pos, "[[", "]]")
	if end < 0 {
		return Token{}, false
	}
	innerStart := pos + 2
	inner := s.in[innerStart : end-2]
	target, rest, piped := cutTopLevelPipe(inner)
	trimmed := strings.TrimSpace(target)
	if !validTarget(trimmed) {
		return Token{}, false
	}
	restStart := innerStart + len(target) + 1
	if isMediaTitle(trimmed) {
		tok := Token{Kind: TokenMedia, Start: pos, End: end, Src: s.in[pos:end], Target: target}
		if !piped {
			return tok, true
		}
		parts := splitTopLevel(rest, restStart)
		captionIdx := -1
		for i, p := range parts {
			if !isMediaOption(p.text) {
				captionIdx = i
			}
		}
		for i, p := range parts {
			tok.Parts = append(tok.Parts, MediaTokenPart{Raw: p.text, Start: p.start, Caption: i == captionIdx})
		}
		return tok, true
	}
	tok := Token{Kind: TokenWikiLink, Start: pos, End: end, Src: s.in[pos:end], Target: target, Piped: piped}
	if piped {
		children, warnings := s.scanNested(restStart, rest, true)
		// A link or media in the link text makes the outer brackets
		// plain text; anchors cannot nest.
		for _, c := range children {
			if c.Kind == TokenWikiLink || c.Kind == TokenMedia {
				return Token{}, false
			}
		}
		s.res.Warnings = append(s.res.Warnings, warnings...)
		tok.Children = children
	}
	return tok, true
}

func (s *scanner) variant(pos int) (Token, bool) {
	end := matchPair(s.in, pos, "-{", "}-")
	if end < 0 {
		return Token{}, false
	}
	inner := s.in[pos+2 : end-2]
	tok := Token{Kind: TokenVariant, Start: pos, End: end, Src: s.in[pos:end], BodyStart: pos + 2}
	tok.Variant, tok.Rules = parseVariantRules(inner)
	if tok.Variant == VariantDisabled {
		tok.Text = inner
	}
	return tok, true
}

// parseVariantRules classifies the body of -{...}-.
func parseVariantRules(inner string) (VariantKind, []VariantRule) {
	segs := strings.Split(inner, ";")
	if len(segs) > 1 && strings.TrimSpace(segs[len(segs)-1]) == "" {
		segs = segs[:len(segs)-1]
	}
	var twoway, oneway []VariantRule
	for _, seg := range segs {
		if from, rest, ok := strings.Cut(seg, "=>"); ok {
			lang, text, ok := strings.Cut(rest, ":")
			if !ok || !isLangCode(strings.TrimSpace(lang)) {
				return VariantDisabled, nil
			}
			oneway = append(oneway, VariantRule{From: from, Lang: strings.TrimSpace(lang), Text: text})
			continue
		}
		lang, text, ok := strings.Cut(seg, ":")
		if !ok || !isLangCode(strings.TrimSpace(lang)) {
			return VariantDisabled, nil
		}
		twoway = append(twoway, VariantRule{Lang: strings.TrimSpace(lang), Text: text})
	}
	switch {
	case len(twoway) > 0 && len(oneway) == 0:
		return VariantKindTwoway, twoway
	case len(oneway) > 0 && len(twoway) == 0:
		return VariantKindOneway, oneway
	}
	return VariantDisabled, nil
}

type span struct {
	text  string
	start int
}

// splitTopLevel splits s at "|" characters outside nested braces,
// brackets and nowiki sections. base is the offset of s in the input.
func splitTopLevel(s string, base int) []span {
	var out []span
	start := 0
	depth := 0
	for i := 0; i < len(s); {
		if j, ok := skipNowiki(s, i); ok {
			i = j
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "{{") || strings.HasPrefix(s[i:], "[["):
			depth++
			i += 2
		case (strings.HasPrefix(s[i:], "}}") || strings.HasPrefix(s[i:], "]]")) && depth > 0:
			depth--
			i += 2
		case s[i] == '|' && depth == 0:
			out = append(out, span{text: s[start:i], start: base + start})
			i++
			start = i
		default:
			i++
		}
	}
	return append(out, span{text: s[start:], start: base + start})
}

// cutTopLevelPipe splits s at its first top-level "|".
func cutTopLevelPipe(s string) (before, after string, found bool) {
	parts := splitTopLevel(s, 0)
	if len(parts) == 1 {
		return s, "", false
	}
	return parts[0].text, s[parts[1].start:], true
}

// cutTopLevelEquals splits a template argument into name and value when
// it has a top-level "=".
func cutTopLevelEquals(s string) (name, value string, ok bool) {
	depth := 0
	for i := 0; i < len(s); {
		if j, skip := skipNowiki(s, i); skip {
			i = j
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "{{") || strings.HasPrefix(s[i:], "[["):
			depth++
			i += 2
		case (strings.HasPrefix(s[i:], "}}") || strings.HasPrefix(s[i:], "]]")) && depth > 0:
			depth--
			i += 2
		case s[i] == '=' && depth == 0:
			return s[:i], s[i+1:], true
		default:
			i++
		}
	}
	return "", "", false
}

// matchPair returns the offset just past the close sequence matching the
// open sequence at pos, or -1. Nowiki sections are skipped.
func matchPair(s string, pos int, open, close string) int {
	depth := 0
	for i := pos; i < len(s); {
		if j, ok := skipNowiki(s, i); ok {
			i = j
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(s[i:], close):
			depth--
			i += len(close)
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

// skipNowiki returns the offset past a <nowiki>...</nowiki> section at i.
func skipNowiki(s string, i int) (int, bool) {
	if !hasPrefixFold(s[i:], "<nowiki>") {
		return i, false
	}
	close := indexFold(s[i+len("<nowiki>"):], "</nowiki>")
	if close < 0 {
		return i, false
	}
	return i + len("<nowiki>") + close + len("</nowiki>"), true
}

// parseTagAttrs parses attributes from i up to and including ">" or "/>".
func parseTagAttrs(s string, i int) (attrs []Attr, end int, selfClose bool, ok bool) {
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		switch {
		case s[i] == '>':
			return attrs, i + 1, false, true
		case strings.HasPrefix(s[i:], "/>"):
			return attrs, i + 2, true, true
		case s[i] == '<':
			return nil, i, false, false
		}
		keyStart := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' && s[i] != '>' && s[i] != '/' && s[i] != '<' {
			i++
		}
		if i == keyStart {
			return nil, i, false, false
		}
		key := asciiLower(s[keyStart:i])
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			attrs = append(attrs, Attr{Key: key})
			continue
		}
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		if q := s[i]; q == '"' || q == '\'' {
			close := strings.IndexByte(s[i+1:], q)
			if close < 0 {
				return nil, i, false, false
			}
			attrs = append(attrs, Attr{Key: key, Val: s[i+1 : i+1+close]})
			i += close + 2
			continue
		}
		valStart := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '>' && !strings.HasPrefix(s[i:], "/>") {
			i++
		}
		attrs = append(attrs, Attr{Key: key, Val: s[valStart:i]})
	}
	return nil, i, false, false
}

var mediaOptions = map[string]bool{
	"thumb": true, "thumbnail": true, "frame": true, "framed": true,
	"frameless": true, "border": true, "left": true, "right": true,
	"center": true, "centre": true, "none": true, "upright": true,
}

// isMediaOption reports whether a media link part is a rendering option
// rather than a caption.
func isMediaOption(part string) bool {
	p := strings.TrimSpace(part)
	if mediaOptions[asciiLower(p)] {
		return true
	}
	if strings.HasSuffix(p, "px") {
		digits := strings.TrimSuffix(p, "px")
		if w, h, ok := strings.Cut(digits, "x"); ok {
			return isDigits(h) && (w == "" || isDigits(w))
		}
		return isDigits(digits)
	}
	for _, prefix := range []string{"alt=", "link=", "upright=", "page=", "class="} {
		if strings.HasPrefix(asciiLower(p), prefix) {
			return true
		}
	}
	return false
}

func isMediaTitle(target string) bool {
	lower := asciiLower(target)
	return strings.HasPrefix(lower, "file:") || strings.HasPrefix(lower, "image:")
}

func validTarget(t string) bool {
	return t != "" && !strings.ContainsAny(t, "[]{}<>|\n")
}

func isLangCode(s string) bool {
	if len(s) < 2 || len(s) > 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return false
		}
	}
	return s[0] >= 'a' && s[0] <= 'z'
}

func isTagNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func countLeading(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

func countTrailing(s string, c byte) int {
	n := 0
	for n < len(s) && s[len(s)-1-n] == c {
		n++
	}
	return n
}

// asciiLower lower-cases ASCII letters only, so byte offsets are preserved.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && asciiLower(s[:len(prefix)]) == prefix
}

// indexFold is strings.Index with ASCII case folding; sub must be lower case.
func indexFold(s, sub string) int {
	return strings.Index(asciiLower(s), sub)
}

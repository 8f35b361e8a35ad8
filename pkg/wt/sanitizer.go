// sanitizer.go filters attributes that extension tags place on output
// elements.
package wt

import (
	"regexp"
	"strings"
)

// Sanitizer cleans user-supplied attributes before they reach the DOM.
type Sanitizer interface {
	// SanitizeArgs returns the attributes of attrs that may appear on tag,
	// with their values cleaned.
	SanitizeArgs(tag string, attrs []Attr) []Attr
	// SanitizeHTMLID returns id in a form safe for an id attribute.
	SanitizeHTMLID(id string) string
	// SanitizeCSS returns css, or a placeholder comment if it is unsafe.
	SanitizeCSS(css string) string
	// ValidHTMLAttributes returns the attribute whitelist for tag.
	ValidHTMLAttributes(tag string) map[string]bool
}

// insecureCSS replaces style values that could run script or load
// resources.
const insecureCSS = "/* insecure input */"

var commonAttrs = []string{
	"id", "class", "style", "lang", "dir", "title", "tabindex",
	"role", "aria-describedby", "aria-label", "aria-labelledby", "aria-hidden",
}

var tagAttrs = map[string][]string{
	"div":        {"align"},
	"span":       {},
	"p":          {"align"},
	"pre":        {"width"},
	"table":      {"summary", "width", "border", "frame", "rules", "cellspacing", "cellpadding", "align", "bgcolor"},
	"td":         {"abbr", "axis", "headers", "scope", "rowspan", "colspan", "nowrap", "width", "height", "bgcolor", "align", "valign"},
	"th":         {"abbr", "axis", "headers", "scope", "rowspan", "colspan", "nowrap", "width", "height", "bgcolor", "align", "valign"},
	"ul":         {"type"},
	"ol":         {"type", "start", "reversed"},
	"li":         {"type", "value"},
	"a":          {"href", "rel", "rev"},
	"img":        {"alt", "src", "width", "height", "srcset", "resource"},
	"blockquote": {"cite"},
	"code":       {},
	"font":       {"size", "color", "face"},
}

var unsafeCSS = regexp.MustCompile(`(?i)expression|url\s*\(|image-set\s*\(|javascript:|behavior|-moz-binding|/\*|\\`)

var idInvalid = regexp.MustCompile(`[\s]+`)

// DefaultSanitizer is a whitelist sanitizer modelled on the usual wiki
// rules: per-tag attribute lists, data-* attributes except the reserved
// annotation attributes, no event handlers, and CSS checked for script.
type DefaultSanitizer struct{}

// SanitizeArgs implements Sanitizer.
func (s DefaultSanitizer) SanitizeArgs(tag string, attrs []Attr) []Attr {
	valid := s.ValidHTMLAttributes(tag)
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		key := strings.ToLower(strings.TrimSpace(a.Key))
		switch {
		case key == "data-mw" || key == "data-parsoid":
			continue
		case strings.HasPrefix(key, "on"):
			continue
		case strings.HasPrefix(key, "data-") && len(key) > len("data-"):
		case !valid[key]:
			continue
		}
		val := a.Val
		switch key {
		case "style":
			val = s.SanitizeCSS(val)
		case "id":
			val = s.SanitizeHTMLID(val)
		case "href", "src":
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(val)), "javascript:") {
				continue
			}
		}
		out = append(out, Attr{Key: key, Val: val})
	}
	return out
}

// SanitizeHTMLID implements Sanitizer.
func (DefaultSanitizer) SanitizeHTMLID(id string) string {
	return idInvalid.ReplaceAllString(strings.TrimSpace(id), "_")
}

// SanitizeCSS implements Sanitizer.
func (DefaultSanitizer) SanitizeCSS(css string) string {
	if unsafeCSS.MatchString(css) {
		return insecureCSS
	}
	return strings.TrimSpace(css)
}

// ValidHTMLAttributes implements Sanitizer.
func (DefaultSanitizer) ValidHTMLAttributes(tag string) map[string]bool {
	valid := make(map[string]bool, len(commonAttrs)+8)
	for _, a := range commonAttrs {
		valid[a] = true
	}
	for _, a := range tagAttrs[strings.ToLower(tag)] {
		valid[a] = true
	}
	return valid
}

// collaborators.go declares the read-only handles the core consumes and
// simple in-memory implementations of them.
package wt

import (
	"log/slog"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is used when neither the page nor the site names a language.
const DefaultLocale = "en"

// SiteConfig exposes site-wide settings.
type SiteConfig interface {
	// DefaultLanguage is the site content language.
	DefaultLanguage() string
	// LangConverterEnabled reports whether variant conversion is on for lang.
	LangConverterEnabled(lang string) bool
	// Logger returns the logger handle, or nil to disable logging.
	Logger() *slog.Logger
	// Extensions returns the registered extension tags.
	Extensions() *ExtensionRegistry
}

// PageContent gives access to the slots of one revision.
type PageContent interface {
	Slot(role string) (string, error)
}

// PageConfig exposes settings of the page being converted.
type PageConfig interface {
	Title() string
	PageLanguage() string
	RevisionContent() PageContent
}

// DataAccess fetches content the conversion needs beyond the page itself.
type DataAccess interface {
	// FetchTemplateSource returns the wikitext of a template page.
	// ok is false when the page does not exist.
	FetchTemplateSource(title string) (src string, ok bool, err error)
}

// StaticSiteConfig is a SiteConfig backed by plain fields.
type StaticSiteConfig struct {
	Language      string
	LangConverter []string
	Log           *slog.Logger
	Registry      *ExtensionRegistry
}

func (c *StaticSiteConfig) DefaultLanguage() string { return c.Language }

func (c *StaticSiteConfig) LangConverterEnabled(lang string) bool {
	want := canonicalLanguage(lang)
	for _, l := range c.LangConverter {
		if canonicalLanguage(l) == want {
			return true
		}
	}
	return false
}

func (c *StaticSiteConfig) Logger() *slog.Logger { return c.Log }

func (c *StaticSiteConfig) Extensions() *ExtensionRegistry {
	if c.Registry == nil {
		c.Registry = NewExtensionRegistry()
	}
	return c.Registry
}

// StaticPageContent maps slot roles to content.
type StaticPageContent map[string]string

// Slot returns the content of role.
func (c StaticPageContent) Slot(role string) (string, error) {
	s, ok := c[role]
	if !ok {
		return "", &NotFoundError{Kind: "slot", Key: role}
	}
	return s, nil
}

// StaticPageConfig is a PageConfig for in-memory content.
type StaticPageConfig struct {
	PageTitle string
	Language  string
	Content   StaticPageContent
}

func (c *StaticPageConfig) Title() string                { return c.PageTitle }
func (c *StaticPageConfig) PageLanguage() string         { return c.Language }
func (c *StaticPageConfig) RevisionContent() PageContent { return c.Content }

// NewStaticPage returns a page config with wikitext in the main slot.
func NewStaticPage(title, wikitext string) *StaticPageConfig {
	return &StaticPageConfig{
		PageTitle: title,
		Content:   StaticPageContent{MainSlot: wikitext},
	}
}

// StaticDataAccess serves templates from a map keyed by page title.
type StaticDataAccess map[string]string

// FetchTemplateSource looks up title, ignoring the case of the first letter
// and treating spaces and underscores alike.
func (d StaticDataAccess) FetchTemplateSource(title string) (string, bool, error) {
	want := normalizeTitle(title)
	for k, v := range d {
		if normalizeTitle(k) == want {
			return v, true, nil
		}
	}
	return "", false, nil
}

// canonicalLanguage returns the BCP 47 form of lang, or lang lower-cased
// when it does not parse.
func canonicalLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	return tag.String()
}

// normalizeTitle turns "foo_bar" and "Foo bar" into "Foo bar", including a
// namespace prefix.
func normalizeTitle(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if ns, rest, ok := strings.Cut(title, ":"); ok && ns != "" && rest != "" {
		return ucfirst(strings.TrimSpace(ns)) + ":" + ucfirst(strings.TrimSpace(rest))
	}
	return ucfirst(title)
}

// titleToHref turns a title into a relative link target.
func titleToHref(title string) string {
	return "./" + strings.ReplaceAll(normalizeTitle(title), " ", "_")
}

// hrefToTitle reverses titleToHref.
func hrefToTitle(href string) string {
	return strings.ReplaceAll(strings.TrimPrefix(href, "./"), "_", " ")
}

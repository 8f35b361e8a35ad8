// extension.go holds the registry of extension tags and the interfaces
// extension code implements.
package wt

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ExtensionTagHandler converts the source of one extension tag into a
// document. The returned document's body children become the output.
type ExtensionTagHandler interface {
	SourceToDOM(api *ExtAPI, src string, args []Attr) (*Document, error)
}

// ExtensionSerializer is implemented by handlers that produce their own
// wikitext for an edited extension node.
type ExtensionSerializer interface {
	DOMToWikitext(api *ExtAPI, node *html.Node) (string, error)
}

// ExtensionTagConfig binds a tag name to its handler.
type ExtensionTagConfig struct {
	Name    string
	Handler ExtensionTagHandler
}

// ExtensionConfig groups the tags contributed by one extension.
type ExtensionConfig struct {
	Name string
	Tags []ExtensionTagConfig
}

type registeredTag struct {
	ext     string
	handler ExtensionTagHandler
}

// ExtensionRegistry maps tag names to handlers. Lookups are
// case-insensitive. A nil registry has no tags.
type ExtensionRegistry struct {
	tags map[string]registeredTag
}

// NewExtensionRegistry returns an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{tags: make(map[string]registeredTag)}
}

// Register adds every tag of cfg. Registering a tag twice is an error.
func (r *ExtensionRegistry) Register(cfg ExtensionConfig) error {
	for _, t := range cfg.Tags {
		name := strings.ToLower(t.Name)
		if name == "" || t.Handler == nil {
			return fmt.Errorf("extension %s: tag needs a name and a handler", cfg.Name)
		}
		if prev, ok := r.tags[name]; ok {
			return fmt.Errorf("extension %s: tag <%s> already registered by %s", cfg.Name, name, prev.ext)
		}
		r.tags[name] = registeredTag{ext: cfg.Name, handler: t.Handler}
	}
	return nil
}

// Lookup returns the handler for name.
func (r *ExtensionRegistry) Lookup(name string) (ExtensionTagHandler, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tags[strings.ToLower(name)]
	return t.handler, ok
}

// IsExtensionTag reports whether name is a registered tag.
func (r *ExtensionRegistry) IsExtensionTag(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// TagNames returns the registered tag names in sorted order.
func (r *ExtensionRegistry) TagNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tags))
	for n := range r.tags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// frame.go models template expansion contexts.
package wt

import (
	"strconv"
	"strings"
)

// Frame is one level of template expansion. The top frame belongs to the
// page itself.
type Frame struct {
	title  string
	args   map[string]string
	parent *Frame
	depth  int
}

// NewTopFrame returns the frame of the page being converted.
func NewTopFrame(title string) *Frame {
	return &Frame{title: normalizeTitle(title), args: map[string]string{}}
}

// Title returns the normalized title of the page this frame expands.
func (f *Frame) Title() string { return f.title }

// Depth returns the number of template expansions above the page.
func (f *Frame) Depth() int { return f.depth }

// Parent returns the enclosing frame, or nil for the top frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Arg returns the value of a named or positional argument.
func (f *Frame) Arg(name string) (string, bool) {
	v, ok := f.args[name]
	return v, ok
}

// Expanding reports whether title is already being expanded by f or one of
// its ancestors.
func (f *Frame) Expanding(title string) bool {
	title = normalizeTitle(title)
	for cur := f; cur != nil; cur = cur.parent {
		if cur.title == title {
			return true
		}
	}
	return false
}

// NewChild returns the frame for expanding title with args.
func (f *Frame) NewChild(title string, args []TemplateArg) *Frame {
	child := &Frame{
		title:  normalizeTitle(title),
		args:   make(map[string]string, len(args)),
		parent: f,
		depth:  f.depth + 1,
	}
	pos := 0
	for _, a := range args {
		if a.Named {
			child.args[strings.TrimSpace(a.Name)] = strings.TrimSpace(a.Value)
			continue
		}
		pos++
		child.args[strconv.Itoa(pos)] = a.Value
	}
	return child
}

// Expand substitutes {{{name}}} and {{{name|default}}} parameter
// references in src with this frame's arguments. References without a
// value or default are left as written.
func (f *Frame) Expand(src string) string {
	var sb strings.Builder
	pos := 0
	for {
		open := strings.Index(src[pos:], "{{{")
		if open < 0 {
			sb.WriteString(src[pos:])
			return sb.String()
		}
		open += pos
		end := matchTripleBrace(src, open)
		if end < 0 {
			sb.WriteString(src[pos:])
			return sb.String()
		}
		sb.WriteString(src[pos:open])
		inner := f.Expand(src[open+3 : end-3])
		name, def, hasDef := strings.Cut(inner, "|")
		if v, ok := f.args[strings.TrimSpace(name)]; ok {
			sb.WriteString(v)
		} else if hasDef {
			sb.WriteString(def)
		} else {
			sb.WriteString("{{{" + inner + "}}}")
		}
		pos = end
	}
}

// matchTripleBrace returns the offset just past the "}}}" closing the
// "{{{" at open, or -1.
func matchTripleBrace(src string, open int) int {
	depth := 0
	for i := open; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "{{{"):
			depth++
			i += 3
		case strings.HasPrefix(src[i:], "}}}"):
			depth--
			i += 3
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

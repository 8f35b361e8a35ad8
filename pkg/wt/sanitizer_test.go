package wt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSanitizer_SanitizeArgs(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		attrs []Attr
		want  []Attr
	}{
		{
			name:  "common attributes kept",
			tag:   "div",
			attrs: []Attr{{Key: "class", Val: "a"}, {Key: "Title", Val: "t"}},
			want:  []Attr{{Key: "class", Val: "a"}, {Key: "title", Val: "t"}},
		},
		{
			name:  "tag specific attributes",
			tag:   "td",
			attrs: []Attr{{Key: "colspan", Val: "2"}, {Key: "start", Val: "3"}},
			want:  []Attr{{Key: "colspan", Val: "2"}},
		},
		{
			name:  "event handlers dropped",
			tag:   "span",
			attrs: []Attr{{Key: "onclick", Val: "x()"}, {Key: "onmouseover", Val: "y()"}},
			want:  []Attr{},
		},
		{
			name:  "data attributes",
			tag:   "span",
			attrs: []Attr{{Key: "data-x", Val: "1"}, {Key: "data-mw", Val: "{}"}, {Key: "data-parsoid", Val: "{}"}, {Key: "data-", Val: "z"}},
			want:  []Attr{{Key: "data-x", Val: "1"}},
		},
		{
			name:  "style checked",
			tag:   "p",
			attrs: []Attr{{Key: "style", Val: "color:red;"}, {Key: "style", Val: "width: expression(1)"}},
			want:  []Attr{{Key: "style", Val: "color:red;"}, {Key: "style", Val: insecureCSS}},
		},
		{
			name:  "id normalised",
			tag:   "div",
			attrs: []Attr{{Key: "id", Val: "my  id"}},
			want:  []Attr{{Key: "id", Val: "my_id"}},
		},
		{
			name:  "script urls dropped",
			tag:   "a",
			attrs: []Attr{{Key: "href", Val: " JavaScript:alert(1)"}, {Key: "rel", Val: "nofollow"}},
			want:  []Attr{{Key: "rel", Val: "nofollow"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSanitizer{}.SanitizeArgs(tt.tag, tt.attrs))
		})
	}
}

func TestDefaultSanitizer_SanitizeCSS(t *testing.T) {
	tests := []struct {
		css  string
		want string
	}{
		{css: "color: red", want: "color: red"},
		{css: "  margin: 0 ", want: "margin: 0"},
		{css: "background: URL (x.png)", want: insecureCSS},
		{css: "a: b /* c */", want: insecureCSS},
		{css: `content: "\41"`, want: insecureCSS},
		{css: "-moz-binding: x", want: insecureCSS},
	}
	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSanitizer{}.SanitizeCSS(tt.css))
		})
	}
}

func TestDefaultSanitizer_ValidHTMLAttributes(t *testing.T) {
	valid := DefaultSanitizer{}.ValidHTMLAttributes("OL")
	assert.True(t, valid["start"])
	assert.True(t, valid["class"])
	assert.False(t, valid["colspan"])

	unknown := DefaultSanitizer{}.ValidHTMLAttributes("blink")
	assert.True(t, unknown["id"])
	assert.False(t, unknown["align"])
}

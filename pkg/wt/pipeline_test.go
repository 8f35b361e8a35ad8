package wt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestProcessContentInPipeline_Empty(t *testing.T) {
	env := newTestEnv(t, "", nil, EnvOptions{Wt2HTMLLimits: Limits{ResourceWikitextSize: 0}})
	doc, err := ProcessContentInPipeline(env, nil, "", PipelineOptions{})
	require.NoError(t, err)
	assert.Empty(t, elementChildren(doc.Body()))
	assert.Equal(t, 0, env.Wt2HTMLUsage().Used(ResourceToken))
}

func TestProcessContentInPipeline_Link(t *testing.T) {
	src := "see [[foo bar|the bar]]"
	env := newTestEnv(t, src, nil, EnvOptions{})
	doc, err := ProcessContentInPipeline(env, nil, src, PipelineOptions{SrcOffsets: &SourceRange{Start: 100, End: 100 + len(src)}})
	require.NoError(t, err)

	a := findElement(doc.Root, "a")
	require.NotNil(t, a)
	assert.Equal(t, "mw:WikiLink", attrOr(a, "rel", ""))
	assert.Equal(t, "./Foo_bar", attrOr(a, "href", ""))
	assert.Equal(t, "Foo bar", attrOr(a, "title", ""))
	assert.Equal(t, "the bar", textContent(a))

	dp := doc.Bag.Parsoid(a)
	assert.Equal(t, "piped", dp.Stx)
	assert.Equal(t, &DSR{Start: 104, End: 100 + len(src), OpenWidth: 2, CloseWidth: 2}, dp.DSR)
	assert.Equal(t, "foo bar", dp.SA["href"])
}

func TestProcessContentInPipeline_NoOffsetsNoDSR(t *testing.T) {
	env := newTestEnv(t, "", nil, EnvOptions{})
	doc, err := ProcessContentInPipeline(env, nil, "[[A]]", PipelineOptions{})
	require.NoError(t, err)
	a := findElement(doc.Root, "a")
	require.NotNil(t, a)
	assert.Nil(t, doc.Bag.Parsoid(a).DSR)
}

func TestProcessContentInPipeline_Template(t *testing.T) {
	templates := StaticDataAccess{
		"Template:Greet": "Hello {{{1}}}{{{punct|!}}}",
	}
	src := "x {{Greet|World}} y"
	env := newTestEnv(t, src, templates, EnvOptions{})
	doc := parsePage(t, env)

	span := findByTypeOf(doc.Root, "mw:Transclusion")
	require.NotNil(t, span)
	assert.Equal(t, "Hello World!", textContent(span))
	assert.True(t, strings.HasPrefix(attrOr(span, "about", ""), "#mwt"))

	dp := doc.Bag.Parsoid(span)
	assert.Equal(t, "{{Greet|World}}", dp.Src)
	assert.Equal(t, &DSR{Start: 2, End: 17}, dp.DSR)
	assert.Equal(t, []string{"1"}, dp.Pi)
	assert.Equal(t, TmpData{}, dp.Tmp)

	mw := doc.Bag.Mw(span)
	require.Len(t, mw.Parts, 1)
	assert.Equal(t, "Greet", mw.Parts[0].Template.Target.Wt)
	assert.Equal(t, "./Template:Greet", mw.Parts[0].Template.Target.Href)
	assert.Equal(t, map[string]TemplateParam{"1": {Wt: "World"}}, mw.Parts[0].Template.Params)

	assert.Equal(t, 0, env.Fragments().Len())
	assert.Nil(t, findByTypeOf(doc.Root, "mw:Placeholder/Fragment"))
	assert.Equal(t, 1, env.Wt2HTMLUsage().Used(ResourceTransclusion))
	assert.Equal(t, 1, env.Wt2HTMLUsage().Used(ResourceTemplateDepth))
}

func TestProcessContentInPipeline_NestedTemplates(t *testing.T) {
	templates := StaticDataAccess{
		"Template:Outer": "[{{Inner|{{{1}}}}}]",
		"Template:Inner": "<{{{1}}}>",
	}
	env := newTestEnv(t, "{{Outer|v}}", templates, EnvOptions{})
	doc := parsePage(t, env)

	outer := findByTypeOf(doc.Root, "mw:Transclusion")
	require.NotNil(t, outer)
	assert.Equal(t, "[<v>]", textContent(outer))
	inner := findByTypeOf(outer.FirstChild.NextSibling, "mw:Transclusion")
	require.NotNil(t, inner)
	assert.Equal(t, "{{Inner|v}}", doc.Bag.Parsoid(inner).Src)
	assert.Nil(t, doc.Bag.Parsoid(inner).DSR)
	assert.Equal(t, 2, env.Wt2HTMLUsage().Used(ResourceTemplateDepth))
	assert.Equal(t, 0, env.Fragments().Len())
}

func TestProcessContentInPipeline_TemplateDepthLimit(t *testing.T) {
	templates := StaticDataAccess{
		"Template:A": "a{{B}}",
		"Template:B": "b{{C}}",
		"Template:C": "c",
	}
	env := newTestEnv(t, "{{A}}", templates, EnvOptions{Wt2HTMLLimits: Limits{ResourceTemplateDepth: 2}})
	_, err := WikitextToDOM(env)

	var rle *ResourceLimitExceededError
	require.True(t, errors.As(err, &rle), "got %v", err)
	assert.Equal(t, &ResourceLimitExceededError{
		Direction: DirectionWt2HTML,
		Resource:  ResourceTemplateDepth,
		Limit:     2,
		Actual:    3,
	}, rle)
}

func TestProcessContentInPipeline_SiblingTemplatesDoNotDeepen(t *testing.T) {
	templates := StaticDataAccess{"Template:A": "a"}
	env := newTestEnv(t, "{{A}}{{A}}{{A}}", templates, EnvOptions{Wt2HTMLLimits: Limits{ResourceTemplateDepth: 1}})
	_, err := WikitextToDOM(env)
	require.NoError(t, err)
	assert.Equal(t, 3, env.Wt2HTMLUsage().Used(ResourceTransclusion))
}

func TestProcessContentInPipeline_Limits(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		limits   Limits
		resource string
	}{
		{name: "wikitext size", src: "0123456789", limits: Limits{ResourceWikitextSize: 9}, resource: ResourceWikitextSize},
		{name: "tokens", src: "a[[b]]c[[d]]", limits: Limits{ResourceToken: 3}, resource: ResourceToken},
		{name: "transclusions", src: "{{A}}{{A}}", limits: Limits{ResourceTransclusion: 1}, resource: ResourceTransclusion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.src, StaticDataAccess{"Template:A": "x"}, EnvOptions{Wt2HTMLLimits: tt.limits})
			_, err := WikitextToDOM(env)
			var rle *ResourceLimitExceededError
			require.True(t, errors.As(err, &rle), "got %v", err)
			assert.Equal(t, tt.resource, rle.Resource)
		})
	}
}

func TestProcessContentInPipeline_TemplateLoop(t *testing.T) {
	templates := StaticDataAccess{"Template:Loop": "x{{Loop}}"}
	env := newTestEnv(t, "{{Loop}}", templates, EnvOptions{})
	doc := parsePage(t, env)

	errSpan := findByTypeOf(doc.Root, "mw:Error")
	require.NotNil(t, errSpan)
	assert.True(t, hasTypeOf(errSpan, "mw:Transclusion"))
	assert.Equal(t, []ErrorInfo{{Key: "template-loop", Params: []string{"Template:Loop"}}}, doc.Bag.Mw(errSpan).Errors)

	lints := env.Lints()
	require.Len(t, lints, 1)
	assert.Equal(t, "template-loop", lints[0].Type)
	assert.Equal(t, map[string]any{"title": "Template:Loop"}, lints[0].Data)
}

func TestProcessContentInPipeline_MissingTemplate(t *testing.T) {
	env := newTestEnv(t, "{{Nope}}", StaticDataAccess{}, EnvOptions{})
	doc := parsePage(t, env)

	span := findByTypeOf(doc.Root, "mw:Transclusion")
	require.NotNil(t, span)
	a := findElement(span, "a")
	require.NotNil(t, a)
	assert.Equal(t, "new", attrOr(a, "class", ""))
	assert.Equal(t, "Template:Nope", textContent(a))

	lints := env.Lints()
	require.Len(t, lints, 1)
	assert.Equal(t, "missing-template", lints[0].Type)
	assert.Equal(t, "Template:Nope", lints[0].Data["title"])
	assert.Equal(t, &DSR{Start: 0, End: 8}, lints[0].Data["dsr"])
}

func TestProcessContentInPipeline_TemplateNamespaces(t *testing.T) {
	templates := StaticDataAccess{
		"Main":         "from main",
		"Template:Foo": "from template",
	}
	env := newTestEnv(t, "{{:Main}} {{Template:foo}}", templates, EnvOptions{})
	doc := parsePage(t, env)
	assert.Equal(t, "from main from template", textContent(doc.Body()))
}

func TestProcessContentInPipeline_TemplateWithHeading(t *testing.T) {
	templates := StaticDataAccess{"Template:H": "==Title=="}
	env := newTestEnv(t, "x {{H}}", templates, EnvOptions{})
	doc := parsePage(t, env)
	span := findByTypeOf(doc.Root, "mw:Transclusion")
	require.NotNil(t, span)
	assert.NotNil(t, findElement(span, "h2"))
}

func TestProcessContentInPipeline_UnclosedTemplateLint(t *testing.T) {
	env := newTestEnv(t, "ab {{ x", nil, EnvOptions{})
	parsePage(t, env)
	lints := env.Lints()
	require.Len(t, lints, 1)
	assert.Equal(t, "unclosed-template", lints[0].Type)
	assert.Equal(t, map[string]any{"offset": 3}, lints[0].Data)
}

func TestProcessContentInPipeline_Heading(t *testing.T) {
	src := "intro\n== Title ==\nbody"
	env := newTestEnv(t, src, nil, EnvOptions{})
	doc := parsePage(t, env)
	h := findElement(doc.Root, "h2")
	require.NotNil(t, h)
	assert.Equal(t, " Title ", textContent(h))
	assert.Equal(t, &DSR{Start: 6, End: 17, OpenWidth: 2, CloseWidth: 2}, doc.Bag.Parsoid(h).DSR)
}

func TestProcessContentInPipeline_Media(t *testing.T) {
	src := "[[File:Cat.png|thumb|left|A ''big'' [[cat]]]]"
	env := newTestEnv(t, src, nil, EnvOptions{})
	doc := parsePage(t, env)

	fig := findElement(doc.Root, "figure")
	require.NotNil(t, fig)
	assert.True(t, hasTypeOf(fig, "mw:File/Thumb"))
	assert.Equal(t, "mw-halign-left", attrOr(fig, "class", ""))
	img := findElement(fig, "img")
	require.NotNil(t, img)
	assert.Equal(t, "./File:Cat.png", attrOr(img, "resource", ""))

	dp := doc.Bag.Parsoid(fig)
	assert.Equal(t, []MediaPart{{Raw: "thumb"}, {Raw: "left"}, {Caption: true}}, dp.Parts)
	caption := doc.Bag.Mw(fig).Caption
	assert.Contains(t, caption, "A &#39;&#39;big&#39;&#39; ")
	assert.Contains(t, caption, `href="./Cat"`)
	assert.Contains(t, caption, `data-parsoid=`)
}

func TestProcessContentInPipeline_Nowiki(t *testing.T) {
	env := newTestEnv(t, "<nowiki>[[x]]</nowiki>", nil, EnvOptions{})
	doc := parsePage(t, env)
	span := findByTypeOf(doc.Root, "mw:Nowiki")
	require.NotNil(t, span)
	assert.Equal(t, "[[x]]", textContent(span))
	assert.Nil(t, findElement(doc.Root, "a"))
}

func TestProcessContentInPipeline_Comment(t *testing.T) {
	env := newTestEnv(t, "a<!-- note -->b", nil, EnvOptions{})
	doc := parsePage(t, env)
	body := doc.Body()
	require.NotNil(t, body.FirstChild.NextSibling)
	c := body.FirstChild.NextSibling
	assert.Equal(t, html.CommentNode, c.Type)
	assert.Equal(t, " note ", c.Data)
}

func TestProcessContentInPipeline_Variants(t *testing.T) {
	site := &StaticSiteConfig{Language: "zh", LangConverter: []string{"zh"}}
	src := "-{zh-hans:[[A]];zh-hant:B}-"
	env := NewEnv(site, NewStaticPage("P", src), nil, EnvOptions{})
	doc := parsePage(t, env)

	span := findByTypeOf(doc.Root, "mw:LanguageVariant")
	require.NotNil(t, span)
	assert.Nil(t, span.FirstChild)
	v := doc.Bag.Mw(span).Variant
	require.NotNil(t, v)
	require.Len(t, v.Twoway, 2)
	assert.Equal(t, "zh-hans", v.Twoway[0].L)
	assert.Contains(t, v.Twoway[0].T, `rel="mw:WikiLink"`)
	assert.Equal(t, VariantTwoway{L: "zh-hant", T: "B"}, v.Twoway[1])
	assert.Equal(t, src, doc.Bag.Parsoid(span).Src)

	// Without the converter the same text stays literal.
	env = newTestEnv(t, src, nil, EnvOptions{})
	doc = parsePage(t, env)
	assert.Nil(t, findByTypeOf(doc.Root, "mw:LanguageVariant"))
}

func TestProcessContentInPipeline_NoTemplateExpansion(t *testing.T) {
	env := newTestEnv(t, "", StaticDataAccess{"Template:A": "x"}, EnvOptions{})
	doc, err := ProcessContentInPipeline(env, nil, "{{A}}", PipelineOptions{})
	require.NoError(t, err)
	span := findByTypeOf(doc.Root, "mw:Transclusion")
	require.NotNil(t, span)
	assert.Nil(t, span.FirstChild)
	assert.Equal(t, 0, env.Wt2HTMLUsage().Used(ResourceTemplateDepth))
}

func TestWikitextToDOM_WrapSections(t *testing.T) {
	src := "lead\n==A==\na\n===B===\nb"
	env := newTestEnv(t, src, nil, EnvOptions{WrapSections: true})
	doc := parsePage(t, env)

	sections := elementChildren(doc.Body())
	require.Len(t, sections, 3)
	for i, s := range sections {
		assert.Equal(t, "section", s.Data)
		assert.Equal(t, string(rune('0'+i)), attrOr(s, "data-mw-section-id", ""))
	}
	assert.Equal(t, "lead\n", textContent(sections[0]))
	assert.Equal(t, "h2", sections[1].FirstChild.Data)
}

func TestWikitextToHTML_VersionMeta(t *testing.T) {
	out, err := WikitextToHTML(newTestEnv(t, "x", nil, EnvOptions{}))
	require.NoError(t, err)
	assert.Contains(t, out, `<meta property="mw:htmlVersion" content="2.1.0"/>`)
}

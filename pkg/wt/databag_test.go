package wt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestDSR_JSON(t *testing.T) {
	b, err := json.Marshal(DSR{Start: 3, End: 10, OpenWidth: 2, CloseWidth: 2})
	require.NoError(t, err)
	assert.Equal(t, "[3,10,2,2]", string(b))

	var d DSR
	require.NoError(t, json.Unmarshal([]byte("[1,5]"), &d))
	assert.Equal(t, DSR{Start: 1, End: 5}, d)
	assert.Error(t, json.Unmarshal([]byte("[1,2,3]"), &d))
}

func TestDataBag_GetAndClear(t *testing.T) {
	bag := NewDataBag()
	n := newElement("span")

	_, ok := bag.Lookup(n)
	assert.False(t, ok)
	dp := bag.Parsoid(n)
	dp.Stx = "html"
	assert.Same(t, dp, bag.Get(n).Parsoid)
	assert.False(t, bag.HasMw(n))
	bag.Mw(n).Name = "poem"
	assert.True(t, bag.HasMw(n))
	assert.Equal(t, 1, bag.Len())

	bag.Clear(n)
	assert.Equal(t, 0, bag.Len())
}

func TestDataBag_Adopt(t *testing.T) {
	src := NewDataBag()
	dst := NewDataBag()
	parent := newElement("div")
	child := newElement("span")
	parent.AppendChild(child)
	src.Parsoid(parent).Src = "p"
	src.Parsoid(child).Src = "c"
	other := newElement("i")
	src.Parsoid(other).Src = "o"

	dst.Adopt(src, parent)
	assert.Equal(t, 2, dst.Len())
	assert.Equal(t, 1, src.Len())
	assert.Equal(t, "c", dst.Parsoid(child).Src)
}

func TestStoreAndLoadDataAttribs(t *testing.T) {
	doc, err := parseDocument("<p><span>x</span></p>")
	require.NoError(t, err)
	span := findElement(doc.Root, "span")
	dp := doc.Bag.Parsoid(span)
	dp.DSR = &DSR{Start: 0, End: 5, OpenWidth: 1, CloseWidth: 1}
	dp.Tmp = TmpData{FragmentID: "mwf1"}
	doc.Bag.Mw(span).Name = "poem"

	require.NoError(t, StoreDataAttribs(doc.Bag, doc.Root))
	assert.Equal(t, 0, doc.Bag.Len())
	raw, ok := getAttr(span, "data-parsoid")
	require.True(t, ok)
	assert.JSONEq(t, `{"dsr":[0,5,1,1]}`, raw)
	assert.NotContains(t, raw, "mwf1")
	mw, _ := getAttr(span, "data-mw")
	assert.JSONEq(t, `{"name":"poem"}`, mw)

	var sb strings.Builder
	require.NoError(t, html.Render(&sb, doc.Root))
	reparsed, err := parseDocument(sb.String())
	require.NoError(t, err)
	require.NoError(t, LoadDataAttribs(reparsed.Bag, reparsed.Root))
	span2 := findElement(reparsed.Root, "span")
	_, ok = getAttr(span2, "data-parsoid")
	assert.False(t, ok)
	assert.Equal(t, &DSR{Start: 0, End: 5, OpenWidth: 1, CloseWidth: 1}, reparsed.Bag.Parsoid(span2).DSR)
	assert.Equal(t, "poem", reparsed.Bag.Mw(span2).Name)
}

func TestStoreDataAttribs_SkipsEmptyParsoid(t *testing.T) {
	doc, err := parseDocument("<p>x</p>")
	require.NoError(t, err)
	p := findElement(doc.Root, "p")
	doc.Bag.Get(p)

	require.NoError(t, StoreDataAttribs(doc.Bag, doc.Root))
	assert.Empty(t, p.Attr)
}

func TestLoadDataAttribs_Invalid(t *testing.T) {
	doc, err := parseDocument(`<p data-parsoid="{oops">x</p>`)
	require.NoError(t, err)
	err = LoadDataAttribs(doc.Bag, doc.Root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data-parsoid")
}

func TestRenderWithDataAttribs_LeavesBagAlone(t *testing.T) {
	doc, err := parseDocument("<p>x</p>")
	require.NoError(t, err)
	p := findElement(doc.Root, "p")
	doc.Bag.Parsoid(p).Stx = "html"

	out, err := renderWithDataAttribs(doc.Bag, []*html.Node{p})
	require.NoError(t, err)
	assert.Equal(t, `<p data-parsoid="{&#34;stx&#34;:&#34;html&#34;}">x</p>`, out)
	assert.Equal(t, 1, doc.Bag.Len())
	assert.Empty(t, p.Attr)
}

func TestMoveChildren(t *testing.T) {
	src, err := parseDocument("<div><b>1</b>2</div>")
	require.NoError(t, err)
	dst, err := parseDocument("")
	require.NoError(t, err)
	from := findElement(src.Root, "div")
	b := findElement(src.Root, "b")
	src.Bag.Parsoid(b).Src = "'''1'''"

	MoveChildren(src, from, dst, dst.Body())
	assert.Nil(t, from.FirstChild)
	assert.Len(t, children(dst.Body()), 2)
	assert.Equal(t, "'''1'''", dst.Bag.Parsoid(b).Src)
	assert.Equal(t, 0, src.Bag.Len())
}

func TestRenderWithDataAttribs_Descendants(t *testing.T) {
	doc, err := parseDocument("<p>x<i>y</i></p>")
	require.NoError(t, err)
	p := findElement(doc.Root, "p")
	doc.Bag.Parsoid(findElement(doc.Root, "i")).Src = "''y''"

	out, err := renderWithDataAttribs(doc.Bag, []*html.Node{p})
	require.NoError(t, err)
	assert.Equal(t, `<p>x<i data-parsoid="{&#34;src&#34;:&#34;&#39;&#39;y&#39;&#39;&#34;}">y</i></p>`, out)
	assert.Equal(t, 1, doc.Bag.Len())
}

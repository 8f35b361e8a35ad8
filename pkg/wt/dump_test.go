package wt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDumpDocument(t *testing.T) {
	doc := parsePage(t, newTestEnv(t, "== H ==\nsee [[Foo|bar]]<!--c-->", nil, EnvOptions{}))
	out := DumpDocument(doc)

	assert.Contains(t, out, "body")
	assert.Contains(t, out, "dsr=0..7")
	assert.Contains(t, out, `<h2>`)
	assert.Contains(t, out, "stx=piped")
	assert.Contains(t, out, `<a rel="mw:WikiLink" href="./Foo" title="Foo">`)
	assert.Contains(t, out, `#text "bar"`)
	assert.Contains(t, out, `#comment "c"`)
}

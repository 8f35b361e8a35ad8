package wt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionRegistry(t *testing.T) {
	reg := NewExtensionRegistry()
	require.NoError(t, reg.Register(ExtensionConfig{
		Name: "Test",
		Tags: []ExtensionTagConfig{{Name: "Echo", Handler: echoTag{}}, {Name: "shout", Handler: shoutTag{}}},
	}))

	h, ok := reg.Lookup("ECHO")
	require.True(t, ok)
	assert.IsType(t, echoTag{}, h)
	assert.True(t, reg.IsExtensionTag("echo"))
	assert.False(t, reg.IsExtensionTag("poem"))
	assert.Equal(t, []string{"echo", "shout"}, reg.TagNames())

	err := reg.Register(ExtensionConfig{Name: "Other", Tags: []ExtensionTagConfig{{Name: "echo", Handler: echoTag{}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered by Test")

	err = reg.Register(ExtensionConfig{Name: "Broken", Tags: []ExtensionTagConfig{{Name: "x"}}})
	assert.Error(t, err)
}

func TestExtensionRegistry_Nil(t *testing.T) {
	var reg *ExtensionRegistry
	_, ok := reg.Lookup("echo")
	assert.False(t, ok)
	assert.False(t, reg.IsExtensionTag("echo"))
	assert.Empty(t, reg.TagNames())
}

func TestExtension_UnknownTagIsText(t *testing.T) {
	doc := parsePage(t, newTestEnv(t, "<echo>x</echo>", nil, EnvOptions{}))
	assert.Nil(t, findByTypeOf(doc.Root, "mw:Extension/echo"))
	assert.Equal(t, "<echo>x</echo>", textContent(doc.Body()))
}

package root

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdRoot_Subcommands(t *testing.T) {
	cmd := NewCmdRoot()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "wt2html", "html2wt", "roundtrip", "fetch", "serve", "config", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestNewCmdRoot_Version(t *testing.T) {
	cmd := NewCmdRoot()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "wtc version "))
}

func TestNewCmdRoot_ConvertsThroughSubcommands(t *testing.T) {
	for _, v := range []string{"WTC_API_URL", "MEDIAWIKI_API_URL", "WTC_ACCESS_TOKEN",
		"MEDIAWIKI_ACCESS_TOKEN", "WTC_DEFAULT_LANGUAGE", "WTC_LOG_LEVEL"} {
		t.Setenv(v, "")
	}
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cmd := NewCmdRoot()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("see [[Foo|bar]]"))
	cmd.SetArgs([]string{"roundtrip", "--config", configPath, "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Round trip is exact")
}

func TestNewCmdRoot_InvalidOutput(t *testing.T) {
	cmd := NewCmdRoot()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("x"))
	cmd.SetArgs([]string{"wt2html", "-o", "xml", "--config", filepath.Join(t.TempDir(), "c.yml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

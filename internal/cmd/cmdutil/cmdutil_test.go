package cmdutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtconv/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{"WTC_API_URL", "MEDIAWIKI_API_URL", "WTC_ACCESS_TOKEN",
		"MEDIAWIKI_ACCESS_TOKEN", "WTC_DEFAULT_LANGUAGE", "WTC_LOG_LEVEL"} {
		t.Setenv(v, "")
	}
}

func TestGlobals(t *testing.T) {
	root := &cobra.Command{Use: "wtc"}
	root.PersistentFlags().StringP("config", "c", "", "")
	root.PersistentFlags().StringP("output", "o", "table", "")
	root.PersistentFlags().Bool("no-color", false, "")
	root.PersistentFlags().String("log-level", "", "")

	var got GlobalOptions
	child := &cobra.Command{
		Use: "child",
		RunE: func(cmd *cobra.Command, _ []string) error {
			got = Globals(cmd)
			return nil
		},
	}
	root.AddCommand(child)
	root.SetArgs([]string{"child", "--config", "/tmp/c.yml", "-o=json", "--no-color", "--log-level", "debug"})
	require.NoError(t, root.Execute())

	assert.Equal(t, GlobalOptions{ConfigPath: "/tmp/c.yml", Output: "json", NoColor: true, LogLevel: "debug"}, got)
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{DefaultLanguage: "de", LogLevel: "info"}).Save(path))

	cfg, err := GlobalOptions{ConfigPath: path}.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.DefaultLanguage)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	cfg, err = GlobalOptions{ConfigPath: path, LogLevel: "debug"}.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := GlobalOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yml")}.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIURL, cfg.URL())
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	_, err := GlobalOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yml"), LogLevel: "loud"}.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "wtc init")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: "info"}, &buf)
	log.Debug("hidden")
	log.Info("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=1")
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wiki")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	got, err := ReadInput(path, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	for _, name := range []string{"", "-"} {
		got, err = ReadInput(name, strings.NewReader("from stdin"))
		require.NoError(t, err)
		assert.Equal(t, "from stdin", got)
	}

	_, err = ReadInput(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestValidateLanguage(t *testing.T) {
	assert.NoError(t, ValidateLanguage(""))
	assert.NoError(t, ValidateLanguage("zh-Hans"))
	assert.Error(t, ValidateLanguage("not a language"))
}

func TestArgOrEmpty(t *testing.T) {
	assert.Equal(t, "", ArgOrEmpty(nil))
	assert.Equal(t, "a", ArgOrEmpty([]string{"a", "b"}))
}

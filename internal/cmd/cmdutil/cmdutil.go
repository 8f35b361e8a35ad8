// Package cmdutil holds the plumbing shared by wtc commands: global flags,
// config loading, logging and input.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/open-cli-collective/wtconv/internal/config"
)

// GlobalOptions are the persistent flags of the root command.
type GlobalOptions struct {
	ConfigPath string
	Output     string
	NoColor    bool
	LogLevel   string
}

// Globals reads the persistent flags visible to cmd.
func Globals(cmd *cobra.Command) GlobalOptions {
	var g GlobalOptions
	g.ConfigPath, _ = cmd.Flags().GetString("config")
	g.Output, _ = cmd.Flags().GetString("output")
	g.NoColor, _ = cmd.Flags().GetBool("no-color")
	g.LogLevel, _ = cmd.Flags().GetString("log-level")
	return g
}

// LoadConfig loads the config file with environment overrides and the
// --log-level flag applied, then validates it. A missing file is not an
// error.
func (g GlobalOptions) LoadConfig() (*config.Config, error) {
	path := g.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (run 'wtc init' to configure)", err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'wtc init' to configure)", err)
	}
	return cfg, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// ErrNoInput is returned when neither a file nor piped stdin is given.
var ErrNoInput = errors.New("no input: pass a file argument or pipe content on stdin")

// ReadInput reads the named file, or stdin when name is empty or "-".
// An interactive terminal on stdin yields ErrNoInput.
func ReadInput(name string, stdin io.Reader) (string, error) {
	if name != "" && name != "-" {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok {
		stat, err := f.Stat()
		if err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return "", ErrNoInput
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// ValidateLanguage checks a --lang value. Empty is accepted.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	if _, err := language.Parse(lang); err != nil {
		return fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return nil
}

// ArgOrEmpty returns args[0], or "" when there are no arguments.
func ArgOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

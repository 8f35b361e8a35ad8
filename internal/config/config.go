// Package config provides configuration management for wtc.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/wtconv/pkg/ext"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// DefaultAPIURL is the REST endpoint used when none is configured.
const DefaultAPIURL = "https://en.wikipedia.org/w/rest.php"

// DefaultWt2HTMLLimits bound wikitext to HTML conversions unless the
// config file overrides a resource.
var DefaultWt2HTMLLimits = wt.Limits{
	wt.ResourceWikitextSize:  1_000_000,
	wt.ResourceToken:         1_000_000,
	wt.ResourceTemplateDepth: 40,
	wt.ResourceTransclusion:  10_000,
	wt.ResourceExtension:     1_000,
}

// DefaultHTML2WtLimits bound HTML to wikitext conversions.
var DefaultHTML2WtLimits = wt.Limits{
	wt.ResourceHTMLSize: 10_000_000,
	wt.ResourceNode:     1_000_000,
}

// Config holds the wtc configuration.
type Config struct {
	APIURL          string         `yaml:"api_url,omitempty"`
	AccessToken     string         `yaml:"access_token,omitempty"`
	DefaultLanguage string         `yaml:"default_language,omitempty"`
	LangConverter   []string       `yaml:"lang_converter,omitempty"`
	ScrubWikitext   bool           `yaml:"scrub_wikitext,omitempty"`
	WrapSections    bool           `yaml:"wrap_sections,omitempty"`
	Wt2HTMLLimits   map[string]int `yaml:"wt2html_limits,omitempty"`
	HTML2WtLimits   map[string]int `yaml:"html2wt_limits,omitempty"`
	LogLevel        string         `yaml:"log_level,omitempty"`
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "https://") && !strings.HasPrefix(c.APIURL, "http://") {
		return errors.New("api_url must use http or https")
	}
	if c.DefaultLanguage != "" {
		if _, err := language.Parse(c.DefaultLanguage); err != nil {
			return fmt.Errorf("default_language: %w", err)
		}
	}
	for _, l := range c.LangConverter {
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("lang_converter: %w", err)
		}
	}
	if err := validateLimits("wt2html_limits", c.Wt2HTMLLimits, DefaultWt2HTMLLimits); err != nil {
		return err
	}
	if err := validateLimits("html2wt_limits", c.HTML2WtLimits, DefaultHTML2WtLimits); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func validateLimits(field string, limits map[string]int, known wt.Limits) error {
	for name, v := range limits {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%s: unknown resource %q (valid: %s)", field, name, strings.Join(resourceNames(known), ", "))
		}
		if v < 0 {
			return fmt.Errorf("%s: limit for %s must not be negative", field, name)
		}
	}
	return nil
}

func resourceNames(limits wt.Limits) []string {
	names := make([]string, 0, len(limits))
	for n := range limits {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NormalizeURL trims the trailing slash from the API URL.
func (c *Config) NormalizeURL() {
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
// Precedence: WTC_* → MEDIAWIKI_* → existing config value
func (c *Config) LoadFromEnv() {
	if url := getEnvWithFallback("WTC_API_URL", "MEDIAWIKI_API_URL"); url != "" {
		c.APIURL = url
	}
	if token := getEnvWithFallback("WTC_ACCESS_TOKEN", "MEDIAWIKI_ACCESS_TOKEN"); token != "" {
		c.AccessToken = token
	}
	if lang := os.Getenv("WTC_DEFAULT_LANGUAGE"); lang != "" {
		c.DefaultLanguage = lang
	}
	if level := os.Getenv("WTC_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// getEnvWithFallback returns the value of the primary env var, or the fallback if primary is empty.
func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "wtc", "config.yml")
	}

	// Fall back to ~/.config/wtc/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wtc", "config.yml")
	}

	return filepath.Join(home, ".config", "wtc", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (user read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		// If file doesn't exist, start with empty config
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}

// URL returns the configured API URL or DefaultAPIURL.
func (c *Config) URL() string {
	if c.APIURL == "" {
		return DefaultAPIURL
	}
	return strings.TrimSuffix(c.APIURL, "/")
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// SlogLevel returns the configured log level, warn by default.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// mergeLimits overlays configured limits on the defaults. A zero limit
// removes the bound.
func mergeLimits(defaults wt.Limits, configured map[string]int) wt.Limits {
	out := make(wt.Limits, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range configured {
		if v == 0 {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// EnvOptions returns the conversion options described by the config.
func (c *Config) EnvOptions() wt.EnvOptions {
	return wt.EnvOptions{
		Wt2HTMLLimits: mergeLimits(DefaultWt2HTMLLimits, c.Wt2HTMLLimits),
		HTML2WtLimits: mergeLimits(DefaultHTML2WtLimits, c.HTML2WtLimits),
		ScrubWikitext: c.ScrubWikitext,
		WrapSections:  c.WrapSections,
	}
}

// SiteConfig returns the site configuration with the bundled extension
// tags registered. logger may be nil.
func (c *Config) SiteConfig(logger *slog.Logger) *wt.StaticSiteConfig {
	lang := c.DefaultLanguage
	if lang == "" {
		lang = wt.DefaultLocale
	}
	return &wt.StaticSiteConfig{
		Language:      lang,
		LangConverter: c.LangConverter,
		Log:           logger,
		Registry:      ext.NewRegistry(),
	}
}

// NewEnv returns a conversion context for page built from the config.
// data and logger may be nil.
func (c *Config) NewEnv(page wt.PageConfig, data wt.DataAccess, logger *slog.Logger) *wt.Env {
	return wt.NewEnv(c.SiteConfig(logger), page, data, c.EnvOptions())
}

package configcmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
	"github.com/open-cli-collective/wtconv/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current wtc configuration with value source indicators.`,
		Example: `  # Show current config
  wtc config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := cmdutil.Globals(cmd)
			return runShow(g.ConfigPath, g.NoColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runShow(configPath string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides
	cfg, _ := config.LoadWithEnv(configPath)

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue string, envVars ...string) {
		_, _ = bold.Fprintf(w, "%-16s", label+":")
		if value == "" {
			_, _ = dim.Fprintln(w, "-")
			return
		}

		// Mask tokens
		display := value
		if strings.Contains(strings.ToLower(label), "token") && len(value) > 8 {
			display = value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
		}

		fmt.Fprint(w, display)

		// Determine source
		source := "config"
		if fileErr != nil {
			source = "-"
		}
		for _, envVar := range envVars {
			if v := os.Getenv(envVar); v != "" && v == value {
				source = envVar
				break
			}
		}
		if fileValue != value && source == "config" {
			source = "-"
		}

		_, _ = dim.Fprintf(w, "  (source: %s)\n", source)
	}

	printField("API URL", cfg.APIURL, fileCfg.APIURL, "WTC_API_URL", "MEDIAWIKI_API_URL")
	printField("Access Token", cfg.AccessToken, fileCfg.AccessToken, "WTC_ACCESS_TOKEN", "MEDIAWIKI_ACCESS_TOKEN")
	printField("Language", cfg.DefaultLanguage, fileCfg.DefaultLanguage, "WTC_DEFAULT_LANGUAGE")
	printField("Log Level", cfg.LogLevel, fileCfg.LogLevel, "WTC_LOG_LEVEL")
	printField("Lang Converter", strings.Join(cfg.LangConverter, ", "), strings.Join(fileCfg.LangConverter, ", "))
	printField("Scrub Wikitext", onOff(cfg.ScrubWikitext), onOff(fileCfg.ScrubWikitext))
	printField("Wrap Sections", onOff(cfg.WrapSections), onOff(fileCfg.WrapSections))

	opts := cfg.EnvOptions()
	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Limits:")
	printLimits(w, "wt2html", opts.Wt2HTMLLimits)
	printLimits(w, "html2wt", opts.HTML2WtLimits)

	fmt.Fprintln(w)
	_, _ = dim.Fprintf(w, "Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Fprintln(w, "(file not found)")
	}

	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func printLimits(w io.Writer, direction string, limits map[string]int) {
	names := make([]string, 0, len(limits))
	for n := range limits {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s.%-14s %d\n", direction, n, limits[n])
	}
}

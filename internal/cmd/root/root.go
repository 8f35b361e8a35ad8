// Package root provides the root command for the wtc CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtconv/internal/cmd/completion"
	"github.com/open-cli-collective/wtconv/internal/cmd/configcmd"
	"github.com/open-cli-collective/wtconv/internal/cmd/convert"
	initcmd "github.com/open-cli-collective/wtconv/internal/cmd/init"
	"github.com/open-cli-collective/wtconv/internal/cmd/serve"
	"github.com/open-cli-collective/wtconv/internal/version"
	"github.com/open-cli-collective/wtconv/internal/view"
)

// NewCmdRoot creates the root command for wtc.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wtc",
		Short: "Convert between MediaWiki wikitext and annotated HTML",
		Long: `wtc converts MediaWiki wikitext to annotated HTML and back.

Unedited HTML converts back to the exact source it came from, so the
HTML can be edited with ordinary tools and saved as wikitext. Pages and
templates can be fetched from any wiki with a REST API, and the
conversions can be served over HTTP.

Get started by running: wtc init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/wtc/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, plain")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: warn)")

	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return view.ValidFormats(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.SetVersionTemplate(version.String() + "\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(convert.NewCmdWt2HTML())
	cmd.AddCommand(convert.NewCmdHTML2Wt())
	cmd.AddCommand(convert.NewCmdRoundTrip())
	cmd.AddCommand(convert.NewCmdFetch())
	cmd.AddCommand(serve.NewCmdServe())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}

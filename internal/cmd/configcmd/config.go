// Package configcmd provides config management commands.
package configcmd

import (
	"github.com/spf13/cobra"
)

// NewCmdConfig creates the config command.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wtc configuration",
		Long:  `Commands for viewing, testing, and clearing wtc configuration.`,
	}

	cmd.AddCommand(NewCmdShow())
	cmd.AddCommand(NewCmdTest())
	cmd.AddCommand(NewCmdClear())

	return cmd
}

// envVars lists every environment variable that overrides the config file.
var envVars = []string{"WTC_API_URL", "MEDIAWIKI_API_URL", "WTC_ACCESS_TOKEN",
	"MEDIAWIKI_ACCESS_TOKEN", "WTC_DEFAULT_LANGUAGE", "WTC_LOG_LEVEL"}

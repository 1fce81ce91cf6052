// Package configcmder provides the config command for managing persistent
// gauntlet configuration stored in the .gauntlet/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/config"
)

const configLongDesc string = `Manage persistent gauntlet configuration.

Configuration is stored as config.toml in the .gauntlet/ directory and
provides default values for command flags. CLI flags and GAUNTLET_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  api.listen,
  target.provider, target.model, target.base_url,
  strategist.provider, strategist.model, strategist.base_url,
  lifecycle.strict_transitions,
  corpus.degrade_on_read_error, corpus.default_limit,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  gauntlet config set <key> <value>    Set a configuration value
  gauntlet config get <key>            Get a configuration value
  gauntlet config list                 List all configuration values

Examples:
  gauntlet config set target.provider anthropic
  gauntlet config set eventstream.brokers kafka-1:9092,kafka-2:9092
  gauntlet config get storage.driver
  gauntlet config list`

const configShortDesc string = "Manage persistent gauntlet configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}

// Package cmdutil holds the plumbing shared by gauntlet subcommands:
// resolving config, building the engine and choosing the operation to act on.
package cmdutil

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/dotdir"
	"github.com/papercomputeco/gauntlet/pkg/engine"
	"github.com/papercomputeco/gauntlet/pkg/logger"
)

// Persistent flags registered on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
)

// FlagOperation names the operation a command acts on, overriding focus.
const FlagOperation = "operation"

// ErrNoOperation is returned when no operation was named and none is focused.
var ErrNoOperation = errors.New("no operation given and none focused; pass --operation or run \"gauntlet operation focus <id>\"")

// ConfigDirFlag returns the --config-dir override, or "".
func ConfigDirFlag(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString(FlagConfigDir)
	return dir
}

// NewLogger builds the interactive logger for cmd, writing to its stderr.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
}

// LoadConfig resolves the effective config for cmd: registered flags, then
// GAUNTLET_* env, then config.toml, then defaults. It also returns the
// resolved .gauntlet/ directory.
func LoadConfig(cmd *cobra.Command, registryKeys ...string) (*config.Config, string, error) {
	v, err := config.InitViper(ConfigDirFlag(cmd))
	if err != nil {
		return nil, "", err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)
	return config.FromViper(v), config.ConfigDir(v), nil
}

// OpenEngine loads config and builds an engine. Callers close it.
func OpenEngine(cmd *cobra.Command, log *slog.Logger, registryKeys ...string) (*engine.Engine, error) {
	cfg, dir, err := LoadConfig(cmd, registryKeys...)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(cmd.Context(), cfg, engine.WithDir(dir), engine.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("starting gauntlet: %w", err)
	}
	return e, nil
}

// ResolveOperation returns explicit when set, otherwise the --operation
// flag, otherwise the focused operation.
func ResolveOperation(cmd *cobra.Command, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if id, _ := cmd.Flags().GetString(FlagOperation); id != "" {
		return id, nil
	}

	focus, err := dotdir.NewManager().LoadFocus(ConfigDirFlag(cmd))
	if err != nil {
		return "", fmt.Errorf("loading focus: %w", err)
	}
	if focus == nil {
		return "", ErrNoOperation
	}
	return focus.OperationID, nil
}

// AddOperationFlag registers --operation on cmd.
func AddOperationFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, FlagOperation, "o", "", "Operation ID (default: the focused operation)")
}

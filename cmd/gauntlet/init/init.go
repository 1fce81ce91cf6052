// Package initcmder provides the init command for initializing a local
// .gauntlet directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .gauntlet/ directory in the current working directory.

Creates a local .gauntlet/ directory that takes precedence over the default
~/.gauntlet/ directory for focus state, storage and configuration, and
writes a config.toml. An existing config.toml is left untouched.

Use --preset to start from a provider preset (openai, anthropic, ollama,
offline). The offline preset needs no model and keeps everything in memory.

Examples:
  gauntlet init
  gauntlet init --preset anthropic
  gauntlet init --config-dir /tmp/red-team --preset offline`

const initShortDesc string = "Initialize a local .gauntlet/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Provider preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(cmd *cobra.Command, preset string) error {
	cfg := config.NewDefaultConfig()
	if preset != "" {
		var err error
		if cfg, err = config.PresetConfig(preset); err != nil {
			return err
		}
	}

	dir := cmdutil.ConfigDirFlag(cmd)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dotdir.DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .gauntlet directory: %w", err)
	}

	out := cmd.OutOrStdout()
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized .gauntlet directory: %s\n", dir)
	return nil
}

// Package authcmder provides the auth command for storing provider API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/credentials"
)

const authLongDesc string = `Store API credentials for the target and strategist providers.

Keys are written to credentials.toml in the .gauntlet/ directory. A stored
key takes precedence over the provider's environment variable when the
engine builds its LLM callers.

Supported providers: openai, anthropic

Examples:
  gauntlet auth openai                Prompt for an OpenAI API key
  gauntlet auth --list                List stored credentials
  gauntlet auth --remove anthropic    Remove stored Anthropic credentials
  echo $KEY | gauntlet auth openai    Pipe the key from stdin`

const authShortDesc string = "Store API credentials for LLM providers"

type authCommander struct {
	list   bool
	remove string
}

func NewAuthCmd() *cobra.Command {
	cmder := &authCommander{}

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := credentials.NewManager(cmdutil.ConfigDirFlag(cmd))
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			switch {
			case cmder.list:
				return cmder.runList(cmd, mgr)
			case cmder.remove != "":
				return cmder.runRemove(cmd, mgr)
			case len(args) == 0:
				return fmt.Errorf("provider argument required (supported: %s)",
					strings.Join(credentials.SupportedProviders(), ", "))
			default:
				return cmder.runStore(cmd, mgr, args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&cmder.list, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&cmder.remove, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func (c *authCommander) runStore(cmd *cobra.Command, mgr *credentials.Manager, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider %q (supported: %s)",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	apiKey, err := readAPIKey(cmd, provider)
	if err != nil {
		return err
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	if err := mgr.SetKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s Stored %s credentials %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(provider),
		cliui.DimStyle.Render("(overrides "+credentials.EnvVarForProvider(provider)+")"),
	)
	return nil
}

func (c *authCommander) runList(cmd *cobra.Command, mgr *credentials.Manager) error {
	providers, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(providers) == 0 {
		fmt.Fprintf(out, "  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	for _, p := range providers {
		fmt.Fprintf(out, "  %s %s %s\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(p),
			cliui.DimStyle.Render(credentials.EnvVarForProvider(p)),
		)
	}
	return nil
}

func (c *authCommander) runRemove(cmd *cobra.Command, mgr *credentials.Manager) error {
	provider := strings.ToLower(strings.TrimSpace(c.remove))
	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s Removed %s credentials\n",
		cliui.SuccessMark, cliui.KeyStyle.Render(provider))
	return nil
}

// readAPIKey prompts with hidden input when stdin is a terminal and
// otherwise reads the first line of stdin.
func readAPIKey(cmd *cobra.Command, provider string) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Enter API key for %s (%s): ",
			provider, credentials.EnvVarForProvider(provider))
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(key), nil
	}

	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}

// Package gauntletcmder
package gauntletcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/auth"
	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	configcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/config"
	conversationcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/conversation"
	initcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/init"
	operationcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/operation"
	payloadscmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/payloads"
	seedcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/seed"
	servecmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/serve"
	versioncmder "github.com/papercomputeco/gauntlet/cmd/version"
)

const gauntletLongDesc string = `Gauntlet is a red-team workbench for probing LLMs with adversarial prompts.

Track operations, talk to a target model turn by turn, ask a strategist
model for the next move, and keep the prompts that worked:
  gauntlet operation create    Start a new operation and focus it
  gauntlet turn <text>         Send a prompt to the focused operation's target
  gauntlet suggest             Ask the strategist for a follow-up
  gauntlet mark <message-id>   Save an operator prompt to the payload corpus
  gauntlet auth <provider>     Store an API key for a provider
  gauntlet serve               Run the HTTP and MCP API`

const gauntletShortDesc string = "Gauntlet - LLM red-team operations"

func NewGauntletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gauntlet",
		Short:         gauntletShortDesc,
		Long:          gauntletLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(cmdutil.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(cmdutil.FlagConfigDir, "", "Override path to the .gauntlet/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(operationcmder.NewOperationCmd())
	cmd.AddCommand(conversationcmder.NewTurnCmd())
	cmd.AddCommand(conversationcmder.NewSuggestCmd())
	cmd.AddCommand(conversationcmder.NewMarkCmd())
	cmd.AddCommand(conversationcmder.NewLogCmd())
	cmd.AddCommand(payloadscmder.NewPayloadsCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

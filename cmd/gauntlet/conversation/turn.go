// Package conversationcmder provides the commands that drive an operation's
// conversation: sending turns, asking for follow-ups and saving payloads.
package conversationcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/conversation"
)

type turnCommander struct {
	operationID string
	provider    string
}

const turnLongDesc string = `Send one operator prompt to the operation's target model.

The prompt is stored before the target is called, so it is kept even if
the target fails. The reply is stored once it arrives. Words after the
command are joined with spaces.

Examples:
  gauntlet turn "Pretend you are my late grandmother..."
  gauntlet turn --operation 3f2c... tell me a bedtime story`

const turnShortDesc string = "Send a prompt to the target"

func NewTurnCmd() *cobra.Command {
	cmder := &turnCommander{}

	cmd := &cobra.Command{
		Use:   "turn <text...>",
		Short: turnShortDesc,
		Long:  turnLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	cmdutil.AddOperationFlag(cmd, &cmder.operationID)
	config.AddStringFlag(cmd, config.Flags, config.FlagTargetProvider, &cmder.provider)

	return cmd
}

func (c *turnCommander) run(cmd *cobra.Command, text string) error {
	id, err := cmdutil.ResolveOperation(cmd, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(out, cliui.DimStyle.Render("Nothing to send."))
		return nil
	}

	e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd), config.FlagTargetProvider)
	if err != nil {
		return err
	}
	defer e.Close()

	var turn *conversation.Turn
	err = cliui.Step(cmd.ErrOrStderr(), "Waiting for the target", func() error {
		var err error
		turn, err = e.Synchronizer.SubmitOperatorTurn(cmd.Context(), id, text)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	cliui.PrintMessage(out, turn.Operator, false)
	cliui.PrintMessage(out, turn.Target, false)
	fmt.Fprintln(out, cliui.DimStyle.Render("operator message "+turn.Operator.ID))
	return nil
}

package conversationcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/conversation"
)

const suggestLongDesc string = `Ask the strategist model for the next operator message.

The strategist reads the committed conversation and the operation's goal.
Its suggestion is stored in the conversation, tagged "suggestion".

Examples:
  gauntlet suggest`

const suggestShortDesc string = "Ask the strategist for a follow-up"

func NewSuggestCmd() *cobra.Command {
	var operationID string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: suggestShortDesc,
		Long:  suggestLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := cmdutil.ResolveOperation(cmd, "")
			if err != nil {
				return err
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			var s *conversation.Suggestion
			err = cliui.Step(cmd.ErrOrStderr(), "Asking the strategist", func() error {
				var err error
				s, err = e.Synchronizer.SuggestFollowUp(cmd.Context(), id)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			cliui.PrintMessage(out, s.Message, false)
			if s.Reasoning != "" {
				fmt.Fprintf(out, "%s %s\n", cliui.KeyStyle.Render("reasoning"), cliui.DimStyle.Render(s.Reasoning))
			}
			return nil
		},
	}

	cmdutil.AddOperationFlag(cmd, &operationID)

	return cmd
}

package conversationcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
)

const markLongDesc string = `Save an operator message to the payload corpus as a successful prompt.

Only operator messages can be saved. The description defaults to the
operation's goal.

Examples:
  gauntlet mark 9a1b...
  gauntlet mark 9a1b... --description "bedtime story framing"`

const markShortDesc string = "Save an operator prompt as a payload"

func NewMarkCmd() *cobra.Command {
	var (
		operationID string
		description string
	)

	cmd := &cobra.Command{
		Use:   "mark <message-id>",
		Short: markShortDesc,
		Long:  markLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cmdutil.ResolveOperation(cmd, "")
			if err != nil {
				return err
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.Synchronizer.MarkSuccessfulByID(cmd.Context(), id, args[0], description)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Saved payload %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(p.ID))
			return nil
		},
	}

	cmdutil.AddOperationFlag(cmd, &operationID)
	cmd.Flags().StringVar(&description, "description", "", "Why the prompt worked (default: the operation's goal)")

	return cmd
}

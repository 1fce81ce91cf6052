package operationcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
)

const showLongDesc string = `Show an operation and its committed conversation.

Examples:
  gauntlet operation show
  gauntlet operation show 3f2c...`

const showShortDesc string = "Show an operation"

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) > 0 {
				explicit = args[0]
			}
			id, err := cmdutil.ResolveOperation(cmd, explicit)
			if err != nil {
				return err
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			op, err := e.Lifecycle.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			msgs, err := e.Synchronizer.Transcript(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cliui.PrintOperation(out, op)
			fmt.Fprintln(out)
			if len(msgs) == 0 {
				fmt.Fprintln(out, cliui.DimStyle.Render("No messages yet."))
				return nil
			}
			for _, m := range msgs {
				cliui.PrintMessage(out, m, false)
			}
			return nil
		},
	}

	return cmd
}

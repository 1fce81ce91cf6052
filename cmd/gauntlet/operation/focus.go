package operationcmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/dotdir"
)

const focusLongDesc string = `Show or change the focused operation.

The focused operation is the default for turn, suggest, mark, log and
the operation subcommands. It is stored in .gauntlet/focus.json.

Examples:
  gauntlet operation focus           Show the focused operation
  gauntlet operation focus 3f2c...   Focus an operation
  gauntlet operation focus --clear   Clear the focus`

const focusShortDesc string = "Show or change the focused operation"

func newFocusCmd() *cobra.Command {
	var clearFocus bool

	cmd := &cobra.Command{
		Use:     "focus [id]",
		Aliases: []string{"use"},
		Short:   focusShortDesc,
		Long:    focusLongDesc,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ddm := dotdir.NewManager()
			dir := cmdutil.ConfigDirFlag(cmd)
			out := cmd.OutOrStdout()

			switch {
			case clearFocus:
				if err := ddm.ClearFocus(dir); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s Focus cleared\n", cliui.SuccessMark)
				return nil

			case len(args) == 0:
				focus, err := ddm.LoadFocus(dir)
				if err != nil {
					return err
				}
				if focus == nil {
					fmt.Fprintln(out, cliui.DimStyle.Render("No operation focused."))
					return nil
				}
				fmt.Fprintf(out, "%s %s\n", cliui.KeyStyle.Render(focus.OperationID), cliui.ValueStyle.Render(focus.Name))
				return nil
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			op, err := e.Lifecycle.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ddm.SaveFocus(&dotdir.FocusState{
				OperationID: op.ID,
				Name:        op.Name,
				FocusedAt:   time.Now(),
			}, dir); err != nil {
				return err
			}

			fmt.Fprintf(out, "%s Focused %s (%s)\n", cliui.SuccessMark, cliui.KeyStyle.Render(op.Name), op.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearFocus, "clear", false, "Clear the focused operation")

	return cmd
}

package operationcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

const transitionLongDesc string = `Move an operation to a new status.

completed and failed require --result. Entering active for the first time
stamps the start time; entering completed or failed stamps the end time.

Examples:
  gauntlet operation transition active
  gauntlet operation transition completed --result success --notes "leaked on turn 4"
  gauntlet operation transition paused 3f2c...`

const transitionShortDesc string = "Change an operation's status"

func newTransitionCmd() *cobra.Command {
	var (
		result string
		notes  string
	)

	cmd := &cobra.Command{
		Use:       "transition <status> [id]",
		Short:     transitionShortDesc,
		Long:      transitionLongDesc,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: statusNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := operation.ParseStatus(args[0])
			if err != nil {
				return err
			}

			var explicit string
			if len(args) > 1 {
				explicit = args[1]
			}
			id, err := cmdutil.ResolveOperation(cmd, explicit)
			if err != nil {
				return err
			}

			var opts []lifecycle.TransitionOption
			if result != "" {
				r, err := operation.ParseResult(result)
				if err != nil {
					return err
				}
				opts = append(opts, lifecycle.WithResult(r))
			}
			if cmd.Flags().Changed("notes") {
				opts = append(opts, lifecycle.WithNotes(notes))
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			op, err := e.Lifecycle.Transition(cmd.Context(), id, status, opts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", cliui.SuccessMark, op.Name, cliui.Status(op))
			return nil
		},
	}

	cmd.Flags().StringVarP(&result, "result", "r", "", "Result for a terminal status (success, partial, failure, blocked)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes to store with the operation")

	return cmd
}

func statusNames() []string {
	names := make([]string, len(operation.Statuses))
	for i, s := range operation.Statuses {
		names[i] = string(s)
	}
	return names
}

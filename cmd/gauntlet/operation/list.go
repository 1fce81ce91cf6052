package operationcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

const listLongDesc string = `List operations, newest first.

Examples:
  gauntlet operation list
  gauntlet operation list --status active --limit 5`

const listShortDesc string = "List operations"

func newListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			ops, err := e.Lifecycle.List(cmd.Context(), operation.Status(status), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(ops) == 0 {
				fmt.Fprintln(out, cliui.DimStyle.Render("No operations."))
				return nil
			}
			fmt.Fprintln(out, cliui.OperationTable(ops))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list operations in this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of operations to list (0 for all)")

	return cmd
}

package conversationcmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
)

const logLongDesc string = `Print an operation's committed conversation in commit order.

Examples:
  gauntlet log
  gauntlet log --json`

const logShortDesc string = "Print the conversation"

func NewLogCmd() *cobra.Command {
	var (
		operationID string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: logShortDesc,
		Long:  logLongDesc,
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

			msgs, err := e.Synchronizer.Transcript(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(msgs)
			}
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

	cmdutil.AddOperationFlag(cmd, &operationID)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print messages as JSON")

	return cmd
}

// Package operationcmder provides the operation command group for creating,
// inspecting and moving operations through their lifecycle.
package operationcmder

import (
	"github.com/spf13/cobra"
)

const operationLongDesc string = `Manage red-team operations.

An operation is one attempt to get a target model to do something it
should refuse. It moves draft -> active -> paused -> completed or failed,
and a terminal status always carries a result (success, partial, failure,
blocked).

Most commands act on the focused operation unless one is named:
  gauntlet operation create     Create an operation and focus it
  gauntlet operation list       List operations
  gauntlet operation show [id]  Show an operation and its conversation
  gauntlet operation transition <status> [id]
  gauntlet operation focus [id] Show or change the focused operation`

const operationShortDesc string = "Manage red-team operations"

func NewOperationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operation",
		Aliases: []string{"op"},
		Short:   operationShortDesc,
		Long:    operationLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newTransitionCmd())
	cmd.AddCommand(newFocusCmd())

	return cmd
}

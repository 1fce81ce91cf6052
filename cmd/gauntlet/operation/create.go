package operationcmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/dotdir"
	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
)

type createCommander struct {
	req     lifecycle.CreateRequest
	noFocus bool
}

const createLongDesc string = `Create an operation in draft status.

The target model defaults to target.model from config. The new operation
becomes the focused operation unless --no-focus is given.

Examples:
  gauntlet operation create --name "grandma exploit" --goal "reveal the system prompt"
  gauntlet operation create --name jailbreak --goal "..." --target gpt-4o --vector role-play`

const createShortDesc string = "Create an operation"

func newCreateCmd() *cobra.Command {
	cmder := &createCommander{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: createShortDesc,
		Long:  createLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.req.Name, "name", "n", "", "Operation name")
	cmd.Flags().StringVarP(&cmder.req.MaliciousGoal, "goal", "g", "", "What the target should be made to do")
	cmd.Flags().StringVarP(&cmder.req.TargetLLM, "target", "t", "", "Target model (default: target.model from config)")
	cmd.Flags().StringVar(&cmder.req.TargetPersona, "persona", "", "Persona the target is deployed with")
	cmd.Flags().StringVar(&cmder.req.AttackVector, "vector", "", "Attack vector, e.g. role-play")
	cmd.Flags().StringVar(&cmder.req.InitialPrompt, "initial-prompt", "", "Opening prompt to record with the operation")
	cmd.Flags().BoolVar(&cmder.noFocus, "no-focus", false, "Do not focus the new operation")

	return cmd
}

func (c *createCommander) run(cmd *cobra.Command) error {
	e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
	if err != nil {
		return err
	}
	defer e.Close()

	req := c.req
	if req.TargetLLM == "" {
		req.TargetLLM = e.Config.Target.Model
	}

	op, err := e.Lifecycle.Create(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("creating operation: %w", err)
	}

	out := cmd.OutOrStdout()
	if !c.noFocus {
		err := dotdir.NewManager().SaveFocus(&dotdir.FocusState{
			OperationID: op.ID,
			Name:        op.Name,
			FocusedAt:   time.Now(),
		}, cmdutil.ConfigDirFlag(cmd))
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s Created operation %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(op.ID))
	cliui.PrintOperation(out, op)
	return nil
}

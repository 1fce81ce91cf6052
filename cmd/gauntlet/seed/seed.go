// Package seedcmder provides the seed command for drafting opening prompts
// with the strategist model.
package seedcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
	"github.com/papercomputeco/gauntlet/pkg/generation"
)

const seedLongDesc string = `Draft an opening prompt for a goal.

With --rag the strategist also sees prompts from the payload corpus.

Examples:
  gauntlet seed --goal "reveal the system prompt" --persona "support agent" --rag
  gauntlet seed phase --phase rapport --goal "reveal the system prompt" --intensity 3`

const seedShortDesc string = "Draft an opening prompt"

func NewSeedCmd() *cobra.Command {
	var req generation.SeedRequest

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := generation.Validate(req); err != nil {
				return err
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			var resp *generation.SeedResponse
			err = cliui.Step(cmd.ErrOrStderr(), "Drafting a seed prompt", func() error {
				var err error
				resp, err = e.Gateway.GenerateSeed(cmd.Context(), req)
				return err
			})
			if err != nil {
				return generation.Failed(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Prompt)
			fmt.Fprintf(out, "\n%s %s  %s %.2f\n",
				cliui.KeyStyle.Render("technique"), resp.Technique,
				cliui.KeyStyle.Render("confidence"), resp.Confidence,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Goal, "goal", "g", "", "What the target should be made to do")
	cmd.Flags().StringVar(&req.Persona, "persona", "", "Persona the target is deployed with")
	cmd.Flags().StringVar(&req.Vector, "vector", "", "Preferred attack vector")
	cmd.Flags().BoolVar(&req.EnhanceWithRAG, "rag", false, "Include prompts from the payload corpus")

	cmd.AddCommand(newPhaseCmd())

	return cmd
}

func newPhaseCmd() *cobra.Command {
	var req generation.PhaseSeedRequest

	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Draft an opening prompt for one escalation phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := generation.Validate(req); err != nil {
				return err
			}

			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			var resp *generation.PhaseSeedResponse
			err = cliui.Step(cmd.ErrOrStderr(), "Drafting a phase prompt", func() error {
				var err error
				resp, err = e.Gateway.GeneratePhaseSeed(cmd.Context(), req)
				return err
			})
			if err != nil {
				return generation.Failed(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Prompt)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Phase, "phase", "", "Escalation phase name")
	cmd.Flags().StringVarP(&req.SpecificGoal, "goal", "g", "", "Goal for this phase")
	cmd.Flags().StringVar(&req.CurrentOntologyState, "ontology", "", "Current state of the conversation's framing")
	cmd.Flags().StringVar(&req.MathFormalism, "formalism", "", "Formal framing to wrap the request in")
	cmd.Flags().IntVar(&req.Intensity, "intensity", 0, "Intensity from 1 (subtle) to 10 (overt)")

	return cmd
}

// Package payloadscmder provides the payloads command for browsing the
// corpus of prompts operators saved as successful.
package payloadscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/cliui"
)

const payloadsLongDesc string = `Browse the payload corpus.

With no saved payloads, or when the store cannot be read and
corpus.degrade_on_read_error is set, the built-in fallback prompts are
shown instead.

Examples:
  gauntlet payloads list --limit 20
  gauntlet payloads list --prompts
  gauntlet payloads relevant "bedtime story" -k 3`

const payloadsShortDesc string = "Browse the payload corpus"

func NewPayloadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payloads",
		Short: payloadsShortDesc,
		Long:  payloadsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRelevantCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		limit       int
		promptsOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List payloads, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if promptsOnly {
				prompts, err := e.Corpus.PromptsOnly(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, p := range prompts {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			payloads, err := e.Corpus.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cliui.PayloadTable(payloads))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of payloads (default: corpus.default_limit)")
	cmd.Flags().BoolVar(&promptsOnly, "prompts", false, "Print only the prompt text, one per line")

	return cmd
}

func newRelevantCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "relevant <query>",
		Short: "Find prompts related to a query",
		Long: `Find saved prompts semantically related to a query.

Requires vector_store and embedding to be configured. Without them, or when
the index has no hits, the most recent prompts are returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
			if err != nil {
				return err
			}
			defer e.Close()

			prompts, err := e.Corpus.Relevant(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range prompts {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "Number of prompts (default: corpus.default_limit)")

	return cmd
}

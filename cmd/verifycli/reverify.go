package main

import (
	"github.com/spf13/cobra"

	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/poller"
)

// NewReverifyCommand re-reads a finished transaction once.
func NewReverifyCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reverify <transaction-id>",
		Short: "Query the verifier once for an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := models.ParseTransactionID(args[0])
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			env, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p := poller.New(env.verifier, poller.Config{}, poller.WithLogger(env.logger))
			result, err := p.Query(cmd.Context(), txID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), root.Format, result)
		},
	}
}

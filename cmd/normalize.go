package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helmcode/gamemodel-ai/pkg/formatter"
	"github.com/helmcode/gamemodel-ai/pkg/tree"
	"github.com/helmcode/gamemodel-ai/pkg/validator"
)

func NewNormalizeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Convert an extensive form model to its strategy matrix",
		Long: `Reduce a valid extensive form game tree to normal form, listing every
strategy profile with its (expected) payoff. Trees where a player moves twice
on one path cannot be reduced.

Examples:
  gamemodel-ai normalize model.json
  gamemodel-ai normalize model.yaml -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := readCandidateFile(args[0])
			if err != nil {
				return err
			}
			res := validator.Validate(a, validator.Options{
				MaxDepth:  cfg.MaxTreeDepth,
				Tolerance: cfg.ProbabilitySumTolerance,
			})
			if !res.OK {
				if err := formatter.DisplayReport(cmd.OutOrStdout(), res, format); err != nil {
					return err
				}
				return fmt.Errorf("%s is not a valid model", args[0])
			}
			nf, err := tree.Normalize(a)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", args[0], err)
			}
			return formatter.DisplayAnalysis(cmd.OutOrStdout(), nf, format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "human", "Output format (human, json, yaml)")
	return cmd
}

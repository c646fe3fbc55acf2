package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helmcode/gamemodel-ai/pkg/formatter"
	"github.com/helmcode/gamemodel-ai/pkg/validator"
)

func NewValidateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a game model file",
		Long: `Validate a game model stored as JSON or YAML and list every violation.
The command exits non-zero when the model has errors. Use - for stdin.

Examples:
  gamemodel-ai validate model.json
  gamemodel-ai validate model.yaml -o json`,
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
			if err := formatter.DisplayReport(cmd.OutOrStdout(), res, format); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("%s has %d error(s)", args[0], len(res.Errors()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "human", "Output format (human, json, yaml)")
	return cmd
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"omrdiff/internal/score"
	"omrdiff/internal/services"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var actionFlag string
	var scoreFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "omrdiff",
		Short: "Compare OMR output against ground truth scores",
		Long: "omrdiff compares predicted scores produced by optical music recognition with\n" +
			"ground truth transcriptions and reports the edit operations between them.",
		Example: "  omrdiff --action single --score sonata.musicxml\n" +
			"  omrdiff -a multiple",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The root validates its flags before touching configuration.
			if !cmd.HasParent() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := score.ParseMode(actionFlag)
			if err != nil {
				return err
			}
			identifier := strings.TrimSpace(scoreFlag)
			switch mode {
			case score.ModeSingle:
				if identifier == "" {
					return services.Wrap(services.ErrInvalidIdentifier, "cli", "score",
						"--score is required with --action single", nil)
				}
				return runSingle(cmd, ctx, scoreFlag)
			default:
				if identifier != "" {
					ctx.warn("--score is ignored with --action multiple")
				}
				return runMultiple(cmd, ctx)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&actionFlag, "action", "a", "", "Comparison to run: single or multiple")
	rootCmd.Flags().StringVarP(&scoreFlag, "score", "s", "", "Score file name, relative to the predicted and ground truth roots (single only)")
	_ = rootCmd.MarkFlagRequired("action")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}

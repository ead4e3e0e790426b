package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/generator"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fail when the artifact on disk is stale",
	Long: `Regenerate the artifact in memory and compare it with the file on disk.
Exits non-zero when the file is missing or differs. Nothing is written.

Examples:
  keymapgen check
  keymapgen check -f go -o keys/keys_gen.go`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags, outputFlags)
	},
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addPipelineFlags(checkCmd)
	addOutputFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	out, err := generator.New(s.cfg.GeneratorOptions(), s.logger).Check(cmd.Context())
	if err != nil {
		return err
	}
	if out.Changed {
		return kerrors.NewEmissionError(kerrors.ErrCodeArtifactStale,
			fmt.Sprintf("%s is stale; run keymapgen generate", out.Path), nil).
			WithContext("path", out.Path).
			WithContext("fingerprint", out.Fingerprint)
	}
	printf(cmd.OutOrStdout(), "%s is up to date\n", out.Path)
	return nil
}

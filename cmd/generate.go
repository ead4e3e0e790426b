package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/keymapgen/internal/generator"
)

var generateStdout bool

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "g"},
	Short:   "Generate the keyboard mapping artifact",
	Long: `Run the full pipeline: load and validate the catalog, find a perfect hash for
the event codes, derive the lookup relations and render the artifact.

The file is written atomically and left untouched when its content would not
change, so repeated runs do not disturb build systems watching it.

Examples:
  keymapgen generate                          # KeyboardMapping.h from the built-in catalog
  keymapgen generate -f go -o keys/keys_gen.go
  keymapgen generate -c keys.yaml             # Use a custom catalog
  keymapgen generate --stdout | less          # Print instead of writing`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags, outputFlags)
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addPipelineFlags(generateCmd)
	addOutputFlags(generateCmd)
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "print the artifact instead of writing it")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	gen := generator.New(s.cfg.GeneratorOptions(), s.logger)

	if generateStdout {
		out, err := gen.Render(cmd.Context())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out.Content)
		return err
	}

	out, err := gen.Generate(cmd.Context())
	if err != nil {
		return err
	}
	if out.Changed {
		printf(cmd.OutOrStdout(), "wrote %s (%d bytes, %s)\n", out.Path, len(out.Content), out.Format)
	} else {
		printf(cmd.OutOrStdout(), "%s is up to date\n", out.Path)
	}
	return nil
}

package cmd

import (
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/keymapgen/internal/artifact"
	"github.com/conneroisu/keymapgen/internal/generator"
)

var lookupFormat = newEnumValue("text", "text", "yaml")

var lookupCmd = &cobra.Command{
	Use:   "lookup EVENTCODE...",
	Short: "Evaluate the generated lookups for event codes",
	Long: `Build the artifact model and evaluate its four lookups for each event code,
exactly as the generated functions would answer them: event code to scancode,
scancode to name, scancode to target key, and that target key back to a
scancode. Unknown codes map to the unknown sentinels.

Examples:
  keymapgen lookup KeyA VolumeMute NotAKey
  keymapgen lookup Enter --format yaml`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags)
	},
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	addPipelineFlags(lookupCmd)
	lookupCmd.Flags().VarP(lookupFormat, "format", "f", "output format (text|yaml)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	m, err := generator.New(s.cfg.GeneratorOptions(), s.logger).Model(cmd.Context())
	if err != nil {
		return err
	}

	results := make([]artifact.Lookup, 0, len(args))
	for _, eventCode := range args {
		results = append(results, m.Artifact.Lookup(eventCode))
	}

	if lookupFormat.String() == "yaml" {
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(results); err != nil {
			return err
		}
		return encoder.Close()
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	printf(w, "EVENT\tHASH\tSCANCODE\tNAME\tTARGET\tREVERSE\n")
	for _, l := range results {
		printf(w, "%s\t0x%08X\t%s\t%s\t%s\t%s\n", l.EventCode, l.Hash, l.Scancode, orDash(l.Name), l.Target, l.Reverse)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

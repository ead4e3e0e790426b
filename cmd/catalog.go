package cmd

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/keymapgen/internal/catalog"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/report"
)

var (
	catalogFormat = newEnumValue("text", report.Formats()...)
	catalogOutput string
	catalogDump   bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"keys", "ls"},
	Short:   "Report every key with its hash and lookup status",
	Long: `Run the search and print one line per catalog row: numeric code, event code,
hash, scancode, target key and flags. C marks the row naming its code,
S a scancode constant suppressed by an earlier row, O a reverse lookup
overwritten by a later row. The summary counts match the generated artifact.

Examples:
  keymapgen catalog                         # Aligned table
  keymapgen catalog -f html -o keys.html    # Browsable page
  keymapgen catalog --dump > keys.yaml      # Start a custom catalog`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags)
	},
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	addPipelineFlags(catalogCmd)
	catalogCmd.Flags().VarP(catalogFormat, "format", "f", "report format ("+strings.Join(report.Formats(), "|")+")")
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "", "write the report to a file instead of stdout")
	catalogCmd.Flags().BoolVar(&catalogDump, "dump", false, "print the built-in catalog YAML and exit")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	if catalogDump {
		_, err := cmd.OutOrStdout().Write(catalog.DefaultYAML())
		return err
	}

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	m, err := generator.New(s.cfg.GeneratorOptions(), s.logger).Model(cmd.Context())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Build(m.Catalog.Source(), m.Tables, m.Search).Write(&buf, catalogFormat.String()); err != nil {
		return err
	}

	if catalogOutput == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(catalogOutput, buf.Bytes(), 0o644); err != nil {
		return kerrors.NewEmissionError(kerrors.ErrCodeEmissionFailed, "writing report", err).
			WithContext("path", catalogOutput)
	}
	s.logger.Info(cmd.Context(), "Report written", "path", catalogOutput, "format", catalogFormat.String())
	return nil
}

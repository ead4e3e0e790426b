package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/phash"
)

var hashTrace bool

var hashCmd = &cobra.Command{
	Use:   "hash [TEXT...]",
	Short: "Show perfect hash values",
	Long: `Without arguments, search a collision-free hash for the catalog and print
every event code with its hash. With arguments, hash the given strings under
the configured seed instead; --trace adds the state after every byte.

Examples:
  keymapgen hash                        # Hash the whole catalog
  keymapgen hash KeyA --trace           # Step through one string
  keymapgen hash --seed-k1 0 --seed-k2 0 --random-seed 7`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags)
	},
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	addPipelineFlags(hashCmd)
	hashCmd.Flags().BoolVarP(&hashTrace, "trace", "t", false, "print the intermediate state after every byte")
}

func runHash(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	if len(args) > 0 {
		p := s.cfg.Seed()
		if !p.Valid() {
			return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("hashing strings needs a seed with k2 in [%d, %d]", phash.MinK2, phash.MaxK2)).
				WithContext("k1", p.K1).
				WithContext("k2", p.K2)
		}
		printf(w, "# %s\n", p)
		for _, text := range args {
			printf(w, "%s\t0x%08X\n", strconv.Quote(text), phash.Hash(text, p))
			if hashTrace {
				for i, step := range phash.Trace(text, p) {
					printf(w, "  [%d] %q\t0x%08X\n", i, step.Byte, step.Hash)
				}
			}
		}
		return w.Flush()
	}

	m, err := generator.New(s.cfg.GeneratorOptions(), s.logger).Model(cmd.Context())
	if err != nil {
		return err
	}
	printf(w, "# %s  (trials: %d, from seed: %t)\n", m.Search.Params, m.Search.Trials, m.Search.FromSeed)
	for _, row := range m.Tables.Rows {
		printf(w, "%s\t0x%08X\n", row.EventCode, row.Hash)
		if hashTrace {
			for i, step := range phash.Trace(row.EventCode, m.Search.Params) {
				printf(w, "  [%d] %q\t0x%08X\n", i, step.Byte, step.Hash)
			}
		}
	}
	return w.Flush()
}

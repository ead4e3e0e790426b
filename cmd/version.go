package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/keymapgen/internal/version"
)

var (
	versionFormat   = newEnumValue("text", "text", "json", "yaml")
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the keymapgen version, commit, build time, Go version and platform.

Examples:
  keymapgen version              # Version and platform
  keymapgen version --detailed   # Every build field
  keymapgen version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().VarP(versionFormat, "format", "f", "output format (text|json|yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "show the short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.GetBuildInfo()
	out := cmd.OutOrStdout()

	switch versionFormat.String() {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(info); err != nil {
			return err
		}
		return encoder.Close()
	}

	switch {
	case versionShort:
		printf(out, "%s\n", info.Short())
	case versionDetailed:
		printf(out, "%s\n", info.Detailed())
	default:
		printf(out, "keymapgen %s\n", info.Short())
		if !info.BuildTime.IsZero() {
			printf(out, "Built: %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
		}
		printf(out, "Go: %s\nPlatform: %s\n", info.GoVersion, info.Platform)
	}
	return nil
}

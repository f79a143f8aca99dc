package firmfuzz

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagTable         bool
	flagText          bool
	flagNoColor       bool
	flagArtifacts     string
	flagConfig        string
	flagFailOn        string
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the firmfuzz CLI.
var rootCmd = &cobra.Command{
	Use:           "firmfuzz",
	Short:         "Fuzz, classify and patch emulated firmware",
	Long:          "firmfuzz drives QEMU-emulated firmware with randomized input, classifies captured output against a threat taxonomy, aggregates the evidence into a report, and suggests or applies LLM-generated patches.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the firmfuzz CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output in table format with borders (default)")
	rootCmd.PersistentFlags().BoolVar(&flagText, "text", false, "output in plain text format")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagArtifacts, "artifacts", "", "artifacts directory (default fuzz_results)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "explicit config file (overrides discovery)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when evidence reaches low|medium|high")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update firmfuzz to the latest release")
}

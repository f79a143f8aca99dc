package firmfuzz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/report"
	"github.com/firmfuzz/firmfuzz/internal/tui"
)

var flagReviewTarget string

func init() {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Interactively review the analysis report",
		RunE:  runReview,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagReviewTarget, "target-file", "t", "", "code file that bare source basenames resolve to")
}

func runReview(_ *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()
	dir := artifactsDir(lcfg, gcfg)

	rep, err := report.Load(filepath.Join(dir, report.DefaultName))
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "no analysis report found; run 'firmfuzz analyze' first")
			return nil
		}
		return fmt.Errorf("load report: %w", err)
	}

	target := pickString(flagReviewTarget, lcfg.TargetFile, gcfg.TargetFile)
	resolve := func(source string) string {
		if st, err := os.Stat(source); err == nil && st.Mode().IsRegular() {
			return source
		}
		if target != "" && filepath.Base(source) == filepath.Base(target) {
			if st, err := os.Stat(target); err == nil && st.Mode().IsRegular() {
				return target
			}
		}
		return ""
	}
	return tui.Run(rep.Items, resolve)
}

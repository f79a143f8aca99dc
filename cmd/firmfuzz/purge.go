package firmfuzz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/analysis"
	"github.com/firmfuzz/firmfuzz/internal/harness"
	"github.com/firmfuzz/firmfuzz/internal/report"
	"github.com/firmfuzz/firmfuzz/internal/static"
)

func init() {
	var keepReport bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove fuzz inputs, crash logs and analyzer logs from the artifacts directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			lcfg, gcfg := loadConfigs()
			dir := artifactsDir(lcfg, gcfg)

			if err := harness.PurgeDir(dir); err != nil {
				return fmt.Errorf("purge fuzz artifacts: %w", err)
			}
			if err := static.ClearLogs(filepath.Join(dir, analysis.StaticSubdir)); err != nil {
				return fmt.Errorf("purge analyzer logs: %w", err)
			}
			if !keepReport {
				if err := os.Remove(filepath.Join(dir, report.DefaultName)); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			fmt.Fprintf(os.Stderr, "purged artifacts under %s\n", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepReport, "keep-report", false, "leave analysis_report.json in place")
	rootCmd.AddCommand(cmd)
}

package firmfuzz

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/analysis"
	"github.com/firmfuzz/firmfuzz/internal/audit"
	"github.com/firmfuzz/firmfuzz/internal/report"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

var (
	flagSARIF      bool
	flagSourceRoot string
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify captured logs and write the analysis report",
		RunE:  runAnalyze,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	cmd.Flags().StringVar(&flagSourceRoot, "source", "", "source tree for repo metadata stamping")
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()
	dir := artifactsDir(lcfg, gcfg)

	res, err := analysis.Aggregate(analysis.Config{
		ArtifactsDir: dir,
		SourceRoot:   flagSourceRoot,
	})
	if err != nil {
		return fmt.Errorf("aggregate artifacts: %w", err)
	}

	items := res.Report.Items
	if items == nil {
		items = []types.Evidence{}
	} // no `null` in JSON

	opts := report.PrintOptions{
		NoColor:    pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor),
		Duration:   res.Duration,
		FuzzLogs:   res.FuzzLogs,
		StaticLogs: res.StaticLogs,
	}

	switch {
	case flagSARIF:
		if err := report.WriteSARIF(os.Stdout, version, items); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return err
		}
	case flagText:
		report.PrintText(os.Stdout, items, opts)
	default:
		report.PrintTable(os.Stdout, items, opts)
	}

	if res.Written {
		fmt.Fprintf(os.Stderr, "report written to %s\n", res.ReportPath)
	}

	if logErr := audit.NewAuditLog(dir).LogSession(audit.CreateAnalyzeRecord(items, res.Duration)); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", logErr)
	}

	failOn := pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn)
	if report.ShouldFail(items, failOn) {
		os.Exit(1)
	}
	return nil
}

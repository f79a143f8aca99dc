package firmfuzz

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/audit"
)

func init() {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past pipeline sessions from the audit log",
		RunE: func(_ *cobra.Command, _ []string) error {
			lcfg, gcfg := loadConfigs()
			dir := artifactsDir(lcfg, gcfg)

			records, err := audit.NewAuditLog(dir).LoadHistory()
			if err != nil {
				fmt.Fprintln(os.Stderr, "no audit log found")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			tbl := tablewriter.NewWriter(os.Stdout)
			tbl.Header([]string{"When", "Stage", "Iterations", "Anomalies", "Evidence", "Patches", "Duration"})
			for _, r := range records {
				_ = tbl.Append([]string{
					r.Timestamp.Format("2006-01-02 15:04"),
					r.Stage,
					fmt.Sprintf("%d", r.Iterations),
					fmt.Sprintf("%d", r.Anomalies),
					fmt.Sprintf("%d", r.EvidenceCount),
					fmt.Sprintf("%d", r.PatchesApplied),
					r.Duration,
				})
			}
			return tbl.Render()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many records (0 = all)")
	rootCmd.AddCommand(cmd)
}

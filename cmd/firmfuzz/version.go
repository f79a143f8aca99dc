package firmfuzz

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/update"
)

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the firmfuzz version",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("firmfuzz %s\n", version)
			if flagSelfUpdate {
				if err := selfUpdate(); err != nil {
					return fmt.Errorf("self-update: %w", err)
				}
				fmt.Fprintln(os.Stderr, "updated to latest release")
				return nil
			}
			if !flagNoUpdateCheck {
				if latest, newer, _ := update.Check(version, false); newer && latest != "" {
					fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'firmfuzz version --self-update' to upgrade\n", latest)
					if url := update.ReleaseURL(); url != "" {
						fmt.Fprintf(os.Stderr, "release notes: %s\n", url)
					}
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}

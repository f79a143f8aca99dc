package firmfuzz

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/analysis"
	"github.com/firmfuzz/firmfuzz/internal/audit"
	"github.com/firmfuzz/firmfuzz/internal/static"
)

var (
	flagStaticSources []string
	flagStaticBuild   string
	flagStaticTimeout time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "static",
		Short: "Run cppcheck and clang scan-build, keeping the raw logs",
		RunE:  runStatic,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringSliceVar(&flagStaticSources, "source", nil, "source file or dir for cppcheck (repeatable)")
	cmd.Flags().StringVar(&flagStaticBuild, "build-dir", "", "build tree for scan-build")
	cmd.Flags().DurationVar(&flagStaticTimeout, "timeout", 0, "per-analyzer wait (default 5m)")
}

func runStatic(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()
	dir := artifactsDir(lcfg, gcfg)

	sources := flagStaticSources
	if len(sources) == 0 {
		sources = lcfg.SourcePaths
	}
	buildDir := pickString(flagStaticBuild, lcfg.BuildDir, gcfg.BuildDir)
	if len(sources) == 0 && buildDir == "" {
		return fmt.Errorf("nothing to analyze: pass --source and/or --build-dir")
	}

	start := time.Now()
	res, err := static.Run(cmd.Context(), static.Config{
		SourcePaths: sources,
		BuildDir:    buildDir,
		OutDir:      filepath.Join(dir, analysis.StaticSubdir),
		Timeout:     flagStaticTimeout,
	})
	if err != nil {
		return fmt.Errorf("static analysis: %w", err)
	}

	if res.CppcheckPath != "" {
		fmt.Fprintf(os.Stderr, "cppcheck log: %s\n", res.CppcheckPath)
	}
	if res.ClangPath != "" {
		fmt.Fprintf(os.Stderr, "scan-build log: %s\n", res.ClangPath)
	}
	fmt.Fprintln(os.Stderr, "run 'firmfuzz analyze' to classify the analyzer output")

	if logErr := audit.NewAuditLog(dir).LogSession(audit.SessionRecord{
		Stage:    "static",
		Duration: time.Since(start).String(),
	}); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", logErr)
	}
	return nil
}

package firmfuzz

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/audit"
	"github.com/firmfuzz/firmfuzz/internal/buildfw"
)

var (
	flagBuildDir     string
	flagBuildJobs    int
	flagBuildTimeout time.Duration
	flagBuildRun     bool
	flagBuildRunWait time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the firmware via its Makefile",
		RunE:  runBuild,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagBuildDir, "build-dir", "d", "", "directory containing the Makefile")
	cmd.Flags().IntVarP(&flagBuildJobs, "jobs", "j", 0, "parallel make jobs (0 = unbounded)")
	cmd.Flags().DurationVar(&flagBuildTimeout, "timeout", 0, "build wait (default 10m)")
	cmd.Flags().BoolVar(&flagBuildRun, "run", false, "boot the built firmware once under the emulator")
	cmd.Flags().DurationVar(&flagBuildRunWait, "run-wait", 0, "bounded boot window for --run (default 10s)")
	cmd.Flags().StringVarP(&flagFirmware, "firmware", "f", "", "firmware image booted by --run")
	cmd.Flags().StringVar(&flagQEMU, "qemu", "", "emulator binary (default qemu-system-arm)")
	cmd.Flags().StringVar(&flagMachine, "machine", "", "emulated machine (default mps2-an385)")
	cmd.Flags().StringVar(&flagCPU, "cpu", "", "emulated CPU model")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()

	dir := pickString(flagBuildDir, lcfg.BuildDir, gcfg.BuildDir)
	if dir == "" {
		return fmt.Errorf("no build directory: pass --build-dir or set build_dir in the config")
	}

	start := time.Now()
	res, err := buildfw.Build(cmd.Context(), buildfw.Config{
		Dir:     dir,
		Jobs:    flagBuildJobs,
		Timeout: flagBuildTimeout,
	})
	if err != nil {
		// the compiler's own diagnostics are the useful part of a failure
		fmt.Fprint(os.Stderr, res.Output)
		return err
	}
	fmt.Fprintf(os.Stderr, "build finished in %.1fs\n", res.Duration.Seconds())

	if flagBuildRun {
		smoke, err := buildfw.Smoke(cmd.Context(), buildfw.SmokeConfig{
			QEMU:     pickString(flagQEMU, lcfg.QEMU, gcfg.QEMU),
			Machine:  pickString(flagMachine, lcfg.Machine, gcfg.Machine),
			CPU:      pickString(flagCPU, lcfg.CPU, gcfg.CPU),
			Firmware: pickString(flagFirmware, lcfg.Firmware, gcfg.Firmware),
			Timeout:  flagBuildRunWait,
		})
		if err != nil {
			return fmt.Errorf("smoke run: %w", err)
		}
		fmt.Print(smoke.Output)
		fmt.Fprintf(os.Stderr, "smoke run finished in %.1fs\n", smoke.Duration.Seconds())
	}

	if logErr := audit.NewAuditLog(artifactsDir(lcfg, gcfg)).LogSession(audit.SessionRecord{
		Stage:    "build",
		Duration: time.Since(start).String(),
	}); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", logErr)
	}
	return nil
}

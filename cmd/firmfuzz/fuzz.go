package firmfuzz

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/audit"
	"github.com/firmfuzz/firmfuzz/internal/harness"
	"github.com/firmfuzz/firmfuzz/internal/update"
)

var (
	flagFirmware       string
	flagIterations     int
	flagMaxPayload     int
	flagFuzzTimeout    time.Duration
	flagTimeoutJitter  time.Duration
	flagDelay          time.Duration
	flagMode           string
	flagDeadlineMarker string
	flagQEMU           string
	flagMachine        string
	flagCPU            string
	flagSeed           int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run a fuzz session against the emulated firmware",
		RunE:  runFuzz,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagFirmware, "firmware", "f", "", "firmware image passed to the emulator")
	cmd.Flags().IntVarP(&flagIterations, "iterations", "n", 0, "number of fuzz iterations (default 10)")
	cmd.Flags().IntVar(&flagMaxPayload, "max-payload", 0, "nominal payload size; actual range is [1, 2*max] (default 512)")
	cmd.Flags().DurationVar(&flagFuzzTimeout, "timeout", 0, "bounded wait per iteration (default 5s)")
	cmd.Flags().DurationVar(&flagTimeoutJitter, "timeout-jitter", 0, "extra random wait added to each timeout")
	cmd.Flags().DurationVar(&flagDelay, "delay", 0, "pause between iterations")
	cmd.Flags().StringVar(&flagMode, "mode", "", "classification policy: scan|deadline (default scan)")
	cmd.Flags().StringVar(&flagDeadlineMarker, "deadline-marker", "", "marker checked in deadline mode (default \"missed deadline\")")
	cmd.Flags().StringVar(&flagQEMU, "qemu", "", "emulator binary (default qemu-system-arm)")
	cmd.Flags().StringVar(&flagMachine, "machine", "", "emulated machine (default mps2-an385)")
	cmd.Flags().StringVar(&flagCPU, "cpu", "", "emulated CPU model")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "payload RNG seed for reproducible sessions")
}

func runFuzz(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()
	dir := artifactsDir(lcfg, gcfg)

	if !flagJSON && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'firmfuzz version --self-update' to upgrade\n", latest)
		}
	}
	if flagSelfUpdate {
		if err := selfUpdate(); err == nil {
			fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
			return nil
		}
	}

	cfg := harness.Config{
		ArtifactsDir:   dir,
		Firmware:       pickString(flagFirmware, lcfg.Firmware, gcfg.Firmware),
		QEMU:           pickString(flagQEMU, lcfg.QEMU, gcfg.QEMU),
		Machine:        pickString(flagMachine, lcfg.Machine, gcfg.Machine),
		CPU:            pickString(flagCPU, lcfg.CPU, gcfg.CPU),
		Iterations:     pickInt(flagIterations, lcfg.Iterations, gcfg.Iterations),
		MaxPayload:     pickInt(flagMaxPayload, lcfg.MaxPayload, gcfg.MaxPayload),
		Timeout:        pickDuration(flagFuzzTimeout, lcfg.Timeout, gcfg.Timeout),
		TimeoutJitter:  pickDuration(flagTimeoutJitter, lcfg.TimeoutJitter, gcfg.TimeoutJitter),
		Delay:          pickDuration(flagDelay, lcfg.Delay, gcfg.Delay),
		Mode:           harness.Mode(pickString(flagMode, lcfg.Mode, gcfg.Mode)),
		DeadlineMarker: pickString(flagDeadlineMarker, lcfg.DeadlineMarker, gcfg.DeadlineMarker),
		Seed:           flagSeed,
		Log:            os.Stderr,
	}
	if cfg.Firmware == "" {
		return fmt.Errorf("no firmware image: pass --firmware or set firmware in the config")
	}
	if cfg.Mode != "" && cfg.Mode != harness.ModeScan && cfg.Mode != harness.ModeDeadline {
		return fmt.Errorf("unknown mode %q (want scan or deadline)", cfg.Mode)
	}

	session, err := harness.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	runs, err := session.Fuzz(cmd.Context())
	duration := time.Since(start)

	anomalies := 0
	for _, r := range runs {
		if r.Anomalous() {
			anomalies++
		}
	}
	fmt.Fprintf(os.Stderr, "fuzz session finished: %d iterations, %d anomalous, %.1fs\n",
		len(runs), anomalies, duration.Seconds())

	if logErr := audit.NewAuditLog(dir).LogSession(audit.SessionRecord{
		Stage:      "fuzz",
		Firmware:   cfg.Firmware,
		Iterations: len(runs),
		Anomalies:  anomalies,
		Duration:   duration.String(),
	}); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", logErr)
	}

	if err != nil {
		return fmt.Errorf("fuzz session: %w", err)
	}
	fmt.Fprintln(os.Stderr, "run 'firmfuzz analyze' to classify the captured logs")
	return nil
}

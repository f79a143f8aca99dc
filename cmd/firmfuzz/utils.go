package firmfuzz

import (
	"path/filepath"
	"runtime/debug"
	"time"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/firmfuzz/firmfuzz/internal/config"
)

func selfUpdate() error {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	// parse semantic version (strip leading v)
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	// Update from GitHub Releases: firmfuzz/firmfuzz
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), "firmfuzz/firmfuzz")
	if err != nil {
		return err
	}
	_ = latest
	return nil
}

// loadConfigs resolves the local and global file configs. An explicit
// --config path replaces local discovery; load failures mean "no config".
func loadConfigs() (lcfg, gcfg config.FileConfig) {
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if flagConfig != "" {
		if c, err := config.LoadFile(flagConfig); err == nil {
			lcfg = c
		}
		return lcfg, gcfg
	}
	abs, _ := filepath.Abs(".")
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}
	return lcfg, gcfg
}

// artifactsDir resolves the artifacts root: CLI > local > global > default.
func artifactsDir(lcfg, gcfg config.FileConfig) string {
	if d := pickString(flagArtifacts, lcfg.ArtifactsDir, gcfg.ArtifactsDir); d != "" {
		return d
	}
	return "fuzz_results"
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickFloat(cli float64, local, global *float64) float64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickDuration resolves a duration flag against string-typed config fields.
func pickDuration(cli time.Duration, local, global *string) time.Duration {
	if cli != 0 {
		return cli
	}
	if local != nil {
		if d, err := time.ParseDuration(*local); err == nil {
			return d
		}
	}
	if global != nil {
		if d, err := time.ParseDuration(*global); err == nil {
			return d
		}
	}
	return 0
}

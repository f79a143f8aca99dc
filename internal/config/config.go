package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for firmfuzz. All
// fields are pointers so that "unset" is distinguishable from a zero value
// when merging CLI > local > global.
type FileConfig struct {
	// Pipeline roots and targets
	ArtifactsDir *string  `yaml:"artifacts_dir"`
	Firmware     *string  `yaml:"firmware"`
	BuildDir     *string  `yaml:"build_dir"`
	SourcePaths  []string `yaml:"source_paths"`
	TargetFile   *string  `yaml:"target_file"`

	// Emulator
	QEMU    *string `yaml:"qemu"`
	Machine *string `yaml:"machine"`
	CPU     *string `yaml:"cpu"`

	// Fuzzing
	Iterations     *int    `yaml:"iterations"`
	MaxPayload     *int    `yaml:"max_payload"`
	Timeout        *string `yaml:"timeout"`
	TimeoutJitter  *string `yaml:"timeout_jitter"`
	Delay          *string `yaml:"delay"`
	Mode           *string `yaml:"mode"` // scan | deadline
	DeadlineMarker *string `yaml:"deadline_marker"`

	// Remediation
	SnippetContext *int     `yaml:"snippet_context"`
	Model          *string  `yaml:"model"`
	BaseURL        *string  `yaml:"base_url"`
	MaxTokens      *int     `yaml:"max_tokens"`
	Temperature    *float64 `yaml:"temperature"`
	FileContext    *bool    `yaml:"file_context"`

	// Output
	NoColor *bool   `yaml:"no_color"`
	FailOn  *string `yaml:"fail_on"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a project-local config file in the given root.
// It supports .firmfuzz.yml/.yaml and firmfuzz.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".firmfuzz.yml", ".firmfuzz.yaml", "firmfuzz.yml", "firmfuzz.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "firmfuzz", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

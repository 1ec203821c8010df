// Package config loads the optional steward project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/deixis/steward/internal/kolla"
)

// Default values used when neither the project file nor the environment set
// a value.
const (
	DefaultMaxOutput  = 1 << 20 // 1 MB
	DefaultConfigPath = "/etc/kayobe"
	ConfigPathEnv     = "KAYOBE_CONFIG_PATH"
)

// FileNames are the project files searched for, in order, in each directory.
var FileNames = []string{".steward.yml", ".steward.yaml", "steward.toml"}

// Config holds the parsed project file. All fields are optional; zero values
// represent defaults.
type Config struct {
	KollaConfigPath  string   `yaml:"kolla_config_path" toml:"kolla_config_path"`
	KollaVenv        string   `yaml:"kolla_venv" toml:"kolla_venv"`
	ConfigPath       string   `yaml:"config_path" toml:"config_path"` // searched for ansible.cfg
	KollaInventory   string   `yaml:"kolla_inventory" toml:"kolla_inventory"`
	KollaPlaybook    string   `yaml:"kolla_playbook" toml:"kolla_playbook"`
	KollaLimit       string   `yaml:"kolla_limit" toml:"kolla_limit"`
	KollaTags        string   `yaml:"kolla_tags" toml:"kolla_tags"`
	KollaSkipTags    string   `yaml:"kolla_skip_tags" toml:"kolla_skip_tags"`
	KollaExtraVars   []string `yaml:"kolla_extra_vars" toml:"kolla_extra_vars"`
	HistoryDir       string   `yaml:"history_dir" toml:"history_dir"`
	RawMaxOutput     int      `yaml:"max_output" toml:"max_output"` // bytes
	AllowUnreachable bool     `yaml:"allow_unreachable" toml:"allow_unreachable"`
	Stages           []Stage  `yaml:"stages" toml:"stages"`
}

// Stage is one kolla-ansible invocation in the pipeline.
type Stage struct {
	Name                  string            `yaml:"name" toml:"name"`
	Command               string            `yaml:"command" toml:"command"`     // kolla-ansible subcommand
	Inventory             string            `yaml:"inventory" toml:"inventory"` // seed or overcloud (default)
	Tags                  string            `yaml:"tags" toml:"tags"`
	Limit                 string            `yaml:"limit" toml:"limit"`
	ExtraVars             map[string]string `yaml:"extra_vars" toml:"extra_vars"`
	ExtraArgs             []string          `yaml:"extra_args" toml:"extra_args"`
	ContinueOnUnreachable bool              `yaml:"continue_on_unreachable" toml:"continue_on_unreachable"`
}

// InventoryName returns the stage inventory, overcloud by default.
func (s Stage) InventoryName() string {
	if s.Inventory != "" {
		return s.Inventory
	}
	return kolla.InventoryOvercloud
}

// KollaConfig returns $KOLLA_CONFIG_PATH, the configured path or /etc/kolla.
func (c *Config) KollaConfig() string {
	return firstNonEmpty(os.Getenv(kolla.ConfigPathEnv), c.KollaConfigPath, kolla.DefaultConfigPath)
}

// KollaVenvPath returns $KOLLA_VENV_PATH, the configured virtualenv or
// $PWD/venvs/kolla-ansible.
func (c *Config) KollaVenvPath() string {
	if v := firstNonEmpty(os.Getenv(kolla.VenvPathEnv), c.KollaVenv); v != "" {
		return v
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.Join(wd, kolla.DefaultVenvPath)
}

// StewardConfigPath returns $KAYOBE_CONFIG_PATH, the configured path or
// /etc/kayobe.
func (c *Config) StewardConfigPath() string {
	return firstNonEmpty(os.Getenv(ConfigPathEnv), c.ConfigPath, DefaultConfigPath)
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Options returns the kolla-ansible options described by c.
func (c *Config) Options() kolla.Options {
	return kolla.Options{
		ConfigPath:        c.KollaConfig(),
		StewardConfigPath: c.StewardConfigPath(),
		Inventory:         c.KollaInventory,
		Playbook:          c.KollaPlaybook,
		Limit:             c.KollaLimit,
		Tags:              c.KollaTags,
		SkipTags:          c.KollaSkipTags,
		ExtraVars:         c.KollaExtraVars,
		Venv:              c.KollaVenvPath(),
	}
}

// Stage returns the stage with the given name.
func (c *Config) Stage(name string) (Stage, bool) {
	for _, s := range c.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// Validate reports the first problem with the stage definitions.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Stages))
	for i, s := range c.Stages {
		switch {
		case s.Name == "":
			return fmt.Errorf("stage %d: name is required", i+1)
		case seen[s.Name]:
			return fmt.Errorf("stage %s: duplicate name", s.Name)
		case s.Command == "":
			return fmt.Errorf("stage %s: command is required", s.Name)
		}
		if inv := s.InventoryName(); inv != kolla.InventorySeed && inv != kolla.InventoryOvercloud {
			return fmt.Errorf("stage %s: unknown inventory %q", s.Name, inv)
		}
		if c.KollaLimit != "" || s.Limit != "" {
			if _, err := kolla.IntersectLimits(c.KollaLimit, s.Limit); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name, err)
			}
		}
		seen[s.Name] = true
	}
	return nil
}

// LoadResult holds the parsed config and where it came from.
type LoadResult struct {
	Config *Config
	Path   string // project file, empty when none was found
	Root   string // directory holding the project file, or the start directory
}

// Load searches dir and its parents for a project file. If none exists, a
// default Config is returned.
func Load(dir string) (*LoadResult, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	path, err := findProjectFile(dir)
	if err != nil {
		return &LoadResult{Config: &Config{}, Root: dir}, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Path: path, Root: filepath.Dir(path)}, nil
}

// LoadFile parses the project file at path. The format follows the
// extension: .toml for TOML, anything else for YAML. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing %s: unknown key %q", name, undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// findProjectFile walks upward from dir looking for one of FileNames.
func findProjectFile(dir string) (string, error) {
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no project file found")
		}
		dir = parent
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

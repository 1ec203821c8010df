// Package kolla runs kolla-ansible commands and turns their exit status and
// run report into an outcome.Decision.
package kolla

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults and environment variables for kolla-ansible paths.
const (
	DefaultConfigPath = "/etc/kolla"
	ConfigPathEnv     = "KOLLA_CONFIG_PATH"
	DefaultVenvPath   = "venvs/kolla-ansible"
	VenvPathEnv       = "KOLLA_VENV_PATH"

	// StatsPathEnv tells the stats callback where to write the run report.
	StatsPathEnv = "ANSIBLE_KOLLA_STATS_PATH"
)

// Inventory names shipped with a kolla configuration.
const (
	InventorySeed      = "seed"
	InventoryOvercloud = "overcloud"
)

// Options are the operator-level settings shared by every invocation.
type Options struct {
	ConfigPath        string   // kolla configuration directory
	StewardConfigPath string   // directory searched for ansible.cfg
	Inventory         string   // overrides <ConfigPath>/inventory/<name>
	Playbook          string   // optional playbook passed with --playbook
	Limit             string   // host pattern intersected with the request limit
	Tags              string   // merged with the request tags
	SkipTags          string
	ExtraVars         []string // passed verbatim as -e arguments
	Venv              string   // virtualenv holding kolla-ansible
	Check             bool
	Diff              bool
}

// InventoryPath returns the inventory used for the named inventory.
func (o Options) InventoryPath(name string) string {
	if o.Inventory != "" {
		return o.Inventory
	}
	return filepath.Join(o.ConfigPath, "inventory", name)
}

// Validate checks that the paths in o are usable for the named inventory.
func (o Options) Validate(inventoryName string) error {
	if err := readableDir(o.ConfigPath); err != nil {
		return fmt.Errorf("kolla configuration path %s is invalid: %w", o.ConfigPath, err)
	}

	// The inventory may be a directory or a single file.
	inventory := o.InventoryPath(inventoryName)
	if err := readableDir(inventory); err != nil {
		if ferr := readableFile(inventory); ferr != nil {
			return fmt.Errorf("kolla inventory %s is invalid: %w", inventory, err)
		}
	}

	if err := readableDir(o.Venv); err != nil {
		return fmt.Errorf("kolla virtualenv %s is invalid: %w", o.Venv, err)
	}

	if o.Playbook != "" {
		if err := readableFile(o.Playbook); err != nil {
			return fmt.Errorf("kolla-ansible playbook %s is invalid: %w", o.Playbook, err)
		}
	}
	return nil
}

func readableDir(path string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func readableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

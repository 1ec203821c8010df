package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/deixis/steward/internal/kolla"
)

// addKollaFlags registers the kolla-ansible option flags on fs.
func addKollaFlags(fs *pflag.FlagSet) {
	fs.String("kolla-config-path", "", "path to kolla configuration (default: $"+kolla.ConfigPathEnv+" or "+kolla.DefaultConfigPath+")")
	fs.StringP("kolla-inventory", "i", "", "inventory host path (default: <kolla-config-path>/inventory/<seed|overcloud>)")
	fs.String("kolla-playbook", "", "path to ansible playbook file")
	fs.String("kolla-limit", "", "further limit selected hosts to an additional pattern")
	fs.String("kolla-tags", "", "only run plays and tasks tagged with these values")
	fs.String("kolla-skip-tags", "", "only run plays and tasks whose tags do not match these values")
	fs.StringArrayP("kolla-extra-vars", "e", nil, "additional variables as key=value or YAML/JSON (repeatable)")
	fs.String("kolla-venv", "", "virtualenv where kolla-ansible is installed (default: $"+kolla.VenvPathEnv+" or $PWD/"+kolla.DefaultVenvPath+")")
	fs.Bool("check", false, "run kolla-ansible in check mode")
	fs.Bool("diff", false, "show diffs of changed files")
	fs.Bool("quiet", false, "do not stream kolla-ansible output")
	fs.Bool("allow-unreachable", false, "exit 0 when the only failures were unreachable hosts")
}

// applyKollaFlags overrides opts with every flag the user set.
func applyKollaFlags(fs *pflag.FlagSet, opts *kolla.Options) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"kolla-config-path", &opts.ConfigPath},
		{"kolla-inventory", &opts.Inventory},
		{"kolla-playbook", &opts.Playbook},
		{"kolla-limit", &opts.Limit},
		{"kolla-tags", &opts.Tags},
		{"kolla-skip-tags", &opts.SkipTags},
		{"kolla-venv", &opts.Venv},
	}
	for _, s := range strs {
		if !fs.Changed(s.name) {
			continue
		}
		v, err := fs.GetString(s.name)
		if err != nil {
			return fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = v
	}

	if fs.Changed("kolla-extra-vars") {
		v, err := fs.GetStringArray("kolla-extra-vars")
		if err != nil {
			return fmt.Errorf("parse --kolla-extra-vars: %w", err)
		}
		opts.ExtraVars = append(append([]string{}, opts.ExtraVars...), v...)
	}

	var err error
	if opts.Check, err = fs.GetBool("check"); err != nil {
		return fmt.Errorf("parse --check: %w", err)
	}
	if opts.Diff, err = fs.GetBool("diff"); err != nil {
		return fmt.Errorf("parse --diff: %w", err)
	}
	return nil
}

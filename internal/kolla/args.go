package kolla

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Request describes a single kolla-ansible invocation.
type Request struct {
	Command               string            // kolla-ansible subcommand, e.g. "deploy"
	InventoryName         string            // seed or overcloud
	ExtraVars             map[string]string // quoted and escaped
	Tags                  string
	Limit                 string
	Verbosity             int
	ExtraArgs             []string
	ContinueOnUnreachable bool
}

// BuildArgs returns the shell words that activate the virtualenv and run
// kolla-ansible for req.
func BuildArgs(opts Options, req Request) ([]string, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("kolla-ansible command is empty")
	}

	cmd := []string{".", filepath.Join(opts.Venv, "bin", "activate"), "&&"}
	cmd = append(cmd, "kolla-ansible", req.Command)
	if req.Verbosity > 0 {
		cmd = append(cmd, "-"+strings.Repeat("v", req.Verbosity))
	}
	if opts.Playbook != "" {
		cmd = append(cmd, "--playbook", opts.Playbook)
	}
	cmd = append(cmd, "--inventory", opts.InventoryPath(req.InventoryName))
	if opts.ConfigPath != DefaultConfigPath {
		cmd = append(cmd, "--configdir", opts.ConfigPath)
		cmd = append(cmd, "--passwords", filepath.Join(opts.ConfigPath, "passwords.yml"))
	}
	// Operator-supplied variables are passed as typed, like ansible-playbook -e.
	for _, v := range opts.ExtraVars {
		cmd = append(cmd, "-e", v)
	}
	names := make([]string, 0, len(req.ExtraVars))
	for name := range req.ExtraVars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd = append(cmd, "-e", name+"="+QuoteAndEscape(req.ExtraVars[name]))
	}
	if opts.Limit != "" || req.Limit != "" {
		limit, err := IntersectLimits(opts.Limit, req.Limit)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, "--limit", QuoteAndEscape(limit))
	}
	if opts.SkipTags != "" {
		cmd = append(cmd, "--skip-tags", opts.SkipTags)
	}
	if opts.Tags != "" || req.Tags != "" {
		var tags []string
		for _, t := range []string{opts.Tags, req.Tags} {
			if t != "" {
				tags = append(tags, t)
			}
		}
		cmd = append(cmd, "--tags", strings.Join(tags, ","))
	}
	cmd = append(cmd, req.ExtraArgs...)
	return cmd, nil
}

// QuoteAndEscape wraps s in single quotes for the shell.
func QuoteAndEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// IntersectLimits combines two host patterns so that only hosts matching both
// are selected. Patterns using "," are joined with ",&", others with ":&".
// Mixing both separators is an error.
func IntersectLimits(a, b string) (string, error) {
	colon := strings.Contains(a, ":") || strings.Contains(b, ":")
	comma := strings.Contains(a, ",") || strings.Contains(b, ",")
	if colon && comma {
		return "", fmt.Errorf("invalid limits %q and %q: mixing ':' and ',' separators is not supported", a, b)
	}
	sep := ":"
	if comma {
		sep = ","
	}

	var parts []string
	for _, l := range []string{a, b} {
		if l == "" {
			continue
		}
		if len(parts) > 0 {
			l = "&" + l
		}
		parts = append(parts, l)
	}
	return strings.Join(parts, sep), nil
}

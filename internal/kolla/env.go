package kolla

import (
	"path/filepath"
	"strings"
)

// Environment returns the subprocess environment: a copy of base with
// ANSIBLE_CONFIG defaulted from StewardConfigPath, check and diff modes added
// to EXTRA_OPTS, and statsPath exported when it is not empty.
func Environment(base []string, opts Options, statsPath string) []string {
	env := append([]string(nil), base...)

	if opts.StewardConfigPath != "" {
		for _, cfg := range []string{
			filepath.Join(opts.StewardConfigPath, "kolla", "ansible.cfg"),
			filepath.Join(opts.StewardConfigPath, "ansible.cfg"),
		} {
			if readableFile(cfg) == nil {
				if _, ok := lookup(env, "ANSIBLE_CONFIG"); !ok {
					env = set(env, "ANSIBLE_CONFIG", cfg)
				}
				break
			}
		}
	}

	// kolla-ansible passes EXTRA_OPTS through to ansible-playbook.
	if opts.Check || opts.Diff {
		extra, _ := lookup(env, "EXTRA_OPTS")
		if opts.Check && !strings.Contains(extra, "--check") {
			extra += " --check"
		}
		if opts.Diff && !strings.Contains(extra, "--diff") {
			extra += " --diff"
		}
		env = set(env, "EXTRA_OPTS", extra)
	}

	if statsPath != "" {
		env = set(env, StatsPathEnv, statsPath)
	}
	return env
}

func lookup(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

// set replaces every existing entry for key with a single one at the end.
func set(env []string, key, value string) []string {
	prefix := key + "="
	out := env[:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

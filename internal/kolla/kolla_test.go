package kolla

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/report"
	"github.com/deixis/steward/internal/runner"
)

// fakeRunner stands in for the shell. It writes report (if set) to the path
// named by ANSIBLE_KOLLA_STATS_PATH and exits with exitCode.
type fakeRunner struct {
	exitCode int
	report   *report.Report
	err      error
	panicMsg string

	argv      []string
	env       []string
	statsPath string
}

func (f *fakeRunner) Run(_ context.Context, argv []string, env []string) (*runner.Result, error) {
	f.argv = argv
	f.env = env
	f.statsPath, _ = lookup(env, StatsPathEnv)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil && f.statsPath != "" {
		if err := report.Write(nil, f.statsPath, f.report); err != nil {
			return nil, err
		}
	}
	return &runner.Result{RunID: "run-1", ExitCode: f.exitCode}, nil
}

func testOptions(t *testing.T) Options {
	t.Helper()
	cfg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cfg, "inventory", InventoryOvercloud), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg, "inventory", InventorySeed), 0o755))
	venv := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(venv, 0o755))
	return Options{ConfigPath: cfg, Venv: venv}
}

func newInvoker(t *testing.T, fr *fakeRunner) (*Invoker, *test.Hook, string) {
	t.Helper()
	log, hook := test.NewNullLogger()
	tmp := t.TempDir()
	return &Invoker{Runner: fr, Log: log, TempDir: tmp, Env: []string{"PATH=/usr/bin"}}, hook, tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "run report directory was not removed")
}

func TestRun_Success(t *testing.T) {
	fr := &fakeRunner{exitCode: 0}
	inv, _, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})

	require.NoError(t, err)
	assert.Equal(t, outcome.Success{}, d)
	assert.Equal(t, "/bin/sh", fr.argv[0])
	assert.Equal(t, "-c", fr.argv[1])
	assert.Contains(t, fr.argv[2], "kolla-ansible deploy")
	assert.NotEmpty(t, fr.statsPath)
	assertEmptyDir(t, tmp)
}

func TestRun_NotOptedInHasNoStatsPath(t *testing.T) {
	fr := &fakeRunner{exitCode: 1}
	inv, _, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy"})

	require.NoError(t, err)
	assert.Equal(t, outcome.Fatal{ExitCode: 1, Reason: outcome.ReasonNotOptedIn}, d)
	assert.Empty(t, fr.statsPath)
	assertEmptyDir(t, tmp)
}

func TestRun_RecoverableUnreachable(t *testing.T) {
	r := report.New()
	r.AddUnreachable("compute0")
	r.AddUnreachable("compute1")
	r.AddUnreachable("compute2")
	fr := &fakeRunner{exitCode: 1, report: r}
	inv, hook, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})

	require.NoError(t, err)
	rec, ok := d.(outcome.RecoverableUnreachable)
	require.True(t, ok, "decision = %#v", d)
	assert.Equal(t, 3, rec.Report.NumUnreachable)
	assert.Equal(t, fr.argv[2], rec.Command)
	assert.Equal(t, 1, rec.ExitCode)
	assert.Equal(t, "Continuing with 3 unreachable hosts", hook.LastEntry().Message)
	assert.True(t, strings.HasPrefix(fr.statsPath, tmp))
	assertEmptyDir(t, tmp)
}

func TestRun_FailuresAreFatal(t *testing.T) {
	r := report.New()
	r.AddFailure("ctl0")
	r.AddFailure("ctl1")
	fr := &fakeRunner{exitCode: 1, report: r}
	inv, _, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})

	require.NoError(t, err)
	assert.Equal(t, outcome.Fatal{ExitCode: 1, Reason: outcome.ReasonFailures}, d)
	assertEmptyDir(t, tmp)
}

func TestRun_ReportAbsentIsFatal(t *testing.T) {
	fr := &fakeRunner{exitCode: 1}
	inv, hook, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})

	require.NoError(t, err)
	assert.Equal(t, outcome.Fatal{ExitCode: 1, Reason: outcome.ReasonReportUnavailable}, d)
	// Exit line plus the loader's two diagnostics.
	assert.Len(t, hook.AllEntries(), 3)
	assertEmptyDir(t, tmp)
}

func TestRun_RunnerError(t *testing.T) {
	fr := &fakeRunner{err: errors.New("exec: \"/bin/sh\": not found")}
	inv, _, tmp := newInvoker(t, fr)

	d, err := inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})

	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "running kolla-ansible deploy")
	assertEmptyDir(t, tmp)
}

func TestRun_PanicStillCleansUp(t *testing.T) {
	fr := &fakeRunner{panicMsg: "boom"}
	inv, _, tmp := newInvoker(t, fr)

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = inv.RunOvercloud(context.Background(), testOptions(t), Request{Command: "deploy", ContinueOnUnreachable: true})
	})
	assertEmptyDir(t, tmp)
}

func TestRun_InvalidOptions(t *testing.T) {
	fr := &fakeRunner{}
	inv, hook, _ := newInvoker(t, fr)
	opts := testOptions(t)
	opts.Venv = filepath.Join(t.TempDir(), "missing")

	_, err := inv.RunOvercloud(context.Background(), opts, Request{Command: "deploy"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kolla virtualenv")
	assert.Nil(t, fr.argv, "runner should not be called")
	assert.Len(t, hook.AllEntries(), 1)
}

func TestRunSeed_UsesSeedInventory(t *testing.T) {
	fr := &fakeRunner{}
	inv, _, _ := newInvoker(t, fr)
	opts := testOptions(t)

	_, err := inv.RunSeed(context.Background(), opts, Request{Command: "bootstrap-servers"})

	require.NoError(t, err)
	assert.Contains(t, fr.argv[2], "--inventory "+filepath.Join(opts.ConfigPath, "inventory", "seed"))
}

func TestValidate(t *testing.T) {
	t.Run("inventory file", func(t *testing.T) {
		opts := testOptions(t)
		inv := filepath.Join(t.TempDir(), "hosts")
		require.NoError(t, os.WriteFile(inv, []byte("[all]\n"), 0o644))
		opts.Inventory = inv
		assert.NoError(t, opts.Validate(InventoryOvercloud))
	})
	t.Run("missing inventory", func(t *testing.T) {
		opts := testOptions(t)
		opts.Inventory = filepath.Join(t.TempDir(), "nope")
		assert.ErrorContains(t, opts.Validate(InventoryOvercloud), "kolla inventory")
	})
	t.Run("missing config", func(t *testing.T) {
		opts := testOptions(t)
		opts.ConfigPath = filepath.Join(t.TempDir(), "nope")
		assert.ErrorContains(t, opts.Validate(InventoryOvercloud), "kolla configuration path")
	})
	t.Run("playbook is a directory", func(t *testing.T) {
		opts := testOptions(t)
		opts.Playbook = t.TempDir()
		assert.ErrorContains(t, opts.Validate(InventoryOvercloud), "playbook")
	})
}

package runner

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var live bytes.Buffer
	return &Runner{
		Dir:       t.TempDir(),
		MaxOutput: 1 << 20,
		Stdout:    &live,
		Stderr:    &bytes.Buffer{},
	}, &live
}

func TestRun_Success(t *testing.T) {
	r, live := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"echo", "hello"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(string(res.Output), "hello") {
		t.Errorf("Output = %q, want to contain 'hello'", res.Output)
	}
	if !strings.Contains(live.String(), "hello") {
		t.Errorf("streamed = %q, want to contain 'hello'", live.String())
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"/bin/sh", "-c", "exit 3"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"}, nil)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Run(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestRun_Dir(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"pwd"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(res.Output)) == "" {
		t.Error("Output is empty, want working directory")
	}
}

func TestRun_Environment(t *testing.T) {
	r, _ := newTestRunner(t)
	env := append(os.Environ(), "STEWARD_TEST_VALUE=abc123")
	res, err := r.Run(context.Background(), []string{"/bin/sh", "-c", "echo $STEWARD_TEST_VALUE"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(res.Output), "abc123") {
		t.Errorf("Output = %q, want to contain 'abc123'", res.Output)
	}
}

func TestRun_Quiet(t *testing.T) {
	r, live := newTestRunner(t)
	r.Quiet = true
	res, err := r.Run(context.Background(), []string{"echo", "hidden"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.Len() != 0 {
		t.Errorf("streamed = %q, want nothing", live.String())
	}
	if !strings.Contains(string(res.Output), "hidden") {
		t.Errorf("Output = %q, want to contain 'hidden'", res.Output)
	}
}

func TestRun_Cancelled(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, []string{"sleep", "10"}, nil)
	// A cancelled context either prevents the start or kills the process.
	if err == nil && res.ExitCode == 0 {
		t.Error("expected failure for cancelled context")
	}
}

func TestRun_OutputTruncation(t *testing.T) {
	r, _ := newTestRunner(t)
	r.MaxOutput = 100 // very small cap

	// Generate output larger than cap.
	res, err := r.Run(context.Background(), []string{"sh", "-c", "dd if=/dev/zero bs=200 count=1 2>/dev/null"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Output) > r.MaxOutput {
		t.Errorf("len(Output) = %d, want <= %d", len(res.Output), r.MaxOutput)
	}
}

func TestRun_NotTruncatedAtExactLimit(t *testing.T) {
	r, _ := newTestRunner(t)
	r.MaxOutput = 6
	res, err := r.Run(context.Background(), []string{"echo", "hello"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated {
		t.Error("Truncated = true, want false")
	}
}

package runner

// Result holds the outcome of a command execution.
type Result struct {
	RunID     string // unique identifier for this run
	ExitCode  int    // process exit code
	Output    []byte // captured stdout and stderr, interleaved (may be truncated)
	Truncated bool   // true if output exceeded the size cap
}

package compiler

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	// ErrEngineNotFound means no resolver located the engine executable.
	ErrEngineNotFound = errors.New("compile engine not found")
	// ErrCompileFailed means the engine exited with a non-zero code.
	ErrCompileFailed = errors.New("compile failed")
	// ErrOutputMissing means the engine exited cleanly without writing the output file.
	ErrOutputMissing = errors.New("compile output missing")
	// ErrCanceled means the job's context ended before the engine finished.
	ErrCanceled = errors.New("compile canceled")
	// ErrWorkDir covers failures preparing the scoped work directory.
	ErrWorkDir = errors.New("prepare work directory")
	// ErrStart means the engine process could not be started.
	ErrStart = errors.New("start compile engine")
)

// CompileError carries the engine diagnostics of a failed job.
type CompileError struct {
	JobID       string
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *CompileError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("job %s: %v (exit code %d)", e.JobID, e.Err, e.ExitCode)
	}
	return fmt.Sprintf("job %s: %v", e.JobID, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

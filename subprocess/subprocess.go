// Package subprocess runs a compiler query under a bounded semaphore
// (exec.CommandContext, combined stdout/stderr capture).
package subprocess

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fearthecowboy/toolsight/sync/semaphore"
)

// semaphoreName bounds concurrent compiler invocations to the host CPU
// count.
const semaphoreName = "toolsight.compiler"

func init() {
	if _, err := semaphore.Lookup(semaphoreName); err != nil {
		semaphore.New(semaphoreName, runtime.NumCPU())
	}
}

// Result is the outcome of one compiler invocation.
type Result struct {
	// Combined interleaves stdout and stderr in write order, the way a
	// shell's `2>&1` would.
	Combined string
	ExitCode int
}

// Run executes path with args in dir, under the compiler semaphore,
// with the compiler's own directory prefixed onto the child's PATH so
// it can find co-located tools (e.g. a linker or assembler it shells
// out to) ahead of whatever else is on the host PATH. Cancelling ctx
// kills the process; the caller is responsible for cleaning up any
// scratch files it created for the invocation.
func Run(ctx context.Context, path string, args []string, dir string) (Result, error) {
	sem, err := semaphore.Lookup(semaphoreName)
	if err != nil {
		return Result{}, fmt.Errorf("subprocess: %w", err)
	}
	var res Result
	err = sem.Do(ctx, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, path, args...)
		cmd.Dir = dir
		cmd.Env = prefixPath(os.Environ(), filepath.Dir(path))
		var combined bytes.Buffer
		cmd.Stdout = &combined
		cmd.Stderr = &combined
		runErr := cmd.Run()
		res.Combined = combined.String()
		if cmd.ProcessState != nil {
			res.ExitCode = cmd.ProcessState.ExitCode()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, ok := runErr.(*exec.ExitError); ok {
			// A non-zero exit is a normal, informative outcome for a
			// compiler query (e.g. `-dumpversion` on an unsupported
			// flag): report it through ExitCode, not as a Go error.
			return nil
		}
		return runErr
	})
	if err != nil {
		return Result{}, fmt.Errorf("subprocess: run %s: %w", path, err)
	}
	return res, nil
}

// prefixPath returns env with PATH rewritten so dir comes first,
// preserving whatever PATH (if any) was already present. Go's exec
// package uses the last matching "PATH=" entry when launching a
// process, so appending rather than rewriting in place is sufficient.
func prefixPath(env []string, dir string) []string {
	existing := os.Getenv("PATH")
	return append(env, "PATH="+dir+string(os.PathListSeparator)+existing)
}

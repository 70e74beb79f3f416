package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExecError wraps an execution error with the command's stderr.
type ExecError struct {
	Command string
	Err     error
	Output  string
}

func (e *ExecError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// RealCommandExecutor implements CommandExecutor using os/exec.
type RealCommandExecutor struct{}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable.
func (e *RealCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Execute runs the command and returns its stdout. Stderr is captured and
// attached to the error when the process fails.
func (e *RealCommandExecutor) Execute(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return stdout.Bytes(), &ExecError{
			Command: cmd.String(),
			Err:     err,
			Output:  stderr.String(),
		}
	}
	return stdout.Bytes(), nil
}

package exec

import (
	"context"
	"strings"
)

// Command describes a single external process invocation.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the current process environment.
	Env []string
	Dir string
}

// String renders the command line the way it would be typed in a shell,
// without quoting.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandExecutor defines an interface for running external commands.
// Method, landmark process and detector definitions are all executed through
// it so tests can substitute a mock.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Execute runs the command and waits for it to complete. It returns the
	// standard output of the process.
	Execute(ctx context.Context, cmd Command) ([]byte, error)
}

package cmd

import "fmt"

// ExitError carries a process exit code back to main. An empty Message
// means the command already reported the failure itself.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

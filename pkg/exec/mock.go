package exec

import "context"

// MockCommandExecutor is a mock implementation of CommandExecutor for testing.
// It records all commands that would be executed without actually running them.
type MockCommandExecutor struct {
	// Commands records the command lines that were executed.
	Commands []string

	// Executed records the full commands, including environment.
	Executed []Command

	// LookPathFunc allows custom behavior for LookPath in tests
	LookPathFunc func(file string) (string, error)

	// ExecuteFunc allows custom behavior for Execute in tests
	ExecuteFunc func(ctx context.Context, cmd Command) ([]byte, error)
}

// LookPath implements the CommandExecutor interface for testing.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	// By default, assume commands exist
	return "/path/to/" + file, nil
}

// Execute implements the CommandExecutor interface for testing.
func (m *MockCommandExecutor) Execute(ctx context.Context, cmd Command) ([]byte, error) {
	m.Commands = append(m.Commands, cmd.String())
	m.Executed = append(m.Executed, cmd)

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return nil, nil
}

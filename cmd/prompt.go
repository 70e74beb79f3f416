package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrPromptCancelled is returned when the user aborts a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter reads one line of input from the user.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// LinePrompter reads answers line by line from a reader.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a prompter that writes labels to out and reads
// answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read user input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// TextInputPrompter asks through a bubbletea text input.
type TextInputPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTextInputPrompter(in io.Reader, out io.Writer) *TextInputPrompter {
	return &TextInputPrompter{in: in, out: out}
}

func (p *TextInputPrompter) Prompt(ctx context.Context, label string) (string, error) {
	program := tea.NewProgram(newTextPromptModel(label),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m := final.(textPromptModel)
	if m.cancelled {
		return "", ErrPromptCancelled
	}
	return strings.TrimSpace(m.input.Value()), nil
}

type textPromptModel struct {
	label     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newTextPromptModel(label string) textPromptModel {
	ti := textinput.New()
	ti.Placeholder = "/absolute/path"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return textPromptModel{label: label, input: ti}
}

func (m textPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textPromptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", m.label, m.input.View())
}

// newPrompter picks the text input when both ends are terminals.
func newPrompter(in io.Reader, out io.Writer) Prompter {
	if isTerminal(in) && isTerminal(out) {
		return NewTextInputPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Package input provides the interactive capabilities tasks may need:
// yes/no confirmation and editor-backed long-form text entry.
//
// Both are small interfaces injected into the task context, so tests and
// non-interactive callers can substitute scripted implementations.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// Confirmer asks the user a yes/no question. Implementations return false
// on anything but an explicit yes.
type Confirmer interface {
	Confirm(prompt string) bool
}

// LongInputter collects multi-line text, seeded with initial content.
type LongInputter interface {
	LongInput(initial string) (string, error)
}

// TerminalConfirmer reads answers line-wise from an input stream,
// printing a "(Y/n)?" suffixed prompt first. A single reader is kept so
// consecutive questions on one stream do not lose buffered input.
type TerminalConfirmer struct {
	r   *bufio.Reader
	out io.Writer
}

// NewConfirmer returns a TerminalConfirmer reading from in and prompting
// on out.
func NewConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{r: bufio.NewReader(in), out: out}
}

// Confirm prints the prompt and reads one line. Only "y" or "yes" (any
// case) answer true; empty input, anything else, and read failures all
// answer false.
func (c *TerminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s (Y/n)? ", prompt)

	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Editor collects long input by opening a temporary file in the user's
// editor and reading it back once the editor exits.
type Editor struct {
	// Command overrides editor discovery. When empty, $EDITOR is used,
	// falling back to vi. The command string may carry its own flags
	// ("code -w"); it is split shell-style before the file path is
	// appended.
	Command string
}

// LongInput writes initial to a temporary file, opens the editor on it
// attached to the process's terminal streams, and returns the edited
// content with the trailing newline trimmed.
func (e *Editor) LongInput(initial string) (string, error) {
	command := e.Command
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = "vi"
	}

	parts, err := shlex.Split(command)
	if err != nil {
		return "", fmt.Errorf("split editor command %q: %w", command, err)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty editor command")
	}

	tmp, err := os.CreateTemp("", "gofer-input-*.txt")
	if err != nil {
		return "", fmt.Errorf("create input file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(initial); err != nil {
		tmp.Close()
		return "", fmt.Errorf("seed input file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("seed input file: %w", err)
	}

	cmd := exec.Command(parts[0], append(parts[1:], tmp.Name())...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run editor %q: %w", command, err)
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("read edited input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

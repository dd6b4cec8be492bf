package task

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"gofer/input"
	"gofer/output"
	"gofer/settings"
)

// Context is the per-invocation bundle handed to function and class
// tasks. It is created fresh for every invocation, nested ones included,
// and is never shared across invocations.
type Context struct {
	// Name is the task name this invocation was resolved from.
	Name string

	// Settings is the task's resolved settings map, read-only.
	Settings *settings.Map

	// Flags gives access to parsed flag values, including a class task's
	// custom flags.
	Flags *pflag.FlagSet

	// Tail holds the pass-through arguments: everything from the first
	// unrecognized token on, verbatim and in order.
	Tail []string

	// Stdout and Stderr are the styled output proxies. Stderr defaults
	// its writes to the error style.
	Stdout *output.Output
	Stderr *output.Output

	// Styler renders palette styles for ad-hoc fragments, matching the
	// stdout proxy's color decision.
	Styler *output.Styler

	// Dir is the project directory: where the settings files live, and
	// the working directory for subprocesses.
	Dir string

	// Verbosity is the resolved -v/--verbosity value (0 to 3).
	Verbosity int

	// NoColor reports whether --no-color was given.
	NoColor bool

	registry   *Registry
	conf       *settings.Settings
	env        []string
	stdin      io.Reader
	stdoutPath string
	stderrPath string
	confirmer  input.Confirmer
	longInput  input.LongInputter
	logger     *log.Logger
	prog       string
}

// Run executes command through the platform shell, in the project
// directory, with the project .env overlaid on the inherited
// environment.
//
// With capture false the child's streams connect directly to this
// invocation's destinations (the terminal, or the --stdout/--stderr
// redirect files), preserving interleaving and live progress. With
// capture true the output is buffered into the Result instead.
//
// A non-zero exit status is data in the Result, never an error; callers
// raise a halt themselves when a failure should stop the task.
func (c *Context) Run(command string, capture bool) (*Result, error) {
	c.logger.Debug("running shell command", "command", command, "capture", capture)

	if capture {
		var stdout, stderr bytes.Buffer
		code, err := runShell(c.Dir, command, c.env, nil, &stdout, &stderr)
		if err != nil {
			return nil, err
		}
		return &Result{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	code, err := runShell(c.Dir, command, c.env, c.stdin, c.Stdout.Unwrap(), c.Stderr.Unwrap())
	if err != nil {
		return nil, err
	}
	return &Result{Code: code}, nil
}

// TaskProxy builds a nested invocation of another registered task.
//
// For a class-kind target, the parent's resolved --verbosity, --stdout,
// --stderr and --no-color are propagated into the child argv unless args
// overrides them. String- and function-kind targets accept no arguments;
// passing any is a halt condition, matching how such tasks reject
// arguments at top level.
//
// Lookup and definition failures return the same typed errors as
// top-level execution, so an optional task can be probed and skipped.
func (c *Context) TaskProxy(name string, args ...string) (*Proxy, error) {
	desc, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	argv := args
	if desc.HasOwnArgs() {
		argv = c.childArgs(args)
	} else if len(args) > 0 {
		return nil, Halt("string- and function-based tasks do not accept arguments")
	}

	return NewProxy(c.registry, c.conf, name, argv, withParent(c))
}

// childArgs prepends the parent's propagated default flags to a class
// child's argv. Prepending keeps them inside the recognized-flag run even
// when args opens with pass-through tokens.
func (c *Context) childArgs(args []string) []string {
	has := func(names ...string) bool {
		for _, a := range args {
			for _, n := range names {
				if a == n || strings.HasPrefix(a, n+"=") {
					return true
				}
			}
		}
		return false
	}

	var extra []string
	if !has("-v", "--verbosity") {
		extra = append(extra, "--verbosity", strconv.Itoa(c.Verbosity))
	}
	if c.stdoutPath != "" && !has("--stdout") {
		extra = append(extra, "--stdout", c.stdoutPath)
	}
	if c.stderrPath != "" && !has("--stderr") {
		extra = append(extra, "--stderr", c.stderrPath)
	}
	if c.NoColor && !has("--no-color") {
		extra = append(extra, "--no-color")
	}
	return append(extra, args...)
}

// Confirm asks a yes/no question through the injected confirmer.
// Without one, the answer is always no.
func (c *Context) Confirm(prompt string) bool {
	if c.confirmer == nil {
		return false
	}
	return c.confirmer.Confirm(prompt)
}

// LongInput collects multi-line text through the injected collaborator,
// by default an editor session seeded with initial.
func (c *Context) LongInput(initial string) (string, error) {
	if c.longInput == nil {
		return initial, nil
	}
	return c.longInput.LongInput(initial)
}

// Logger returns the diagnostics logger, leveled from the invocation's
// verbosity. Diagnostics are separate from task output and never write
// to the output proxies.
func (c *Context) Logger() *log.Logger {
	return c.logger
}

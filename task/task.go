package task

import "github.com/spf13/pflag"

// Handler is the entry point a class-kind task implements. A fresh
// instance is constructed for every invocation, so handlers may keep
// per-run state in their fields.
type Handler interface {
	Handle(ctx *Context) error
}

// ArgAdder lets a class-kind task declare custom flags. The flag set is
// merged with the default flags before parsing; a name or shorthand
// clashing with a default flag is a definition error.
type ArgAdder interface {
	AddArguments(fs *pflag.FlagSet)
}

// Helper supplies the help text shown by --help and the task listing.
type Helper interface {
	Help() string
}

// Func is the function-kind task shape. A returned non-empty string is
// executed as a shell command with the pass-through tail appended.
type Func func(ctx *Context) (string, error)

// Described attaches help text to a definition that cannot carry its own,
// such as a command string or a function.
type Described struct {
	Task any
	Help string
}

// Result is the outcome of one invocation: a task run, or a single
// subprocess call made through Context.Run. Stdout and Stderr are only
// populated for captured subprocess calls.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

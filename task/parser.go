package task

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Default flag names, reserved across all task kinds.
const (
	flagHelp      = "help"
	flagStdout    = "stdout"
	flagStderr    = "stderr"
	flagNoColor   = "no-color"
	flagVerbosity = "verbosity"
)

// options holds the parsed default flags of one invocation.
type options struct {
	help       bool
	verbosity  int
	stdoutPath string
	stderrPath string
	noColor    bool
}

// buildFlagSet assembles the flag grammar for one invocation: the
// default flags for the task's kind, plus the custom flags a class task
// declares through ArgAdder. inst is the instance that will handle this
// invocation; it is nil for non-class kinds.
//
// A custom flag reusing a default flag's name or shorthand is a
// DefinitionError: the collision is a project misconfiguration, not a
// user mistake, so it must never surface as a parse failure.
func buildFlagSet(d *Descriptor, inst Handler) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(d.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // parse errors are returned, not printed
	fs.SortFlags = false

	fs.BoolP(flagHelp, "h", false, "Show this help message and exit")
	fs.String(flagStdout, "", "Redirect general output to the given file")
	fs.String(flagStderr, "", "Redirect error output to the given file")
	fs.Bool(flagNoColor, false, "Disable styled terminal output")
	if d.Kind != KindString {
		fs.IntP(flagVerbosity, "v", 1, "Verbosity level: 0 to 3")
	}

	if d.Kind != KindClass {
		return fs, nil
	}

	adder, ok := inst.(ArgAdder)
	if !ok {
		return fs, nil
	}

	custom := pflag.NewFlagSet(d.Name, pflag.ContinueOnError)
	custom.SortFlags = false
	adder.AddArguments(custom)

	var conflict error
	custom.VisitAll(func(f *pflag.Flag) {
		if conflict != nil {
			return
		}
		if fs.Lookup(f.Name) != nil {
			conflict = definitionf("task %q: custom flag --%s conflicts with a default flag", d.Name, f.Name)
			return
		}
		if f.Shorthand != "" && fs.ShorthandLookup(f.Shorthand) != nil {
			conflict = definitionf("task %q: custom shorthand -%s conflicts with a default flag", d.Name, f.Shorthand)
			return
		}
		fs.AddFlag(f)
	})
	if conflict != nil {
		return nil, conflict
	}
	return fs, nil
}

// splitArgs separates argv into the leading run of recognized flags and
// the opaque pass-through tail. Recognition stops at the first token that
// is not a known flag (or a known flag's value); that token and
// everything after it form the tail, verbatim and in order. A bare "--"
// also stops recognition without joining the tail.
func splitArgs(fs *pflag.FlagSet, argv []string) (recognized, tail []string) {
	i := 0
	for i < len(argv) {
		tok := argv[i]

		if tok == "--" {
			return recognized, argv[i+1:]
		}

		if strings.HasPrefix(tok, "--") {
			name := strings.TrimPrefix(tok, "--")
			name, _, hasEq := strings.Cut(name, "=")
			f := fs.Lookup(name)
			if f == nil {
				break
			}
			recognized = append(recognized, tok)
			i++
			if !hasEq && f.NoOptDefVal == "" && i < len(argv) {
				recognized = append(recognized, argv[i])
				i++
			}
			continue
		}

		if strings.HasPrefix(tok, "-") && len(tok) > 1 {
			consumed, ok := scanShorthands(fs, tok)
			if !ok {
				break
			}
			recognized = append(recognized, tok)
			i++
			if consumed && i < len(argv) {
				recognized = append(recognized, argv[i])
				i++
			}
			continue
		}

		break
	}
	return recognized, argv[i:]
}

// scanShorthands validates a single-dash token as a cluster of known
// shorthands. It reports whether the last shorthand still needs a value
// from the next token. Any unknown character disqualifies the whole
// token, which then starts the tail.
func scanShorthands(fs *pflag.FlagSet, tok string) (consumesNext, ok bool) {
	body := tok[1:]
	for j := 0; j < len(body); j++ {
		f := fs.ShorthandLookup(string(body[j]))
		if f == nil {
			return false, false
		}
		if f.NoOptDefVal != "" {
			// Boolean-like shorthand; further characters may follow.
			continue
		}
		// Value-taking shorthand: the value is attached ("-v2", "-v=2")
		// or comes from the next token.
		return j == len(body)-1, true
	}
	return false, true
}

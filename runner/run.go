// Package runner wires a task registry, project settings, and terminal
// streams into a command-line entrypoint with semantic exit codes.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gofer/input"
	"gofer/output"
	"gofer/settings"
	"gofer/task"
)

// Config describes one runner invocation. Zero-valued fields fall back to
// the process environment, so tests can substitute every boundary while
// main() passes only Prog, Version, and Registry.
type Config struct {
	Prog     string
	Version  string
	Registry *task.Registry

	// Dir is where config discovery starts. Defaults to the process
	// working directory.
	Dir string

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	Confirmer input.Confirmer
	LongInput input.LongInputter
	Logger    *log.Logger
}

func (c *Config) normalize() {
	if c.Prog == "" {
		c.Prog = "gofer"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Registry == nil {
		c.Registry = task.NewRegistry()
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Confirmer == nil {
		c.Confirmer = input.NewConfirmer(c.Stdin, c.Stdout)
	}
	if c.LongInput == nil {
		c.LongInput = &input.Editor{}
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(c.Stderr, log.Options{ReportTimestamp: false})
	}
}

// Run executes one invocation and returns the process exit code. argv is
// the argument slice excluding the program name. Without arguments it
// prints the task listing; otherwise argv[0] names the task and the rest
// is handed to the task's own parser untouched.
func Run(cfg Config, argv []string) int {
	cfg.normalize()

	root := newRootCommand(&cfg)
	root.SetArgs(argv)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)
	root.SetIn(cfg.Stdin)

	err := root.Execute()
	if err != nil {
		report(&cfg, err)
	}
	return ExitCode(err)
}

func newRootCommand(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:     fmt.Sprintf("%s [task] [arguments]", cfg.Prog),
		Short:   "Run project tasks defined alongside your code",
		Version: cfg.Version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listTasks(cfg)
			}
			return dispatch(cfg, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Everything after the task name belongs to the task's parser, so the
	// root command must not claim flags past the first positional.
	root.Flags().SetInterspersed(false)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &task.UsageError{Msg: fmt.Sprintf("%s: %v", cfg.Prog, err), Usage: cmd.UsageString()}
	})
	return root
}

// listTasks prints the registered task names with the first line of each
// task's help text. Command-backed tasks and code-backed tasks are styled
// differently so the listing shows what kind of definition backs a name.
func listTasks(cfg *Config) error {
	styler := output.NewStyler(output.Enabled(cfg.Stdout, false))
	out := output.New(cfg.Stdout, styler)

	names := cfg.Registry.Names()
	if len(names) == 0 {
		out.Print("No tasks defined.")
		return nil
	}

	out.Print("Available tasks:", output.Style(output.Label))
	out.Print("")
	for _, name := range names {
		desc, err := cfg.Registry.Lookup(name)
		if err != nil {
			continue
		}
		helpStyle := output.Info
		if desc.Kind == task.KindString {
			helpStyle = output.Success
		}
		out.Print(fmt.Sprintf("%s: %s",
			styler.Apply(output.Heading, name),
			styler.Apply(helpStyle, firstLine(desc.Help())),
		))
		if desc.HasOwnArgs() {
			out.Print(fmt.Sprintf("    See \"%s %s --help\" for usage details", cfg.Prog, name))
		}
	}
	return nil
}

func dispatch(cfg *Config, argv []string) error {
	conf, err := settings.Load(cfg.Dir)
	if err != nil {
		return err
	}

	proxy, err := task.NewProxy(cfg.Registry, conf, argv[0], argv[1:],
		task.WithProg(cfg.Prog),
		task.WithStdout(cfg.Stdout),
		task.WithStderr(cfg.Stderr),
		task.WithStdin(cfg.Stdin),
		task.WithConfirmer(cfg.Confirmer),
		task.WithLongInput(cfg.LongInput),
		task.WithLogger(cfg.Logger),
	)
	if err != nil {
		return err
	}

	res, err := proxy.Execute()
	if err != nil {
		return err
	}
	if res.Code != 0 {
		// The task already reported its own failure on its streams; carry
		// only the exit code out.
		return &InvocationError{ExitCode: res.Code}
	}
	return nil
}

// report prints err to stderr. Expected failures are styled through the
// output proxy; anything else is an internal fault and gets its full
// unstyled diagnostic.
func report(cfg *Config, err error) {
	styler := output.NewStyler(output.Enabled(cfg.Stderr, false))
	errOut := output.NewError(cfg.Stderr, styler)

	var invErr *InvocationError
	var notFound *task.NotFoundError
	var usage *task.UsageError
	var def *task.DefinitionError
	switch {
	case errors.As(err, &invErr):
		if invErr.Message != "" {
			errOut.Print(invErr.Message)
		}
	case errors.As(err, &notFound):
		errOut.Print(fmt.Sprintf("Unknown task %q.", notFound.Name))
		errOut.Print(fmt.Sprintf("Run %s without arguments to see available tasks.", cfg.Prog), output.Style(""))
	case errors.As(err, &usage):
		errOut.Print(usage.Msg)
		if usage.Usage != "" {
			errOut.Print(usage.Usage, output.Style(""))
		}
	case errors.As(err, &def):
		errOut.Print(err.Error())
	default:
		fmt.Fprintln(cfg.Stderr, err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

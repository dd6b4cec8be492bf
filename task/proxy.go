package task

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"gofer/input"
	"gofer/output"
	"gofer/settings"
)

// A ProxyOption adjusts how a Proxy is wired. The defaults target the
// real process streams and interactive collaborators; tests and nested
// invocations substitute their own.
type ProxyOption func(*proxyConfig)

type proxyConfig struct {
	prog      string
	stdout    io.Writer
	stderr    io.Writer
	stdin     io.Reader
	confirmer input.Confirmer
	longInput input.LongInputter
	logger    *log.Logger
	parent    *Context
}

// WithProg sets the program name used in usage and help output.
func WithProg(prog string) ProxyOption {
	return func(c *proxyConfig) { c.prog = prog }
}

// WithStdout sets the destination for general output.
func WithStdout(w io.Writer) ProxyOption {
	return func(c *proxyConfig) { c.stdout = w }
}

// WithStderr sets the destination for error output.
func WithStderr(w io.Writer) ProxyOption {
	return func(c *proxyConfig) { c.stderr = w }
}

// WithStdin sets the input stream handed to direct-mode subprocesses.
func WithStdin(r io.Reader) ProxyOption {
	return func(c *proxyConfig) { c.stdin = r }
}

// WithConfirmer sets the yes/no confirmation collaborator.
func WithConfirmer(conf input.Confirmer) ProxyOption {
	return func(c *proxyConfig) { c.confirmer = conf }
}

// WithLongInput sets the long-form input collaborator.
func WithLongInput(l input.LongInputter) ProxyOption {
	return func(c *proxyConfig) { c.longInput = l }
}

// WithLogger sets the diagnostics logger. Its level is adjusted to the
// invocation's parsed verbosity.
func WithLogger(l *log.Logger) ProxyOption {
	return func(c *proxyConfig) { c.logger = l }
}

// withParent marks a nested invocation: unset wiring is inherited from
// the parent context and redirect files open in append mode so the
// parent's earlier writes survive.
func withParent(ctx *Context) ProxyOption {
	return func(c *proxyConfig) { c.parent = ctx }
}

// Proxy drives a single task invocation: one resolved descriptor, one
// parsed argv, one execution.
type Proxy struct {
	// Name is the invoked task's name.
	Name string

	desc         *Descriptor
	reg          *Registry
	conf         *settings.Settings
	inst         Handler
	fs           *pflag.FlagSet
	opts         options
	tail         []string
	taskSettings *settings.Map
	cfg          proxyConfig
	logger       *log.Logger
}

// NewProxy resolves name against the registry, builds the task's flag
// grammar, parses argv into options plus pass-through tail, and resolves
// the task's settings. Errors are typed: NotFoundError for an unknown
// name, DefinitionError for a broken entry, UsageError for argv that
// does not parse.
func NewProxy(reg *Registry, conf *settings.Settings, name string, argv []string, opts ...ProxyOption) (*Proxy, error) {
	var cfg proxyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if parent := cfg.parent; parent != nil {
		if cfg.stdout == nil {
			cfg.stdout = parent.Stdout.Unwrap()
		}
		if cfg.stderr == nil {
			cfg.stderr = parent.Stderr.Unwrap()
		}
		if cfg.stdin == nil {
			cfg.stdin = parent.stdin
		}
		if cfg.confirmer == nil {
			cfg.confirmer = parent.confirmer
		}
		if cfg.longInput == nil {
			cfg.longInput = parent.longInput
		}
		if cfg.logger == nil {
			cfg.logger = parent.logger
		}
		if cfg.prog == "" {
			cfg.prog = parent.prog
		}
	}
	if cfg.prog == "" {
		cfg.prog = "gofer"
	}
	if cfg.stdout == nil {
		cfg.stdout = os.Stdout
	}
	if cfg.stderr == nil {
		cfg.stderr = os.Stderr
	}
	if cfg.stdin == nil {
		cfg.stdin = os.Stdin
	}
	if cfg.logger == nil {
		cfg.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	}
	if conf == nil {
		conf = &settings.Settings{}
	}

	desc, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	var inst Handler
	if desc.Kind == KindClass {
		inst = desc.newHandler()
	}

	fs, err := buildFlagSet(desc, inst)
	if err != nil {
		return nil, err
	}

	recognized, tail := splitArgs(fs, argv)
	if err := fs.Parse(recognized); err != nil {
		return nil, &UsageError{
			Msg:   fmt.Sprintf("%s %s: %v", cfg.prog, name, err),
			Usage: usageText(cfg.prog, desc, fs),
		}
	}

	var opt options
	opt.help, _ = fs.GetBool(flagHelp)
	opt.stdoutPath, _ = fs.GetString(flagStdout)
	opt.stderrPath, _ = fs.GetString(flagStderr)
	opt.noColor, _ = fs.GetBool(flagNoColor)
	opt.verbosity = 1
	if desc.Kind != KindString {
		opt.verbosity, _ = fs.GetInt(flagVerbosity)
		if opt.verbosity < 0 || opt.verbosity > 3 {
			return nil, &UsageError{
				Msg:   fmt.Sprintf("%s %s: invalid verbosity %d: expected 0 to 3", cfg.prog, name, opt.verbosity),
				Usage: usageText(cfg.prog, desc, fs),
			}
		}
	}

	logger := cfg.logger
	logger.SetLevel(levelFor(opt.verbosity))
	logger.Debug("task resolved", "task", name, "kind", desc.Kind.String(), "tail", len(tail))

	return &Proxy{
		Name:         name,
		desc:         desc,
		reg:          reg,
		conf:         conf,
		inst:         inst,
		fs:           fs,
		opts:         opt,
		tail:         tail,
		taskSettings: conf.Resolve(name),
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Descriptor returns the classified view of the task being invoked.
func (p *Proxy) Descriptor() *Descriptor {
	return p.desc
}

// Execute runs the invocation and returns its result.
//
// This is the halt boundary: a HaltError from task logic is written to
// the stderr proxy in the error style and becomes result code 1 with a
// nil error, whether the proxy is top-level or nested. All other errors
// propagate untouched. Redirect files are closed on every exit path.
func (p *Proxy) Execute() (*Result, error) {
	ctx, closers, err := p.buildContext()
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if p.opts.help {
		p.printHelp(ctx)
		return &Result{}, nil
	}

	res, err := p.dispatch(ctx)
	if err != nil {
		var halt *HaltError
		if errors.As(err, &halt) {
			ctx.Stderr.Print(halt.Message)
			return &Result{Code: 1}, nil
		}
		return nil, err
	}
	return res, nil
}

// buildContext opens redirect files, decides styling per stream, layers
// the project .env onto the subprocess environment, and assembles the
// Context.
func (p *Proxy) buildContext() (*Context, []io.Closer, error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	stdoutW := p.cfg.stdout
	if p.opts.stdoutPath != "" {
		f, err := p.openRedirect(p.opts.stdoutPath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, f)
		stdoutW = f
	}

	stderrW := p.cfg.stderr
	if p.opts.stderrPath != "" {
		f, err := p.openRedirect(p.opts.stderrPath)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, f)
		stderrW = f
	}

	env, err := p.loadEnv()
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	outStyler := output.NewStyler(output.Enabled(stdoutW, p.opts.noColor))
	errStyler := output.NewStyler(output.Enabled(stderrW, p.opts.noColor))

	ctx := &Context{
		Name:       p.Name,
		Settings:   p.taskSettings,
		Flags:      p.fs,
		Tail:       p.tail,
		Stdout:     output.New(stdoutW, outStyler),
		Stderr:     output.NewError(stderrW, errStyler),
		Styler:     outStyler,
		Dir:        p.conf.Dir(),
		Verbosity:  p.opts.verbosity,
		NoColor:    p.opts.noColor,
		registry:   p.reg,
		conf:       p.conf,
		env:        env,
		stdin:      p.cfg.stdin,
		stdoutPath: p.opts.stdoutPath,
		stderrPath: p.opts.stderrPath,
		confirmer:  p.cfg.confirmer,
		longInput:  p.cfg.longInput,
		logger:     p.logger.With("task", p.Name),
		prog:       p.cfg.prog,
	}
	return ctx, closers, nil
}

// openRedirect opens a --stdout/--stderr target. Top-level invocations
// truncate; nested ones append, so a child task extends rather than
// clobbers what its parent already wrote.
func (p *Proxy) openRedirect(path string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if p.cfg.parent != nil {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, &UsageError{Msg: fmt.Sprintf("%s %s: cannot open %q: %v", p.cfg.prog, p.Name, path, err)}
	}
	return f, nil
}

// loadEnv layers the project's .env file, if any, onto the inherited
// environment for subprocesses. The parent process environment is never
// modified.
func (p *Proxy) loadEnv() ([]string, error) {
	path := filepath.Join(p.conf.Dir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return os.Environ(), nil
	}

	overlay, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return buildEnv(os.Environ(), overlay), nil
}

// dispatch is the kind switch. Non-zero exit statuses from command-backed
// kinds are mirrored into the result; class handlers report failure only
// through errors.
func (p *Proxy) dispatch(ctx *Context) (*Result, error) {
	switch p.desc.Kind {
	case KindString:
		// Pass-through tail is deliberately ignored: command tasks
		// accept no forwarding.
		return ctx.Run(p.desc.Command, false)

	case KindFunction:
		command, err := p.desc.fn(ctx)
		if err != nil {
			return nil, err
		}
		if command == "" {
			return &Result{}, nil
		}
		if len(p.tail) > 0 {
			command += " " + ShellJoin(p.tail)
		}
		return ctx.Run(command, false)

	default:
		if err := p.inst.Handle(ctx); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}
}

func (p *Proxy) printHelp(ctx *Context) {
	out := ctx.Stdout
	out.Printf("Usage: %s %s [options] [args ...]", p.cfg.prog, p.Name)

	switch {
	case p.desc.Kind == KindString:
		out.Print("")
		out.Print("Executes the following task on the command line:")
		out.Print("    " + p.desc.Command)
	case p.desc.Help() != "":
		out.Print("")
		out.Print(p.desc.Help())
	}

	out.Print("")
	out.Print("Options:")
	out.Print(strings.TrimRight(p.fs.FlagUsages(), "\n"))
}

func usageText(prog string, d *Descriptor, fs *pflag.FlagSet) string {
	return fmt.Sprintf("Usage: %s %s [options] [args ...]\n\nOptions:\n%s",
		prog, d.Name, strings.TrimRight(fs.FlagUsages(), "\n"))
}

func levelFor(verbosity int) log.Level {
	switch verbosity {
	case 0:
		return log.ErrorLevel
	case 1:
		return log.WarnLevel
	case 2:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

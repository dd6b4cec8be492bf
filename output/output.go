// Package output provides styled writer proxies for task output.
//
// A task writes user-facing text through an Output proxy rather than a raw
// stream. The proxy applies a named style from a fixed palette and a line
// ending, and degrades to plain text when styling is disabled (--no-color,
// NO_COLOR, a dumb terminal, or a non-terminal destination such as a
// redirect file).
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Style names recognized by the palette.
const (
	Success = "success"
	Error   = "error"
	Warning = "warning"
	Info    = "info"
	Debug   = "debug"
	Heading = "heading"
	Label   = "label"
)

// Enabled reports whether styled output should be produced for w.
//
// Styling is off when noColor is set, when the NO_COLOR convention is in
// effect, when TERM is dumb, or when w is not a terminal.
func Enabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styler renders text in one of the palette styles.
//
// The color profile is fixed at construction rather than re-detected per
// render, so a Styler behaves identically whatever the process's real
// stdout is. Terminal detection belongs to Enabled.
type Styler struct {
	enabled bool
	styles  map[string]lipgloss.Style
}

// NewStyler returns a Styler that renders ANSI styles when enabled is true
// and passes text through untouched otherwise.
func NewStyler(enabled bool) *Styler {
	r := lipgloss.NewRenderer(io.Discard)
	if enabled {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	bold := r.NewStyle().Bold(true)
	return &Styler{
		enabled: enabled,
		styles: map[string]lipgloss.Style{
			Success: bold.Foreground(lipgloss.Color("2")),
			Error:   bold.Foreground(lipgloss.Color("1")),
			Warning: bold.Foreground(lipgloss.Color("3")),
			Info:    bold,
			Debug:   bold.Foreground(lipgloss.Color("5")),
			Heading: bold.Foreground(lipgloss.Color("6")),
			Label:   bold,
		},
	}
}

// Enabled reports whether this Styler produces ANSI sequences.
func (s *Styler) Enabled() bool {
	return s.enabled
}

// Apply renders text in the named style. Unknown style names render plain.
func (s *Styler) Apply(style, text string) string {
	st, ok := s.styles[style]
	if !ok {
		return text
	}
	return st.Render(text)
}

// A WriteOption adjusts a single Print call.
type WriteOption func(*writeConfig)

type writeConfig struct {
	style  string
	ending string
}

// Style selects the palette style for one write. An empty name suppresses
// the proxy's default style.
func Style(name string) WriteOption {
	return func(c *writeConfig) { c.style = name }
}

// Ending overrides the trailing string appended to one write.
// The default is a single newline.
func Ending(s string) WriteOption {
	return func(c *writeConfig) { c.ending = s }
}

// Output proxies a destination writer, adding palette styling and line
// endings. It also satisfies io.Writer with a raw pass-through so
// subprocess output can stream into the same destination.
type Output struct {
	w            io.Writer
	styler       *Styler
	defaultStyle string
}

// New returns an Output writing to w with no default style.
func New(w io.Writer, styler *Styler) *Output {
	return &Output{w: w, styler: styler}
}

// NewError returns an Output writing to w whose writes default to the
// error style, the convention for stderr proxies.
func NewError(w io.Writer, styler *Styler) *Output {
	return &Output{w: w, styler: styler, defaultStyle: Error}
}

// Styler returns the styler backing this proxy.
func (o *Output) Styler() *Styler {
	return o.styler
}

// Unwrap returns the destination writer. Subprocesses connect here
// directly so their output is never re-styled or re-buffered.
func (o *Output) Unwrap() io.Writer {
	return o.w
}

// Write passes p through to the destination unchanged.
func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Print writes msg in the proxy's default style followed by a newline,
// unless overridden by options.
func (o *Output) Print(msg string, opts ...WriteOption) {
	c := writeConfig{style: o.defaultStyle, ending: "\n"}
	for _, opt := range opts {
		opt(&c)
	}
	if c.style != "" {
		msg = o.styler.Apply(c.style, msg)
	}
	fmt.Fprint(o.w, msg+c.ending)
}

// Printf formats and writes in the proxy's default style, newline ended.
func (o *Output) Printf(format string, args ...any) {
	o.Print(fmt.Sprintf(format, args...))
}

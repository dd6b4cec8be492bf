package builtins

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"gofer/output"
	"gofer/task"
)

const defaultMaxFilesize = 1 << 20

// defaultEndingsExcludes skips version control internals, build output,
// and binary formats that legitimately contain carriage returns.
var defaultEndingsExcludes = []string{
	".git", "_build", "node_modules", "vendor",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.pdf", "*.exe", "*.zip", "*.gz",
}

// Lint checks formatting, suspicious constructs, and line endings across
// the project tree. Flags select an explicit subset of steps; without
// flags, every step enabled in the project settings runs.
type Lint struct {
	Fmt     bool
	Vet     bool
	Endings bool

	outcomes []lintOutcome
}

type lintOutcome struct {
	label string
	ok    bool
}

func (t *Lint) AddArguments(fs *pflag.FlagSet) {
	fs.BoolVarP(&t.Fmt, "fmt", "f", false, "Check formatting with gofmt.")
	fs.BoolVarP(&t.Vet, "vet", "t", false, "Run go vet over the project.")
	fs.BoolVarP(&t.Endings, "endings", "e", false, "Find all bad line endings.")
}

func (t *Lint) Help() string {
	return "Lint the project: gofmt formatting, go vet diagnostics, and line endings.\n" +
		"Without flags, all steps enabled in the project settings run. Each step\n" +
		"can be disabled with a false fmt, vet, or endings setting."
}

func (t *Lint) Handle(c *task.Context) error {
	type step struct {
		name     string
		explicit bool
		run      func(*task.Context) error
	}
	steps := []step{
		{"fmt", t.Fmt, t.runFmt},
		{"vet", t.Vet, t.runVet},
		{"endings", t.Endings, t.runEndings},
	}

	var run []step
	for _, s := range steps {
		if s.explicit {
			run = append(run, s)
		}
	}
	if len(run) == 0 {
		for _, s := range steps {
			if c.Settings.GetBool(s.name, true) {
				run = append(run, s)
			}
		}
	}

	for _, s := range run {
		if err := s.run(c); err != nil {
			return err
		}
	}

	if len(t.outcomes) == 0 {
		return nil
	}

	c.Stdout.Print("Summary", output.Style(output.Label))
	failed := false
	for _, o := range t.outcomes {
		verdict := c.Styler.Apply(output.Success, "OK")
		if !o.ok {
			verdict = c.Styler.Apply(output.Error, "FAIL")
			failed = true
		}
		c.Stdout.Print(fmt.Sprintf("%s: %s", o.label, verdict))
	}
	if failed {
		return task.Halt("Linting failed.")
	}
	return nil
}

func (t *Lint) runFmt(c *task.Context) error {
	c.Stdout.Print("Checking formatting...", output.Style(output.Label))

	res, err := c.Run("gofmt -l .", true)
	if err != nil {
		return err
	}
	files := strings.TrimSpace(res.Stdout)
	if files != "" {
		c.Stdout.Print(files)
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		c.Stderr.Print(msg, output.Style(""))
	}

	t.outcomes = append(t.outcomes, lintOutcome{"gofmt", res.Code == 0 && files == ""})
	c.Stdout.Print("")
	return nil
}

func (t *Lint) runVet(c *task.Context) error {
	c.Stdout.Print("Running go vet...", output.Style(output.Label))

	res, err := c.Run("go vet ./...", false)
	if err != nil {
		return err
	}

	t.outcomes = append(t.outcomes, lintOutcome{"go vet", res.Code == 0})
	c.Stdout.Print("")
	return nil
}

func (t *Lint) runEndings(c *task.Context) error {
	c.Stdout.Print("Checking line endings...", output.Style(output.Label))

	excludes := append([]string{}, defaultEndingsExcludes...)
	excludes = append(excludes, c.Settings.GetList("endings_exclude", nil)...)

	good := c.Settings.GetString("endings_style", "LF")
	switch good {
	case "LF", "CRLF", "CR":
	default:
		return task.Haltf("Invalid value for endings_style setting (%s).", good)
	}

	maxSize := c.Settings.GetInt("endings_max_filesize", defaultMaxFilesize)
	if maxSize <= 0 {
		return task.Haltf("Invalid value for endings_max_filesize setting (%d).", maxSize)
	}

	ok := true
	skipped := 0
	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != c.Dir && matchesAny(d.Name(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > int64(maxSize) {
			skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		counts := endingCounts(content)
		for _, kind := range []string{"CRLF", "CR", "LF"} {
			if kind == good || counts[kind] == 0 {
				continue
			}
			rel, relErr := filepath.Rel(c.Dir, path)
			if relErr != nil {
				rel = path
			}
			c.Stdout.Print(fmt.Sprintf("Detected %s: %s", kind, rel))
			ok = false
			break
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan line endings: %w", err)
	}

	if skipped > 0 {
		c.Stdout.Print(fmt.Sprintf("Skipped %d large files", skipped))
	}

	t.outcomes = append(t.outcomes, lintOutcome{"endings", ok})
	c.Stdout.Print("")
	return nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if match, err := filepath.Match(p, name); err == nil && match {
			return true
		}
	}
	return false
}

// endingCounts tallies each line-ending flavour in content. A \r\n pair
// counts once as CRLF, never additionally as CR or LF.
func endingCounts(content []byte) map[string]int {
	counts := make(map[string]int, 3)
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\r':
			if i+1 < len(content) && content[i+1] == '\n' {
				counts["CRLF"]++
				i++
			} else {
				counts["CR"]++
			}
		case '\n':
			counts["LF"]++
		}
	}
	return counts
}

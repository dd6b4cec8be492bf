package builtins

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"gofer/output"
	"gofer/task"
)

// Docs builds the project documentation via the docs directory's make
// targets and prints a link to the built pages.
type Docs struct {
	Full     bool
	LinkOnly bool
}

func (t *Docs) AddArguments(fs *pflag.FlagSet) {
	fs.BoolVarP(&t.Full, "full", "f", false,
		"Remove previously built documentation before rebuilding all pages from scratch.")
	fs.BoolVarP(&t.LinkOnly, "link", "l", false,
		"Output the link to previously built documentation and exit.")
}

func (t *Docs) Help() string {
	return "Build the project documentation."
}

func (t *Docs) Handle(c *task.Context) error {
	docsDir := c.Settings.GetString("dir", "docs")
	if !filepath.IsAbs(docsDir) {
		docsDir = filepath.Join(c.Dir, docsDir)
	}
	if _, err := os.Stat(docsDir); err != nil {
		return task.Haltf("Documentation directory not found at %s.", docsDir)
	}

	showLink := true
	prefix := ""
	if !t.LinkOnly {
		command := "cd " + task.ShellQuote(docsDir)
		if t.Full {
			command += " && make clean"
		}
		command += " && make html"

		res, err := c.Run(command, false)
		if err != nil {
			return err
		}
		showLink = res.Code == 0
		prefix = "\n"
	}

	if showLink {
		index := filepath.Join(docsDir, "_build", "html", "index.html")
		if _, err := os.Stat(index); err == nil {
			c.Stdout.Print(
				fmt.Sprintf("%sGenerated documentation can be viewed at: file://%s", prefix, index),
				output.Style(output.Label),
			)
		} else {
			c.Stdout.Print(
				fmt.Sprintf("%sGenerated documentation not found, expected at: %s", prefix, index),
				output.Style(output.Warning),
			)
		}
	}
	return nil
}

package builtins

import (
	"github.com/spf13/pflag"

	"gofer/task"
)

// Test runs the project test suite. Anything after the task's own options
// is forwarded to the underlying command untouched, so
// "gofer test -- -run TestName ./pkg" works as expected.
type Test struct {
	Coverage bool
}

func (t *Test) AddArguments(fs *pflag.FlagSet) {
	fs.BoolVarP(&t.Coverage, "coverage", "c", false,
		"Collect coverage and write the profile to the coverage_file setting (default coverage.out).")
}

func (t *Test) Help() string {
	return "Run the project test suite.\n" +
		"Arguments after the task's own options are passed through to the test command."
}

func (t *Test) Handle(c *task.Context) error {
	command := c.Settings.GetString("command", "go test")
	if t.Coverage {
		profile := c.Settings.GetString("coverage_file", "coverage.out")
		command += " -cover -coverprofile=" + task.ShellQuote(profile)
	}
	if extra := c.Settings.GetString("args", ""); extra != "" {
		command += " " + extra
	}
	if len(c.Tail) > 0 {
		command += " " + task.ShellJoin(c.Tail)
	} else {
		command += " ./..."
	}

	res, err := c.Run(command, false)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return task.Halt("Tests failed.")
	}
	return nil
}

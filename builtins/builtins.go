// Package builtins provides the stock tasks registered by the default
// gofer command: linting, documentation, tests, releases, and dependency
// updates. A project can shadow any of them by registering its own task
// under the same name.
package builtins

import "gofer/task"

// Registry returns a fresh registry preloaded with the stock tasks.
func Registry() *task.Registry {
	reg := task.NewRegistry()
	reg.MustRegister("lint", &Lint{})
	reg.MustRegister("docs", &Docs{})
	reg.MustRegister("test", &Test{})
	reg.MustRegister("release", &Release{})
	reg.MustRegister("update", &Update{})
	return reg
}

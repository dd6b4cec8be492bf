package runner

import (
	"errors"

	"gofer/task"
)

const (
	ExitSuccess       = 0
	ExitTaskFailure   = 1
	ExitInvalidUsage  = 2
	ExitUnknownTask   = 3
	ExitBadDefinition = 4
)

// InvocationError carries a semantic exit code out of a run. Message may be
// empty when the failure has already been reported on the task's own streams.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ExitCode maps an error returned by Run's dispatch to a process exit code.
// Task definition and usage problems get distinct codes so scripted callers
// can tell them apart from ordinary task failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitTaskFailure
	}
	var notFound *task.NotFoundError
	if errors.As(err, &notFound) {
		return ExitUnknownTask
	}
	var def *task.DefinitionError
	if errors.As(err, &def) {
		return ExitBadDefinition
	}
	var usage *task.UsageError
	if errors.As(err, &usage) {
		return ExitInvalidUsage
	}
	return ExitTaskFailure
}

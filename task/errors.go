package task

import "fmt"

// NotFoundError reports a task name absent from the registry. It is
// distinct from DefinitionError so nested callers can treat an optional
// task as skippable.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// DefinitionError reports a misconfigured registry entry: an invalid or
// duplicate name, an unrecognizable definition shape, or a custom flag
// colliding with a default one. It is never downgraded.
type DefinitionError struct {
	Msg string
}

func (e *DefinitionError) Error() string {
	return e.Msg
}

func definitionf(format string, args ...any) *DefinitionError {
	return &DefinitionError{Msg: fmt.Sprintf(format, args...)}
}

// UsageError reports argv that does not satisfy the task's flag grammar.
// Usage carries the rendered flag table for display after the message.
type UsageError struct {
	Msg   string
	Usage string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// HaltError is the deliberate early-termination signal for task logic.
// It is caught exactly once, at the dispatch boundary of the proxy
// running the task, where its message is styled onto the stderr proxy.
type HaltError struct {
	Message string
}

func (e *HaltError) Error() string {
	return e.Message
}

// Halt returns a HaltError with the given user-facing message.
func Halt(message string) error {
	return &HaltError{Message: message}
}

// Haltf returns a HaltError with a formatted user-facing message.
func Haltf(format string, args ...any) error {
	return &HaltError{Message: fmt.Sprintf(format, args...)}
}

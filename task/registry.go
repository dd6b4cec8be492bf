package task

import "regexp"

// Task names are word characters only, so they can never be confused
// with flags or shell syntax.
var taskNameRE = regexp.MustCompile(`^\w+$`)

// Registry is the project-supplied mapping from task name to definition.
// Definitions are classified eagerly so a bad entry fails at registration
// rather than on first use; the registry is immutable once handed to a
// runner.
type Registry struct {
	names []string
	tasks map[string]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: map[string]*Descriptor{}}
}

// Register classifies def and records it under name. It returns a
// DefinitionError for an invalid or duplicate name, an unclassifiable
// definition, or a class task whose custom flags collide with the
// default flags.
func (r *Registry) Register(name string, def any) error {
	if !taskNameRE.MatchString(name) {
		return definitionf("task name %q is not valid: must contain only alphanumeric characters and the underscore", name)
	}
	if _, exists := r.tasks[name]; exists {
		return definitionf("task %q is already registered", name)
	}

	desc, err := classify(name, def)
	if err != nil {
		return err
	}

	// Surface flag collisions now, not at first invocation.
	if desc.Kind == KindClass {
		if _, err := buildFlagSet(desc, desc.newHandler()); err != nil {
			return err
		}
	}

	r.names = append(r.names, name)
	r.tasks[name] = desc
	return nil
}

// MustRegister is Register for task files assembled at startup, where a
// definition error is a programming mistake.
func (r *Registry) MustRegister(name string, def any) {
	if err := r.Register(name, def); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for name, or a NotFoundError.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	desc, ok := r.tasks[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return desc, nil
}

// Names returns the task names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

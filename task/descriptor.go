package task

import (
	"path"
	"reflect"
	"runtime"
)

// Kind is the closed set of task shapes. Classification assigns exactly
// one at registration time; downstream code switches on it instead of
// re-inspecting the definition value.
type Kind int

const (
	KindString Kind = iota
	KindFunction
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Descriptor is the classified, read-only view of one registry entry.
type Descriptor struct {
	Name string
	Kind Kind

	// Command is the literal shell command of a string-kind task.
	Command string

	fn    Func
	class reflect.Type
	help  string
}

var handlerType = reflect.TypeOf((*Handler)(nil)).Elem()

// classify derives a Descriptor from a raw definition value, or a
// DefinitionError when the value matches no task shape.
func classify(name string, def any) (*Descriptor, error) {
	d := &Descriptor{Name: name}

	if described, ok := def.(Described); ok {
		d.help = described.Help
		def = described.Task
	}

	switch v := def.(type) {
	case string:
		d.Kind = KindString
		d.Command = v
		if d.help == "" {
			d.help = v
		}
		return d, nil

	case Func:
		return classifyFunc(d, v)

	case func(ctx *Context) (string, error):
		return classifyFunc(d, Func(v))
	}

	if def == nil {
		return nil, definitionf("unrecognised definition for task %q: nil", name)
	}

	// Class shape: the value's own type, or its pointer type, implements
	// Handler. Fresh instances are constructed from the type per
	// invocation; the registered value itself is never executed.
	t := reflect.TypeOf(def)
	switch {
	case t.Implements(handlerType):
		d.class = t
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(handlerType):
		d.class = reflect.PointerTo(t)
	default:
		return nil, definitionf("unrecognised definition for task %q: %T is not a command string, task function, or Handler", name, def)
	}

	d.Kind = KindClass
	if d.help == "" {
		if h, ok := def.(Helper); ok {
			d.help = h.Help()
		} else if h, ok := d.newHandler().(Helper); ok {
			// Help defined on the pointer receiver of a value-registered type.
			d.help = h.Help()
		}
	}
	return d, nil
}

func classifyFunc(d *Descriptor, fn Func) (*Descriptor, error) {
	if fn == nil {
		return nil, definitionf("unrecognised definition for task %q: nil function", d.Name)
	}
	d.Kind = KindFunction
	d.fn = fn
	if d.help == "" {
		d.help = funcDescription(fn)
	}
	return d, nil
}

// funcDescription generates fallback help from the function's symbol
// name, e.g. "Runs mypkg.buildDocs()".
func funcDescription(fn Func) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return ""
	}
	return "Runs " + path.Base(f.Name()) + "()"
}

// Help returns the task's help text: explicit (Described or Helper),
// the command itself for string tasks, or a generated description for
// functions.
func (d *Descriptor) Help() string {
	return d.help
}

// HasOwnArgs reports whether the task accepts arguments beyond the
// default flags. Only class-kind tasks do.
func (d *Descriptor) HasOwnArgs() bool {
	return d.Kind == KindClass
}

// newHandler constructs a fresh instance of a class-kind task.
func (d *Descriptor) newHandler() Handler {
	if d.class.Kind() == reflect.Pointer {
		return reflect.New(d.class.Elem()).Interface().(Handler)
	}
	return reflect.New(d.class).Elem().Interface().(Handler)
}

package task

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clashingNameTask struct{}

func (*clashingNameTask) Handle(c *Context) error { return nil }
func (*clashingNameTask) AddArguments(fs *pflag.FlagSet) {
	fs.Bool("stdout", false, "Clashes with a default flag name.")
}

type clashingShorthandTask struct{}

func (*clashingShorthandTask) Handle(c *Context) error { return nil }
func (*clashingShorthandTask) AddArguments(fs *pflag.FlagSet) {
	fs.BoolP("quick", "v", false, "Clashes with the verbosity shorthand.")
}

func TestRegistryRegister(t *testing.T) {
	t.Run("Should keep registration order", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("zeta", "true"))
		require.NoError(t, reg.Register("alpha", "true"))
		require.NoError(t, reg.Register("mid_9", "true"))
		assert.Equal(t, []string{"zeta", "alpha", "mid_9"}, reg.Names())
	})

	t.Run("Should reject invalid names", func(t *testing.T) {
		reg := NewRegistry()
		for _, name := range []string{"bad-name", "with space", "", "no.dots"} {
			err := reg.Register(name, "true")
			var def *DefinitionError
			require.ErrorAs(t, err, &def, "name %q", name)
		}
	})

	t.Run("Should reject duplicate names", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("build", "make"))
		err := reg.Register("build", "make again")
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
		assert.Contains(t, def.Msg, "already registered")
	})

	t.Run("Should reject unclassifiable definitions", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register("bad", 3.14)
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
	})

	t.Run("Should reject custom flags that reuse a default name", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register("clash", &clashingNameTask{})
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
		assert.Contains(t, def.Msg, "--stdout")
	})

	t.Run("Should reject custom shorthands that reuse a default one", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register("clash", &clashingShorthandTask{})
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
		assert.Contains(t, def.Msg, "-v")
	})
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("build", "make"))

	t.Run("Should find registered tasks", func(t *testing.T) {
		d, err := reg.Lookup("build")
		require.NoError(t, err)
		assert.Equal(t, "build", d.Name)
		assert.Equal(t, KindString, d.Kind)
	})

	t.Run("Should type unknown names as NotFoundError", func(t *testing.T) {
		_, err := reg.Lookup("missing")
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.Name)
	})
}

func TestRegistryNamesIsACopy(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("one", "true"))

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"one"}, reg.Names())
}

func TestMustRegisterPanics(t *testing.T) {
	reg := NewRegistry()
	require.Panics(t, func() { reg.MustRegister("bad name", "true") })
}

package task

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bareHandler struct{}

func (bareHandler) Handle(c *Context) error { return nil }

type helpfulHandler struct{}

func (*helpfulHandler) Handle(c *Context) error { return nil }
func (*helpfulHandler) Help() string            { return "Built-in help." }

func sampleFunc(ctx *Context) (string, error) { return "", nil }

func TestClassify(t *testing.T) {
	t.Run("Should classify a command string", func(t *testing.T) {
		d, err := classify("build", "make build")
		require.NoError(t, err)
		assert.Equal(t, KindString, d.Kind)
		assert.Equal(t, "make build", d.Command)
		assert.Equal(t, "make build", d.Help())
		assert.False(t, d.HasOwnArgs())
	})

	t.Run("Should prefer described help over the command itself", func(t *testing.T) {
		d, err := classify("build", Described{Task: "make build", Help: "Builds the project."})
		require.NoError(t, err)
		assert.Equal(t, KindString, d.Kind)
		assert.Equal(t, "make build", d.Command)
		assert.Equal(t, "Builds the project.", d.Help())
	})

	t.Run("Should classify a task function with generated help", func(t *testing.T) {
		d, err := classify("gen", sampleFunc)
		require.NoError(t, err)
		assert.Equal(t, KindFunction, d.Kind)
		assert.True(t, strings.HasPrefix(d.Help(), "Runs "), "got %q", d.Help())
		assert.True(t, strings.HasSuffix(d.Help(), "()"), "got %q", d.Help())
		assert.False(t, d.HasOwnArgs())
	})

	t.Run("Should classify an explicit Func value", func(t *testing.T) {
		d, err := classify("gen", Func(sampleFunc))
		require.NoError(t, err)
		assert.Equal(t, KindFunction, d.Kind)
	})

	t.Run("Should classify a pointer handler", func(t *testing.T) {
		d, err := classify("noop", &helpfulHandler{})
		require.NoError(t, err)
		assert.Equal(t, KindClass, d.Kind)
		assert.True(t, d.HasOwnArgs())
		assert.Equal(t, "Built-in help.", d.Help())
	})

	t.Run("Should classify a value whose pointer type implements Handler", func(t *testing.T) {
		d, err := classify("noop", helpfulHandler{})
		require.NoError(t, err)
		assert.Equal(t, KindClass, d.Kind)
		assert.Equal(t, "Built-in help.", d.Help())
	})

	t.Run("Should classify a value receiver handler without help", func(t *testing.T) {
		d, err := classify("noop", bareHandler{})
		require.NoError(t, err)
		assert.Equal(t, KindClass, d.Kind)
		assert.Equal(t, "", d.Help())
	})

	t.Run("Should reject nil", func(t *testing.T) {
		_, err := classify("bad", nil)
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
	})

	t.Run("Should reject a nil function", func(t *testing.T) {
		_, err := classify("bad", Func(nil))
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
	})

	t.Run("Should name the offending type for unsupported shapes", func(t *testing.T) {
		_, err := classify("bad", 42)
		var def *DefinitionError
		require.ErrorAs(t, err, &def)
		assert.Contains(t, def.Msg, "int")
		assert.Contains(t, def.Msg, `"bad"`)
	})
}

func TestNewHandlerBuildsFreshInstances(t *testing.T) {
	d, err := classify("noop", &helpfulHandler{})
	require.NoError(t, err)

	first := d.newHandler()
	second := d.newHandler()
	require.NotSame(t, first, second)
}

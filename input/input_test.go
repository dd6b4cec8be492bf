package input

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	ask := func(answer string) (bool, string) {
		var out bytes.Buffer
		c := NewConfirmer(strings.NewReader(answer), &out)
		return c.Confirm("Proceed"), out.String()
	}

	t.Run("Should accept y and yes in any case", func(t *testing.T) {
		for _, answer := range []string{"y\n", "Y\n", "yes\n", "YES\n", " y \n"} {
			ok, _ := ask(answer)
			assert.True(t, ok, "answer %q", answer)
		}
	})

	t.Run("Should default to no", func(t *testing.T) {
		for _, answer := range []string{"\n", "n\n", "nope\n", "yep\n", ""} {
			ok, _ := ask(answer)
			assert.False(t, ok, "answer %q", answer)
		}
	})

	t.Run("Should print the prompt with the answer hint", func(t *testing.T) {
		_, prompt := ask("y\n")
		assert.Equal(t, "Proceed (Y/n)? ", prompt)
	})

	t.Run("Should keep its place across consecutive questions", func(t *testing.T) {
		var out bytes.Buffer
		c := NewConfirmer(strings.NewReader("y\nn\ny\n"), &out)
		assert.True(t, c.Confirm("first"))
		assert.False(t, c.Confirm("second"))
		assert.True(t, c.Confirm("third"))
	})
}

func TestEditorLongInput(t *testing.T) {
	t.Run("Should return the edited file content", func(t *testing.T) {
		e := &Editor{Command: `sh -c 'printf "edited text\n" > "$0"'`}
		got, err := e.LongInput("seed")
		require.NoError(t, err)
		assert.Equal(t, "edited text", got)
	})

	t.Run("Should seed the file with the initial text", func(t *testing.T) {
		e := &Editor{Command: "true"}
		got, err := e.LongInput("keep me\nboth lines\n")
		require.NoError(t, err)
		assert.Equal(t, "keep me\nboth lines", got)
	})

	t.Run("Should report a failing editor", func(t *testing.T) {
		e := &Editor{Command: "false"}
		_, err := e.LongInput("")
		assert.Error(t, err)
	})

	t.Run("Should report an unparseable editor command", func(t *testing.T) {
		e := &Editor{Command: `sh -c "unterminated`}
		_, err := e.LongInput("")
		assert.Error(t, err)
	})
}

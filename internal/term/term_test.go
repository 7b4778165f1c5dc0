package term

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal(t *testing.T) {
	t.Run("buffer is not a terminal", func(t *testing.T) {
		assert.False(t, IsTerminal(&bytes.Buffer{}))
	})

	t.Run("regular file is not a terminal", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })
		assert.False(t, IsTerminal(f))
	})
}

func TestColorEnabled(t *testing.T) {
	t.Run("no color for buffers", func(t *testing.T) {
		assert.False(t, ColorEnabled(&bytes.Buffer{}))
	})

	t.Run("NO_COLOR wins", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.False(t, ColorEnabled(os.Stdout))
	})
}

func TestWritable(t *testing.T) {
	assert.False(t, Writable(nil))
	assert.True(t, Writable(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	assert.True(t, Writable(f))
	require.NoError(t, f.Close())
	assert.False(t, Writable(f))
}

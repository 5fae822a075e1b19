package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() {
		version = original
		versionShort = false
	}()

	t.Run("full", func(t *testing.T) {
		out, err := run(t, "version")

		require.NoError(t, err)
		assert.Contains(t, out, "llmli version 1.2.3\n")
		assert.Contains(t, out, runtime.Version())
		assert.Contains(t, out, "mcp: 0.1.0")
	})

	t.Run("short", func(t *testing.T) {
		out, err := run(t, "version", "--short")

		require.NoError(t, err)
		assert.Equal(t, "llmli version 1.2.3\n", out)
	})
}

func TestVersionCmd_SkipsServices(t *testing.T) {
	// No factory and no services: version must still run.
	out, err := run(t, "version", "--short")

	require.NoError(t, err)
	assert.Contains(t, out, "llmli version")
}

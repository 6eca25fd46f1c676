package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPurgeCache(t *testing.T) {
	t.Run("EmptyCache", func(t *testing.T) {
		t.Setenv("CACHE_DIR", t.TempDir())
		t.Setenv("LOG_LEVEL", "error")

		var buf bytes.Buffer
		err := RunPurgeCache(context.Background(), &buf)

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Removed 0 expired cache entries")
	})

	t.Run("InvalidConfiguration", func(t *testing.T) {
		t.Setenv("CACHE_DIR", t.TempDir())
		t.Setenv("AUTH_METHOD", "kerberos")

		var buf bytes.Buffer
		err := RunPurgeCache(context.Background(), &buf)

		assert.Error(t, err)
	})
}

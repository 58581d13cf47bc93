package adapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeTLSConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("MissingCA", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(
			filepath.Join(dir, "ca.pem"),
			filepath.Join(dir, "cert.pem"),
			filepath.Join(dir, "key.pem"),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidCA", func(t *testing.T) {
		ca := filepath.Join(dir, "bad-ca.pem")
		require.NoError(t, os.WriteFile(ca, []byte("not a certificate"), 0o600))

		_, err := adapter.MakeTLSConfig(ca, "", "")
		assert.ErrorContains(t, err, "failed to parse CA certificate")
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://www.googleapis.com/calendar/v3", cfg.Google.ApiBaseUrl)
		assert.Equal(t, "Google APIs Explorer", cfg.Google.ClientHeader)
		assert.Equal(t, 30*time.Second, cfg.Google.RequestTimeout)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.False(t, cfg.Sync.Enabled)
	})

	t.Run("should read values from YAML file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
google:
  accesstoken: from-file
sync:
  enabled: true
  schedule: "*/5 * * * *"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Google.AccessToken)
		assert.True(t, cfg.Sync.Enabled)
		assert.Equal(t, "*/5 * * * *", cfg.Sync.Schedule)
	})

	t.Run("should let environment override the file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("google:\n  accesstoken: from-file\n"), 0o600))
		t.Setenv("CALSYNC_GOOGLE_ACCESSTOKEN", "from-env")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Google.AccessToken)
	})

	t.Run("should fail on malformed YAML", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("google: [unclosed"), 0o600))

		// when
		_, err := Load(path)

		// then
		assert.Error(t, err)
	})
}

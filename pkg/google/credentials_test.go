package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klokku/calsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path string, token string) {
	content := "google:\n  accesstoken: " + token + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConfigCredentials_CurrentAccessToken(t *testing.T) {
	t.Run("should pick up a rotated token on the next call", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		writeConfig(t, path, "token-1")
		credentials := NewConfigCredentials(path)

		// when
		first, err := credentials.CurrentAccessToken(context.Background())
		require.NoError(t, err)
		writeConfig(t, path, "token-2")
		second, err := credentials.CurrentAccessToken(context.Background())
		require.NoError(t, err)

		// then
		assert.Equal(t, "token-1", first)
		assert.Equal(t, "token-2", second)
	})

	t.Run("should fail when no token is configured", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "missing.yaml")
		credentials := NewConfigCredentials(path)

		// when
		_, err := credentials.CurrentAccessToken(context.Background())

		// then
		assert.ErrorIs(t, err, ErrNoAccessToken)
	})
}

func TestNewCredentialSource(t *testing.T) {
	t.Run("should use refresh token flow when client is configured", func(t *testing.T) {
		// given
		cfg := config.Google{ClientId: "id", ClientSecret: "secret", RefreshToken: "refresh"}

		// when
		source := NewCredentialSource(context.Background(), cfg, "unused.yaml")

		// then
		assert.IsType(t, &TokenSourceCredentials{}, source)
	})

	t.Run("should fall back to configured access token", func(t *testing.T) {
		// given
		cfg := config.Google{AccessToken: "token"}

		// when
		source := NewCredentialSource(context.Background(), cfg, "application.yaml")

		// then
		assert.IsType(t, &ConfigCredentials{}, source)
	})
}

package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/calsync/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

var ErrNoAccessToken = errors.New("no Google access token configured")

// CredentialSource supplies the access token used for the next top-level sync operation.
type CredentialSource interface {
	CurrentAccessToken(ctx context.Context) (string, error)
}

// ConfigCredentials reads the access token from the configuration on every call,
// so a token rotated in the config file or environment is used by the next sync.
type ConfigCredentials struct {
	path string
}

func NewConfigCredentials(path string) *ConfigCredentials {
	return &ConfigCredentials{path: path}
}

func (c *ConfigCredentials) CurrentAccessToken(_ context.Context) (string, error) {
	cfg, err := config.Load(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to reload configuration: %w", err)
	}
	if cfg.Google.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return cfg.Google.AccessToken, nil
}

// TokenSourceCredentials obtains access tokens from a long-lived refresh token.
type TokenSourceCredentials struct {
	tokenSource oauth2.TokenSource
}

func NewTokenSourceCredentials(ctx context.Context, cfg config.Google) *TokenSourceCredentials {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	return &TokenSourceCredentials{tokenSource: oauthConfig.TokenSource(ctx, token)}
}

func (c *TokenSourceCredentials) CurrentAccessToken(_ context.Context) (string, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh Google access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return token.AccessToken, nil
}

// NewCredentialSource prefers the refresh-token flow when a client and refresh token
// are configured and falls back to the access token from configPath otherwise.
func NewCredentialSource(ctx context.Context, cfg config.Google, configPath string) CredentialSource {
	if cfg.ClientId != "" && cfg.ClientSecret != "" && cfg.RefreshToken != "" {
		log.Info("using OAuth refresh token for Google credentials")
		return NewTokenSourceCredentials(ctx, cfg)
	}
	log.Info("using configured access token for Google credentials")
	return NewConfigCredentials(configPath)
}

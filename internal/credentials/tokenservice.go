package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
)

type TokenServiceConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

func TokenServiceConfigFromEnv() (TokenServiceConfig, error) {
	cfg := TokenServiceConfig{
		TokenURL:     env.String("STREAMFORGE_TOKEN_SERVICE_URL", ""),
		ClientID:     env.String("STREAMFORGE_TOKEN_SERVICE_CLIENT_ID", ""),
		ClientSecret: env.String("STREAMFORGE_TOKEN_SERVICE_CLIENT_SECRET", ""),
	}
	if err := cfg.Validate(); err != nil {
		return TokenServiceConfig{}, err
	}
	return cfg, nil
}

func (c TokenServiceConfig) Validate() error {
	if strings.TrimSpace(c.TokenURL) == "" {
		return errors.New("STREAMFORGE_TOKEN_SERVICE_URL is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("STREAMFORGE_TOKEN_SERVICE_CLIENT_ID is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("STREAMFORGE_TOKEN_SERVICE_CLIENT_SECRET is required")
	}
	return nil
}

// TokenService obtains storage-scoped delegation tokens from the storage
// layer's token endpoint via the client-credentials grant. Each storage
// path maps to one scope request.
type TokenService struct {
	cfg TokenServiceConfig
}

func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenService{cfg: cfg}, nil
}

func (s *TokenService) DelegationToken(ctx context.Context, storagePath string) (string, []byte, error) {
	storagePath = strings.TrimSpace(storagePath)
	if storagePath == "" {
		return "", nil, errors.New("storage path is required")
	}

	grant := clientcredentials.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		TokenURL:     s.cfg.TokenURL,
		Scopes:       []string{"storage:" + storagePath},
	}
	token, err := grant.Token(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("token service: %w", err)
	}
	return DelegationTokenIdentifier(storagePath), []byte(token.AccessToken), nil
}

func DelegationTokenIdentifier(storagePath string) string {
	return "delegation:" + storagePath
}

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
)

type Mode string

const (
	ModeOIDC Mode = "oidc"
	ModeDev  Mode = "dev"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Config struct {
	Mode Mode

	RolesClaim string
	EmailClaim string

	OIDCIssuerURL string
	OIDCClientID  string

	DevSubject string
	DevEmail   string
	DevRoles   []string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("STREAMFORGE_AUTH_MODE", string(ModeDev))))
	var mode Mode
	switch modeRaw {
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDev):
		mode = ModeDev
	default:
		return Config{}, fmt.Errorf("STREAMFORGE_AUTH_MODE must be one of: oidc, dev (got %q)", modeRaw)
	}

	cfg := Config{
		Mode:          mode,
		RolesClaim:    env.String("STREAMFORGE_AUTH_ROLES_CLAIM", "roles"),
		EmailClaim:    env.String("STREAMFORGE_AUTH_EMAIL_CLAIM", "email"),
		OIDCIssuerURL: env.String("STREAMFORGE_OIDC_ISSUER_URL", ""),
		OIDCClientID:  env.String("STREAMFORGE_OIDC_CLIENT_ID", ""),
		DevSubject:    env.String("STREAMFORGE_AUTH_DEV_SUBJECT", "dev-user"),
		DevEmail:      env.String("STREAMFORGE_AUTH_DEV_EMAIL", "dev@localhost"),
		DevRoles:      splitRoles(env.String("STREAMFORGE_AUTH_DEV_ROLES", "operator")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Mode == ModeOIDC {
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("STREAMFORGE_OIDC_ISSUER_URL is required in oidc mode")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("STREAMFORGE_OIDC_CLIENT_ID is required in oidc mode")
		}
	}
	return nil
}

func splitRoles(raw string) []string {
	parts := strings.Split(raw, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

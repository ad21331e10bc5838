package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// BearerAuthenticator verifies OIDC bearer tokens presented by API callers.
// Unlike an interactive login flow there is no session state: every request
// carries its own token.
type BearerAuthenticator struct {
	cfg      Config
	verifier *oidc.IDTokenVerifier
}

func NewBearerAuthenticator(ctx context.Context, cfg Config) (*BearerAuthenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != ModeOIDC {
		return nil, fmt.Errorf("auth mode must be oidc (got %q)", cfg.Mode)
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	return &BearerAuthenticator{
		cfg:      cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
	}, nil
}

func (a *BearerAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	rawToken := tokenFromHeader(r)
	if rawToken == "" {
		return Identity{}, ErrUnauthenticated
	}

	idToken, err := a.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, err
	}

	subject, _ := claims["sub"].(string)
	email := extractStringClaim(claims, a.cfg.EmailClaim)
	roles := extractRolesClaim(claims, a.cfg.RolesClaim)

	return Identity{
		Subject: subject,
		Email:   email,
		Roles:   roles,
	}, nil
}

func tokenFromHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func extractStringClaim(claims map[string]any, key string) string {
	if key == "" {
		return ""
	}
	v, ok := claims[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func extractRolesClaim(claims map[string]any, key string) []string {
	if key == "" {
		return nil
	}
	v, ok := claims[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []any:
		roles := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				roles = append(roles, strings.TrimSpace(s))
			}
		}
		return roles
	case []string:
		return t
	case string:
		return splitRoles(t)
	default:
		return nil
	}
}

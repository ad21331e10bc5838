package credentials

import (
	"context"
	"fmt"
	"log/slog"
)

// DelegationTokenSource mints a storage-scoped delegation token for one
// storage path.
type DelegationTokenSource interface {
	DelegationToken(ctx context.Context, storagePath string) (identifier string, token []byte, err error)
}

// UserTokenSource exposes the tokens the invoking identity already holds.
type UserTokenSource interface {
	Tokens(ctx context.Context) (map[string][]byte, error)
}

// Bundle merges delegation tokens for every storage path with the user's
// held tokens and serializes the result. Delegation tokens go in first, so
// a user-held token with a colliding identifier wins. Any acquisition
// failure aborts the whole bundle: a container launched with a partial set
// would fail authorization much later in a confusing way.
func Bundle(ctx context.Context, logger *slog.Logger, storagePaths []string, delegation DelegationTokenSource, user UserTokenSource) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	set := make(Set)

	for _, path := range storagePaths {
		id, token, err := delegation.DelegationToken(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("obtain delegation token for %s: %w", path, err)
		}
		set.AddToken(id, token)
	}

	userTokens, err := user.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user tokens: %w", err)
	}
	for id, token := range userTokens {
		logger.Info("adding user token", "identifier", id)
		set.AddToken(id, token)
	}

	blob, err := set.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize credentials: %w", err)
	}
	logger.Debug("wrote tokens", "credential_bytes", len(blob), "token_count", len(set))
	return blob, nil
}

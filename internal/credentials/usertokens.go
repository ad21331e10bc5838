package credentials

import (
	"context"
	"fmt"
	"os"
)

// EnvTokenFile names the token cache file holding the invoking identity's
// already-held tokens, in the same serialized form Bundle produces.
const EnvTokenFile = "STREAMFORGE_TOKEN_FILE"

// FileTokenSource reads the invoking identity's token cache. An absent
// path (unset env) yields no tokens rather than an error; a present but
// unreadable or corrupt file is fatal.
type FileTokenSource struct {
	Path string
}

func FileTokenSourceFromEnv() FileTokenSource {
	return FileTokenSource{Path: os.Getenv(EnvTokenFile)}
}

func (s FileTokenSource) Tokens(ctx context.Context) (map[string][]byte, error) {
	if s.Path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}
	set, err := Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("decode token cache %s: %w", s.Path, err)
	}
	return set, nil
}

// StaticTokenSource serves a fixed token map; used in tests and for
// identities that carry tokens in memory.
type StaticTokenSource map[string][]byte

func (s StaticTokenSource) Tokens(ctx context.Context) (map[string][]byte, error) {
	return s, nil
}

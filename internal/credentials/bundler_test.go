package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeDelegationSource struct {
	tokens map[string][]byte
	err    error
}

func (s fakeDelegationSource) DelegationToken(ctx context.Context, storagePath string) (string, []byte, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	token, ok := s.tokens[storagePath]
	if !ok {
		return "", nil, errors.New("no token for path")
	}
	return DelegationTokenIdentifier(storagePath), token, nil
}

func TestBundle_MergesAndRoundTrips(t *testing.T) {
	delegation := fakeDelegationSource{tokens: map[string][]byte{
		"staging/.streamforge": []byte("dtok-1"),
		"checkpoints":          []byte("dtok-2"),
	}}
	user := StaticTokenSource{
		"user:session": []byte("utok"),
	}

	blob, err := Bundle(context.Background(), nil, []string{"staging/.streamforge", "checkpoints"}, delegation, user)
	if err != nil {
		t.Fatalf("Bundle() err=%v", err)
	}

	set, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() err=%v", err)
	}
	if len(set) != 3 {
		t.Fatalf("len(set)=%d, want 3", len(set))
	}
	if string(set["delegation:checkpoints"]) != "dtok-2" {
		t.Fatalf("delegation token=%q", set["delegation:checkpoints"])
	}
	if string(set["user:session"]) != "utok" {
		t.Fatalf("user token=%q", set["user:session"])
	}
}

func TestBundle_UserTokenOverwritesOnCollision(t *testing.T) {
	delegation := fakeDelegationSource{tokens: map[string][]byte{
		"staging": []byte("from-service"),
	}}
	user := StaticTokenSource{
		DelegationTokenIdentifier("staging"): []byte("from-user"),
	}

	blob, err := Bundle(context.Background(), nil, []string{"staging"}, delegation, user)
	if err != nil {
		t.Fatalf("Bundle() err=%v", err)
	}
	set, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() err=%v", err)
	}
	if string(set[DelegationTokenIdentifier("staging")]) != "from-user" {
		t.Fatalf("collision winner=%q, want later insertion", set[DelegationTokenIdentifier("staging")])
	}
}

func TestBundle_DelegationFailureAborts(t *testing.T) {
	delegation := fakeDelegationSource{err: errors.New("token service unreachable")}
	_, err := Bundle(context.Background(), nil, []string{"staging"}, delegation, StaticTokenSource{})
	if err == nil {
		t.Fatal("expected bundle failure")
	}
}

func TestBundle_UserSourceFailureAborts(t *testing.T) {
	delegation := fakeDelegationSource{tokens: map[string][]byte{"staging": []byte("x")}}
	user := FileTokenSource{Path: filepath.Join(t.TempDir(), "missing")}
	_, err := Bundle(context.Background(), nil, []string{"staging"}, delegation, user)
	if err == nil {
		t.Fatal("expected bundle failure on unreadable token cache")
	}
}

func TestDeserialize_RejectsGarbage(t *testing.T) {
	for _, blob := range [][]byte{
		nil,
		[]byte("x"),
		[]byte("NOPE\x01\x00\x00\x00\x00"),
		[]byte("SFTK\x02\x00\x00\x00\x00"),
	} {
		if _, err := Deserialize(blob); !errors.Is(err, ErrBadCredentialBlob) {
			t.Fatalf("Deserialize(%q) err=%v, want ErrBadCredentialBlob", blob, err)
		}
	}
}

func TestDeserialize_RejectsTrailingBytes(t *testing.T) {
	set := Set{"a": []byte("b")}
	blob, err := set.Serialize()
	if err != nil {
		t.Fatalf("Serialize() err=%v", err)
	}
	if _, err := Deserialize(append(blob, 0x00)); !errors.Is(err, ErrBadCredentialBlob) {
		t.Fatalf("err=%v, want ErrBadCredentialBlob", err)
	}
}

func TestFileTokenSource(t *testing.T) {
	set := Set{"user:session": []byte("utok")}
	blob, err := set.Serialize()
	if err != nil {
		t.Fatalf("Serialize() err=%v", err)
	}
	path := filepath.Join(t.TempDir(), "tokens")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	tokens, err := FileTokenSource{Path: path}.Tokens(context.Background())
	if err != nil {
		t.Fatalf("Tokens() err=%v", err)
	}
	if string(tokens["user:session"]) != "utok" {
		t.Fatalf("tokens=%v", tokens)
	}

	empty, err := FileTokenSource{}.Tokens(context.Background())
	if err != nil || empty != nil {
		t.Fatalf("unset path: tokens=%v err=%v", empty, err)
	}
}

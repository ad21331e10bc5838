package credentials

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Set is a transient collection of tokens keyed by identifier. A later
// AddToken with a colliding identifier overwrites the earlier token.
type Set map[string][]byte

func (s Set) AddToken(identifier string, token []byte) {
	s[identifier] = token
}

// Serialization framing: magic, a version byte, a big-endian entry count,
// then length-prefixed identifier/secret pairs with identifiers in sorted
// order. The blob is self-describing so the storage client inside the
// container can deserialize it without out-of-band schema knowledge.
var setMagic = [4]byte{'S', 'F', 'T', 'K'}

const setVersion = byte(1)

var ErrBadCredentialBlob = errors.New("malformed credential blob")

const (
	maxIdentifierLen = 1 << 16
	maxTokenLen      = 1 << 20
)

// Serialize writes the set to its opaque byte form. The set is meant to be
// discarded afterwards; only the blob travels with the launch spec.
func (s Set) Serialize() ([]byte, error) {
	identifiers := make([]string, 0, len(s))
	for id := range s {
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	var buf bytes.Buffer
	buf.Write(setMagic[:])
	buf.WriteByte(setVersion)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(identifiers))); err != nil {
		return nil, err
	}
	for _, id := range identifiers {
		if len(id) >= maxIdentifierLen {
			return nil, fmt.Errorf("token identifier too long: %d bytes", len(id))
		}
		token := s[id]
		if len(token) >= maxTokenLen {
			return nil, fmt.Errorf("token %q too large: %d bytes", id, len(token))
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(id))); err != nil {
			return nil, err
		}
		buf.WriteString(id)
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(token))); err != nil {
			return nil, err
		}
		buf.Write(token)
	}
	return buf.Bytes(), nil
}

// Deserialize parses a blob produced by Serialize.
func Deserialize(blob []byte) (Set, error) {
	r := bytes.NewReader(blob)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, ErrBadCredentialBlob
	}
	if magic != setMagic {
		return nil, ErrBadCredentialBlob
	}
	version, err := r.ReadByte()
	if err != nil || version != setVersion {
		return nil, ErrBadCredentialBlob
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, ErrBadCredentialBlob
	}

	set := make(Set, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.BigEndian, &idLen); err != nil {
			return nil, ErrBadCredentialBlob
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return nil, ErrBadCredentialBlob
		}
		var tokenLen uint32
		if err := binary.Read(r, binary.BigEndian, &tokenLen); err != nil {
			return nil, ErrBadCredentialBlob
		}
		if tokenLen >= maxTokenLen {
			return nil, ErrBadCredentialBlob
		}
		token := make([]byte, tokenLen)
		if _, err := io.ReadFull(r, token); err != nil {
			return nil, ErrBadCredentialBlob
		}
		set[string(id)] = token
	}
	if r.Len() != 0 {
		return nil, ErrBadCredentialBlob
	}
	return set, nil
}

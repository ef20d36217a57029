package dicommeta

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Supported content hash algorithms.
const (
	HashSHA1    = "sha1"
	HashSHA256  = "sha256"
	HashBLAKE2b = "blake2b"
)

// NewHash returns a constructor for the named algorithm. An empty name
// selects sha1.
func NewHash(name string) (func() hash.Hash, error) {
	switch strings.ToLower(name) {
	case "", HashSHA1:
		return sha1.New, nil
	case HashSHA256:
		return sha256.New, nil
	case HashBLAKE2b, "blake2b-256":
		return func() hash.Hash {
			h, _ := blake2b.New256(nil) // only fails for oversized keys
			return h
		}, nil
	}
	return nil, fmt.Errorf("unknown hash algorithm %q", name)
}

// Package chainhash provides the 32-byte digest type shared by every other
// package in this module (headers, transactions, proofs, wire messages).
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes in a hash.
const HashSize = 32

// Hash is a SHA-256 digest, stored and compared as a fixed-size array so it
// can be used directly as a map key.
type Hash [HashSize]byte

// String returns the hash as the hexadecimal string of the bytes in
// big-endian display order (reversed from the internal little-endian-ish
// storage order used throughout the codebase), matching how block explorers
// and block hashes are conventionally printed.
func (h Hash) String() string {
	for i := 0; i < HashSize/2; i++ {
		h[i], h[HashSize-1-i] = h[HashSize-1-i], h[i]
	}
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the all-zero value, used to identify
// the coinbase's null previous outpoint and the genesis block's null parent.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Less reports whether h sorts before other when compared byte-for-byte,
// used by the chainstate's deterministic heaviest-work tie-break.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// HashB returns the SHA-256 digest of b.
func HashB(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// HashH returns the SHA-256 digest of b as a Hash.
func HashH(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// NewHashFromStr parses a big-endian-display hex string into a Hash.
func NewHashFromStr(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(decoded) != HashSize {
		return h, fmt.Errorf("chainhash: invalid hash length %d, want %d", len(decoded), HashSize)
	}
	for i := 0; i < HashSize; i++ {
		h[HashSize-1-i] = decoded[i]
	}
	return h, nil
}

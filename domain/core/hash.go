package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// SetHash fingerprints a gene set regardless of input order.
type SetHash Hash

func (h SetHash) String() string { return Hash(h).String() }

// ComputeSetHash hashes the sorted members of a gene set so that two
// runs over the same inputs can be recognized as identical.
func ComputeSetHash(genes []GeneID) SetHash {
	ids := make([]string, 0, len(genes))
	for _, g := range genes {
		ids = append(ids, g.String())
	}
	sort.Strings(ids)

	var data strings.Builder
	for _, id := range ids {
		data.WriteString(id)
		data.WriteByte('\n')
	}

	return SetHash(NewHash([]byte(data.String())))
}

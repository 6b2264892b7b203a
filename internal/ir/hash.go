package ir

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// DomainRecord is the domain prefix for record identity.
// The version suffix leaves room for a future encoding migration.
const DomainRecord = "wavefn/record/v1"

// Hasher names the hash algorithm used for record identity.
type Hasher string

const (
	// Blake2b256 is BLAKE2b with a 256-bit digest, the ledger's native hashing.
	Blake2b256 Hasher = "blake2b-256"

	// SHA256 is SHA-256.
	SHA256 Hasher = "sha256"

	// DefaultHasher is used when no algorithm is configured.
	DefaultHasher = Blake2b256
)

// Hashers lists the supported algorithms.
var Hashers = []Hasher{Blake2b256, SHA256}

// ParseHasher resolves an algorithm name. The empty string selects DefaultHasher.
func ParseHasher(name string) (Hasher, error) {
	if name == "" {
		return DefaultHasher, nil
	}
	for _, h := range Hashers {
		if string(h) == name {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown hash algorithm %q (want one of %v)", name, Hashers)
}

// String implements fmt.Stringer.
func (h Hasher) String() string {
	return string(h)
}

func (h Hasher) newHash() (hash.Hash, error) {
	switch h {
	case Blake2b256, "":
		return blake2b.New256(nil)
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", string(h))
	}
}

// hashWithDomain computes H(domain || 0x00 || data).
// The null separator prevents domain/data boundary ambiguity.
func (h Hasher) hashWithDomain(domain string, data []byte) ([IDSize]byte, error) {
	var out [IDSize]byte
	hh, err := h.newHash()
	if err != nil {
		return out, err
	}
	hh.Write([]byte(domain))
	hh.Write([]byte{0x00})
	hh.Write(data)
	copy(out[:], hh.Sum(nil))
	return out, nil
}

// RecordIDOf derives the content-addressed id of a WaveFunction.
// The id depends on the full record: payload bytes and author together.
// It is a pure function of its inputs, stable across restarts and nodes.
func RecordIDOf(h Hasher, w WaveFunction) (RecordID, error) {
	canonical, err := MarshalCanonical(w.CanonicalObject())
	if err != nil {
		return RecordID{}, fmt.Errorf("RecordIDOf: failed to marshal: %w", err)
	}
	sum, err := h.hashWithDomain(DomainRecord, canonical)
	if err != nil {
		return RecordID{}, fmt.Errorf("RecordIDOf: %w", err)
	}
	return RecordID(sum), nil
}

// MustRecordID is like RecordIDOf but panics on error.
// Use only in tests or when the hasher is known to be valid.
func MustRecordID(h Hasher, w WaveFunction) RecordID {
	id, err := RecordIDOf(h, w)
	if err != nil {
		panic(err)
	}
	return id
}

// Package solana models the ledger primitives the estimation and roll-up
// layers rewrite and serialize: account keys, instructions, compiled
// messages and signed transactions.
package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey is an ed25519 public key identifying an account.
type Pubkey [32]byte

// ParsePubkey decodes a base58 account address.
func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("pubkey %q: %w", s, err)
	}
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("pubkey %q: %d bytes, want %d", s, len(raw), len(pk))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustPubkey is ParsePubkey for hardcoded addresses; it panics on bad input.
func MustPubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

// IsZero reports whether p is the all-zero key.
func (p Pubkey) IsZero() bool { return p == Pubkey{} }

// Hash is a 32-byte ledger hash, such as a recent blockhash.
type Hash [32]byte

// ParseHash decodes a base58 hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("hash %q: %d bytes, want %d", s, len(raw), len(h))
	}
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string { return base58.Encode(h[:]) }

// Signature is a 64-byte ed25519 transaction signature.
type Signature [64]byte

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	raw, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("signature %q: %w", s, err)
	}
	if len(raw) != len(sig) {
		return sig, fmt.Errorf("signature %q: %d bytes, want %d", s, len(raw), len(sig))
	}
	copy(sig[:], raw)
	return sig, nil
}

func (s Signature) String() string { return base58.Encode(s[:]) }

// IsZero reports whether s is the all-zero placeholder signature.
func (s Signature) IsZero() bool { return s == Signature{} }

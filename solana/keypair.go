package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
)

// Keypair wraps an ed25519 private key with its account address.
type Keypair struct {
	priv ed25519.PrivateKey
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromBytes builds a keypair from the 64-byte seed-plus-public
// form keyfiles store.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair: %d bytes, want %d", len(b), ed25519.PrivateKeySize)
	}
	return &Keypair{priv: ed25519.PrivateKey(append([]byte(nil), b...))}, nil
}

// LoadKeypair reads a CLI-format keyfile: a JSON array of 64 byte values.
func LoadKeypair(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile %s: %w", path, err)
	}
	var vals []int
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("keyfile %s: %w", path, err)
	}
	b := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keyfile %s: byte %d out of range", path, i)
		}
		b[i] = byte(v)
	}
	kp, err := KeypairFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("keyfile %s: %w", path, err)
	}
	return kp, nil
}

// Pubkey returns the account address of the keypair.
func (kp *Keypair) Pubkey() Pubkey {
	var pk Pubkey
	copy(pk[:], kp.priv.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs msg with the private key.
func (kp *Keypair) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.priv, msg))
	return sig
}

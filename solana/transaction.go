package solana

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
)

// Transaction pairs a compiled message with its signature slots. Slot i
// holds the signature of account key i; unsigned slots stay zero, which
// simulation with signature verification disabled accepts.
type Transaction struct {
	Signatures []Signature
	Message    *Message
}

// NewUnsignedTransaction wraps a message with zeroed signature slots sized
// from its header.
func NewUnsignedTransaction(m *Message) *Transaction {
	return &Transaction{
		Signatures: make([]Signature, m.Header.NumRequiredSignatures),
		Message:    m,
	}
}

// Sign fills the signature slots covered by the given keypairs. Every
// keypair must correspond to one of the message's required signer slots.
func (tx *Transaction) Sign(signers ...*Keypair) error {
	if tx.Message == nil {
		return ErrNoInstructions
	}
	payload, err := tx.Message.Serialize()
	if err != nil {
		return err
	}
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		tx.Signatures = make([]Signature, tx.Message.Header.NumRequiredSignatures)
	}
	for _, kp := range signers {
		slot := -1
		for i := 0; i < int(tx.Message.Header.NumRequiredSignatures); i++ {
			if tx.Message.AccountKeys[i] == kp.Pubkey() {
				slot = i
				break
			}
		}
		if slot < 0 {
			return fmt.Errorf("signer %s is not a required signer of the message", kp.Pubkey())
		}
		tx.Signatures[slot] = kp.Sign(payload)
	}
	return nil
}

// Signature returns the transaction's identifying signature, the one in
// slot zero.
func (tx *Transaction) Signature() Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}

// Serialize encodes the transaction in the wire layout: a compact
// signature count, the signatures, then the message.
func (tx *Transaction) Serialize() ([]byte, error) {
	if tx.Message == nil {
		return nil, ErrNoInstructions
	}
	msg, err := tx.Message.Serialize()
	if err != nil {
		return nil, err
	}
	sigs := tx.Signatures
	if len(sigs) == 0 {
		sigs = make([]Signature, tx.Message.Header.NumRequiredSignatures)
	}
	b := make([]byte, 0, len(sigs)*64+len(msg)+2)
	b = appendCompactU16(b, len(sigs))
	for _, s := range sigs {
		b = append(b, s[:]...)
	}
	return append(b, msg...), nil
}

// MarshalBase64 renders the serialized transaction as standard base64,
// the encoding the node API exchanges transactions in.
func (tx *Transaction) MarshalBase64() (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DeserializeTransaction decodes a wire-layout transaction.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	nSigs, err := readCompactU16(r)
	if err != nil {
		return nil, fmt.Errorf("signature count: %w", err)
	}
	tx := &Transaction{Signatures: make([]Signature, nSigs)}
	for i := range tx.Signatures {
		if _, err := io.ReadFull(r, tx.Signatures[i][:]); err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
	}
	tx.Message, err = readMessage(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("transaction: %d trailing bytes", r.Len())
	}
	return tx, nil
}

// DecodeBase64Transaction decodes the node API's base64 transaction form.
func DecodeBase64Transaction(s string) (*Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("transaction base64: %w", err)
	}
	return DeserializeTransaction(raw)
}

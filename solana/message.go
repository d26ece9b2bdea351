package solana

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoFeePayer reports a message whose first account slot is not a
	// writable signer able to pay fees.
	ErrNoFeePayer = errors.New("message has no fee payer")
	// ErrNoInstructions reports an empty instruction sequence.
	ErrNoInstructions = errors.New("message has no instructions")
	// ErrBadAccountIndex reports an instruction referencing an account
	// slot outside the message's account table.
	ErrBadAccountIndex = errors.New("account index out of range")

	errVersionedMessage = errors.New("versioned messages not supported")
	errTooManyAccounts  = errors.New("message account table exceeds 256 keys")
)

// MessageHeader partitions the account table into signer and read-only
// regions. Slot layout: writable signers, read-only signers, writable
// non-signers, read-only non-signers.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is a compiled transaction payload: a deduplicated account table,
// the blockhash anchoring its lifetime, and instructions referencing
// accounts by table index. Callers never edit indexes directly; the only
// rewrite operations are WithInstructionFront and WithInstructionReplaced,
// which recompile the table and return a new message.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// NewMessage compiles instructions into a message paid for by feePayer.
// Accounts referenced by several instructions are merged into one table
// slot carrying the union of their signer/writable flags.
func NewMessage(feePayer Pubkey, instrs []Instruction, recentBlockhash Hash) (*Message, error) {
	if feePayer.IsZero() {
		return nil, ErrNoFeePayer
	}
	if len(instrs) == 0 {
		return nil, ErrNoInstructions
	}

	type slot struct {
		key      Pubkey
		signer   bool
		writable bool
	}
	slots := []slot{{key: feePayer, signer: true, writable: true}}
	index := map[Pubkey]int{feePayer: 0}
	merge := func(m AccountMeta) {
		i, ok := index[m.Pubkey]
		if !ok {
			index[m.Pubkey] = len(slots)
			slots = append(slots, slot{key: m.Pubkey, signer: m.IsSigner, writable: m.IsWritable})
			return
		}
		slots[i].signer = slots[i].signer || m.IsSigner
		slots[i].writable = slots[i].writable || m.IsWritable
	}
	for _, in := range instrs {
		for _, m := range in.Accounts {
			merge(m)
		}
		merge(AccountMeta{Pubkey: in.ProgramID})
	}
	if len(slots) > 256 {
		return nil, errTooManyAccounts
	}

	// Partition preserving first-appearance order inside each class; the
	// fee payer keeps slot zero.
	ordered := make([]slot, 0, len(slots))
	for _, class := range []func(slot) bool{
		func(s slot) bool { return s.signer && s.writable },
		func(s slot) bool { return s.signer && !s.writable },
		func(s slot) bool { return !s.signer && s.writable },
		func(s slot) bool { return !s.signer && !s.writable },
	} {
		for _, s := range slots {
			if class(s) {
				ordered = append(ordered, s)
			}
		}
	}

	msg := &Message{
		AccountKeys:     make([]Pubkey, len(ordered)),
		RecentBlockhash: recentBlockhash,
		Instructions:    make([]CompiledInstruction, 0, len(instrs)),
	}
	pos := make(map[Pubkey]uint8, len(ordered))
	for i, s := range ordered {
		msg.AccountKeys[i] = s.key
		pos[s.key] = uint8(i)
		if s.signer {
			msg.Header.NumRequiredSignatures++
			if !s.writable {
				msg.Header.NumReadonlySignedAccounts++
			}
		} else if !s.writable {
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}
	for _, in := range instrs {
		ci := CompiledInstruction{
			ProgramIDIndex: pos[in.ProgramID],
			Accounts:       make([]uint8, len(in.Accounts)),
			Data:           in.Data,
		}
		for i, m := range in.Accounts {
			ci.Accounts[i] = pos[m.Pubkey]
		}
		msg.Instructions = append(msg.Instructions, ci)
	}
	return msg, nil
}

// FeePayer returns the account funding the transaction.
func (m *Message) FeePayer() Pubkey {
	if len(m.AccountKeys) == 0 {
		return Pubkey{}
	}
	return m.AccountKeys[0]
}

// Validate checks the header, account table and instruction references.
func (m *Message) Validate() error {
	h := m.Header
	if len(m.AccountKeys) == 0 || h.NumRequiredSignatures == 0 {
		return ErrNoFeePayer
	}
	if int(h.NumRequiredSignatures) > len(m.AccountKeys) {
		return fmt.Errorf("%d required signatures for %d accounts: %w",
			h.NumRequiredSignatures, len(m.AccountKeys), ErrBadAccountIndex)
	}
	if h.NumReadonlySignedAccounts >= h.NumRequiredSignatures {
		// Slot zero would be read-only and could not pay fees.
		return ErrNoFeePayer
	}
	if int(h.NumReadonlyUnsignedAccounts) > len(m.AccountKeys)-int(h.NumRequiredSignatures) {
		return fmt.Errorf("%d read-only unsigned accounts for %d unsigned slots: %w",
			h.NumReadonlyUnsignedAccounts, len(m.AccountKeys)-int(h.NumRequiredSignatures), ErrBadAccountIndex)
	}
	if len(m.Instructions) == 0 {
		return ErrNoInstructions
	}
	for i, ci := range m.Instructions {
		if int(ci.ProgramIDIndex) >= len(m.AccountKeys) {
			return fmt.Errorf("instruction %d: program index %d: %w", i, ci.ProgramIDIndex, ErrBadAccountIndex)
		}
		for _, a := range ci.Accounts {
			if int(a) >= len(m.AccountKeys) {
				return fmt.Errorf("instruction %d: account index %d: %w", i, a, ErrBadAccountIndex)
			}
		}
	}
	return nil
}

// signerIndex reports whether table slot i must sign.
func (m *Message) signerIndex(i int) bool {
	return i < int(m.Header.NumRequiredSignatures)
}

// writableIndex reports whether table slot i may be written.
func (m *Message) writableIndex(i int) bool {
	h := m.Header
	if i < int(h.NumRequiredSignatures) {
		return i < int(h.NumRequiredSignatures-h.NumReadonlySignedAccounts)
	}
	return i < len(m.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}

// instructionAt reconstructs instruction i with account flags resolved
// from the header, suitable for recompilation.
func (m *Message) instructionAt(i int) (Instruction, error) {
	ci := m.Instructions[i]
	if int(ci.ProgramIDIndex) >= len(m.AccountKeys) {
		return Instruction{}, fmt.Errorf("instruction %d: program index %d: %w", i, ci.ProgramIDIndex, ErrBadAccountIndex)
	}
	in := Instruction{
		ProgramID: m.AccountKeys[ci.ProgramIDIndex],
		Accounts:  make([]AccountMeta, len(ci.Accounts)),
		Data:      ci.Data,
	}
	for j, a := range ci.Accounts {
		if int(a) >= len(m.AccountKeys) {
			return Instruction{}, fmt.Errorf("instruction %d: account index %d: %w", i, a, ErrBadAccountIndex)
		}
		in.Accounts[j] = AccountMeta{
			Pubkey:     m.AccountKeys[a],
			IsSigner:   m.signerIndex(int(a)),
			IsWritable: m.writableIndex(int(a)),
		}
	}
	return in, nil
}

// decompile resolves every compiled instruction back into its program,
// metas and data form.
func (m *Message) decompile() ([]Instruction, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	instrs := make([]Instruction, len(m.Instructions))
	for i := range m.Instructions {
		in, err := m.instructionAt(i)
		if err != nil {
			return nil, err
		}
		instrs[i] = in
	}
	return instrs, nil
}

// WithInstructionFront returns a new message with in prepended to the
// instruction sequence. The receiver is not modified.
func (m *Message) WithInstructionFront(in Instruction) (*Message, error) {
	instrs, err := m.decompile()
	if err != nil {
		return nil, err
	}
	rewritten := make([]Instruction, 0, len(instrs)+1)
	rewritten = append(rewritten, in)
	rewritten = append(rewritten, instrs...)
	return NewMessage(m.FeePayer(), rewritten, m.RecentBlockhash)
}

// WithInstructionReplaced returns a new message with instruction i swapped
// for in. The receiver is not modified.
func (m *Message) WithInstructionReplaced(i int, in Instruction) (*Message, error) {
	if i < 0 || i >= len(m.Instructions) {
		return nil, fmt.Errorf("instruction %d of %d: %w", i, len(m.Instructions), ErrBadAccountIndex)
	}
	instrs, err := m.decompile()
	if err != nil {
		return nil, err
	}
	instrs[i] = in
	return NewMessage(m.FeePayer(), instrs, m.RecentBlockhash)
}

// Serialize encodes the message in the legacy wire layout.
func (m *Message) Serialize() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, 0, 128)
	b = append(b, m.Header.NumRequiredSignatures, m.Header.NumReadonlySignedAccounts, m.Header.NumReadonlyUnsignedAccounts)
	b = appendCompactU16(b, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		b = append(b, k[:]...)
	}
	b = append(b, m.RecentBlockhash[:]...)
	b = appendCompactU16(b, len(m.Instructions))
	for _, ci := range m.Instructions {
		b = append(b, ci.ProgramIDIndex)
		b = appendCompactU16(b, len(ci.Accounts))
		b = append(b, ci.Accounts...)
		b = appendCompactU16(b, len(ci.Data))
		b = append(b, ci.Data...)
	}
	return b, nil
}

// DeserializeMessage decodes a legacy wire-layout message.
func DeserializeMessage(data []byte) (*Message, error) {
	r := bytes.NewReader(data)
	m, err := readMessage(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("message: %d trailing bytes", r.Len())
	}
	return m, nil
}

func readMessage(r *bytes.Reader) (*Message, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("message header: %w", err)
	}
	if hdr[0]&0x80 != 0 {
		return nil, errVersionedMessage
	}
	m := &Message{Header: MessageHeader{
		NumRequiredSignatures:       hdr[0],
		NumReadonlySignedAccounts:   hdr[1],
		NumReadonlyUnsignedAccounts: hdr[2],
	}}

	nKeys, err := readCompactU16(r)
	if err != nil {
		return nil, fmt.Errorf("account table length: %w", err)
	}
	m.AccountKeys = make([]Pubkey, nKeys)
	for i := range m.AccountKeys {
		if _, err := io.ReadFull(r, m.AccountKeys[i][:]); err != nil {
			return nil, fmt.Errorf("account key %d: %w", i, err)
		}
	}
	if _, err := io.ReadFull(r, m.RecentBlockhash[:]); err != nil {
		return nil, fmt.Errorf("recent blockhash: %w", err)
	}

	nInstr, err := readCompactU16(r)
	if err != nil {
		return nil, fmt.Errorf("instruction count: %w", err)
	}
	m.Instructions = make([]CompiledInstruction, nInstr)
	for i := range m.Instructions {
		ci := &m.Instructions[i]
		pidx, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		ci.ProgramIDIndex = pidx
		nAcc, err := readCompactU16(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		ci.Accounts = make([]uint8, nAcc)
		if _, err := io.ReadFull(r, ci.Accounts); err != nil {
			return nil, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		nData, err := readCompactU16(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d data: %w", i, err)
		}
		ci.Data = make([]byte, nData)
		if _, err := io.ReadFull(r, ci.Data); err != nil {
			return nil, fmt.Errorf("instruction %d data: %w", i, err)
		}
	}
	return m, nil
}

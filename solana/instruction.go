package solana

// AccountMeta describes one account an instruction touches and how.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Meta builds a read-only, non-signing account reference.
func Meta(key Pubkey) AccountMeta { return AccountMeta{Pubkey: key} }

// WritableMeta builds a writable account reference.
func WritableMeta(key Pubkey, signer bool) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: signer, IsWritable: true}
}

// Instruction is a single program invocation before compilation into a
// message: the target program, the accounts it may read or write, and its
// opaque input data.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// CompiledInstruction is an instruction inside a compiled message; accounts
// and the program are references into the message's account table.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

package solana

import "encoding/binary"

// SystemProgramID owns plain accounts and executes lamport transfers.
var SystemProgramID = MustPubkey("11111111111111111111111111111111")

const systemTransferIndex = 2

// NewTransferInstruction moves lamports from one system account to
// another. The sender signs; both sides are written.
func NewTransferInstruction(from, to Pubkey, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		},
		Data: data,
	}
}

// NewTransferMessage compiles a single-transfer message paid for by the
// sender.
func NewTransferMessage(from, to Pubkey, lamports uint64, recentBlockhash Hash) (*Message, error) {
	return NewMessage(from, []Instruction{NewTransferInstruction(from, to, lamports)}, recentBlockhash)
}

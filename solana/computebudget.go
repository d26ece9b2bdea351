package solana

import "encoding/binary"

// ComputeBudgetProgramID is the program that prices and caps transaction
// execution.
var ComputeBudgetProgramID = MustPubkey("ComputeBudget111111111111111111111111111111")

// MaxComputeUnitLimit is the protocol-wide ceiling on the compute units a
// single transaction may declare.
const MaxComputeUnitLimit uint32 = 1_400_000

const (
	computeUnitLimitIndex = 0x02
	computeUnitPriceIndex = 0x03
)

// SetComputeUnitLimit builds the instruction declaring the transaction's
// compute unit cap. It references no accounts.
func SetComputeUnitLimit(units uint32) Instruction {
	data := make([]byte, 5)
	data[0] = computeUnitLimitIndex
	binary.LittleEndian.PutUint32(data[1:], units)
	return Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// SetComputeUnitPrice builds the instruction attaching a priority fee in
// micro-lamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) Instruction {
	data := make([]byte, 9)
	data[0] = computeUnitPriceIndex
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// isComputeUnitLimitData reports whether data encodes a unit-limit
// declaration.
func isComputeUnitLimitData(data []byte) bool {
	return len(data) == 5 && data[0] == computeUnitLimitIndex
}

// FindComputeUnitLimit returns the index of the first instruction in m
// that declares a compute unit limit, or -1 when none does.
func FindComputeUnitLimit(m *Message) int {
	for i, ci := range m.Instructions {
		if int(ci.ProgramIDIndex) >= len(m.AccountKeys) {
			continue
		}
		if m.AccountKeys[ci.ProgramIDIndex] == ComputeBudgetProgramID && isComputeUnitLimitData(ci.Data) {
			return i
		}
	}
	return -1
}

// ComputeUnitLimit extracts the declared unit cap of instruction i,
// reporting ok=false when the instruction declares none.
func ComputeUnitLimit(m *Message, i int) (uint32, bool) {
	if i < 0 || i >= len(m.Instructions) {
		return 0, false
	}
	ci := m.Instructions[i]
	if int(ci.ProgramIDIndex) >= len(m.AccountKeys) ||
		m.AccountKeys[ci.ProgramIDIndex] != ComputeBudgetProgramID ||
		!isComputeUnitLimitData(ci.Data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(ci.Data[1:]), true
}

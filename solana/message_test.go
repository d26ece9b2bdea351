package solana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(b byte) Pubkey {
	var pk Pubkey
	pk[0] = b
	pk[31] = b
	return pk
}

func testHash(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestNewMessageCompilesTransfer(t *testing.T) {
	payer := testKey(1)
	recipient := testKey(2)
	msg, err := NewMessage(payer, []Instruction{
		NewTransferInstruction(payer, recipient, 5000),
	}, testHash(9))
	require.NoError(t, err)

	require.Equal(t, []Pubkey{payer, recipient, SystemProgramID}, msg.AccountKeys)
	require.Equal(t, uint8(1), msg.Header.NumRequiredSignatures)
	require.Equal(t, uint8(0), msg.Header.NumReadonlySignedAccounts)
	require.Equal(t, uint8(1), msg.Header.NumReadonlyUnsignedAccounts)
	require.Equal(t, payer, msg.FeePayer())

	require.Len(t, msg.Instructions, 1)
	ci := msg.Instructions[0]
	require.Equal(t, uint8(2), ci.ProgramIDIndex)
	require.Equal(t, []uint8{0, 1}, ci.Accounts)
	require.NoError(t, msg.Validate())
}

func TestNewMessageMergesDuplicateAccounts(t *testing.T) {
	payer := testKey(1)
	other := testKey(2)
	// The same account appears read-only in one instruction and writable
	// in another; the compiled slot carries the union.
	msg, err := NewMessage(payer, []Instruction{
		{ProgramID: testKey(7), Accounts: []AccountMeta{{Pubkey: other}}, Data: []byte{1}},
		{ProgramID: testKey(7), Accounts: []AccountMeta{{Pubkey: other, IsWritable: true}}, Data: []byte{2}},
	}, testHash(1))
	require.NoError(t, err)

	require.Equal(t, []Pubkey{payer, other, testKey(7)}, msg.AccountKeys)
	require.True(t, msg.writableIndex(1))
	require.False(t, msg.signerIndex(1))
}

func TestNewMessageRejectsMissingParts(t *testing.T) {
	_, err := NewMessage(Pubkey{}, []Instruction{NewTransferInstruction(testKey(1), testKey(2), 1)}, Hash{})
	require.ErrorIs(t, err, ErrNoFeePayer)

	_, err = NewMessage(testKey(1), nil, Hash{})
	require.ErrorIs(t, err, ErrNoInstructions)
}

func TestWithInstructionFrontKeepsOriginalIntact(t *testing.T) {
	payer := testKey(1)
	msg, err := NewMessage(payer, []Instruction{
		NewTransferInstruction(payer, testKey(2), 5000),
	}, testHash(3))
	require.NoError(t, err)
	beforeKeys := len(msg.AccountKeys)
	beforeInstrs := len(msg.Instructions)

	rewritten, err := msg.WithInstructionFront(SetComputeUnitLimit(200_000))
	require.NoError(t, err)

	require.Len(t, msg.Instructions, beforeInstrs)
	require.Len(t, msg.AccountKeys, beforeKeys)

	require.Len(t, rewritten.Instructions, beforeInstrs+1)
	require.Equal(t, payer, rewritten.FeePayer())
	limit, ok := ComputeUnitLimit(rewritten, 0)
	require.True(t, ok)
	require.Equal(t, uint32(200_000), limit)
	require.Contains(t, rewritten.AccountKeys, ComputeBudgetProgramID)
	require.NoError(t, rewritten.Validate())
}

func TestWithInstructionReplacedSwapsInPlace(t *testing.T) {
	payer := testKey(1)
	msg, err := NewMessage(payer, []Instruction{
		SetComputeUnitLimit(100_000),
		NewTransferInstruction(payer, testKey(2), 5000),
	}, testHash(3))
	require.NoError(t, err)

	rewritten, err := msg.WithInstructionReplaced(0, SetComputeUnitLimit(350_000))
	require.NoError(t, err)

	require.Len(t, rewritten.Instructions, len(msg.Instructions))
	limit, ok := ComputeUnitLimit(rewritten, 0)
	require.True(t, ok)
	require.Equal(t, uint32(350_000), limit)

	// The one on the original is untouched.
	limit, ok = ComputeUnitLimit(msg, 0)
	require.True(t, ok)
	require.Equal(t, uint32(100_000), limit)

	_, err = msg.WithInstructionReplaced(5, SetComputeUnitLimit(1))
	require.Error(t, err)
}

func TestMessageSerializeRoundTrip(t *testing.T) {
	payer := testKey(1)
	msg, err := NewMessage(payer, []Instruction{
		SetComputeUnitLimit(250_000),
		NewTransferInstruction(payer, testKey(2), 42),
	}, testHash(8))
	require.NoError(t, err)

	raw, err := msg.Serialize()
	require.NoError(t, err)

	back, err := DeserializeMessage(raw)
	require.NoError(t, err)
	require.Equal(t, msg, back)
}

func TestDeserializeMessageRejectsVersionedPrefix(t *testing.T) {
	_, err := DeserializeMessage([]byte{0x80, 0, 0, 0})
	require.ErrorIs(t, err, errVersionedMessage)
}

func TestDeserializeMessageRejectsTrailingBytes(t *testing.T) {
	payer := testKey(1)
	msg, err := NewMessage(payer, []Instruction{NewTransferInstruction(payer, testKey(2), 1)}, testHash(1))
	require.NoError(t, err)
	raw, err := msg.Serialize()
	require.NoError(t, err)

	_, err = DeserializeMessage(append(raw, 0xAA))
	require.Error(t, err)
}

func TestValidateCatchesBadIndexes(t *testing.T) {
	payer := testKey(1)
	msg, err := NewMessage(payer, []Instruction{NewTransferInstruction(payer, testKey(2), 1)}, testHash(1))
	require.NoError(t, err)

	msg.Instructions[0].Accounts[1] = 9
	require.ErrorIs(t, msg.Validate(), ErrBadAccountIndex)
}

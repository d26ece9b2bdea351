package solana

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTransferInstructionLayout(t *testing.T) {
	from := testKey(1)
	to := testKey(2)
	in := NewTransferInstruction(from, to, 1_000_000)

	require.Equal(t, SystemProgramID, in.ProgramID)
	require.Len(t, in.Data, 12)
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(in.Data[0:4]))
	require.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(in.Data[4:]))

	require.Equal(t, []AccountMeta{
		{Pubkey: from, IsSigner: true, IsWritable: true},
		{Pubkey: to, IsWritable: true},
	}, in.Accounts)
}

func TestNewTransferMessage(t *testing.T) {
	from := testKey(1)
	msg, err := NewTransferMessage(from, testKey(2), 500, testHash(2))
	require.NoError(t, err)
	require.Equal(t, from, msg.FeePayer())
	require.NoError(t, msg.Validate())

	_, err = NewTransferMessage(Pubkey{}, testKey(2), 500, testHash(2))
	require.ErrorIs(t, err, ErrNoFeePayer)
}

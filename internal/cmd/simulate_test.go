package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotandev/solext/solana"
)

func encodedTransfer(t *testing.T, lamports uint64) string {
	t.Helper()
	from, err := solana.NewKeypair()
	require.NoError(t, err)
	to, err := solana.NewKeypair()
	require.NoError(t, err)
	msg, err := solana.NewTransferMessage(from.Pubkey(), to.Pubkey(), lamports, solana.Hash{})
	require.NoError(t, err)
	s, err := solana.NewUnsignedTransaction(msg).MarshalBase64()
	require.NoError(t, err)
	return s
}

func TestReadBatchSkipsBlankAndCommentLines(t *testing.T) {
	input := strings.Join([]string{
		"# batch of two",
		encodedTransfer(t, 100),
		"",
		encodedTransfer(t, 200),
		"   ",
	}, "\n")

	txs, err := readBatch("", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)
}

func TestReadBatchReportsBadLine(t *testing.T) {
	input := encodedTransfer(t, 100) + "\nnot-base64\n"
	_, err := readBatch("", strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestReadBatchFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte(encodedTransfer(t, 1)+"\n"), 0o600))

	txs, err := readBatch(path, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestReadOneTransactionPrefersInline(t *testing.T) {
	inline := encodedTransfer(t, 7)
	tx, err := readOneTransaction(inline, "", strings.NewReader("garbage"))
	require.NoError(t, err)
	require.NotNil(t, tx)

	tx, err = readOneTransaction("", "", strings.NewReader(" "+inline+"\n"))
	require.NoError(t, err)
	require.NotNil(t, tx)
}

func TestReadMatcherTableValidatesVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"version: \"3.0.0\"\nmatchers:\n  - kind: unknown\n    signature: boom\n"), 0o600))

	_, err := readMatcherTable(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside supported range")
}

func TestLoadClassifierDefaultTable(t *testing.T) {
	c, err := loadClassifier("")
	require.NoError(t, err)
	require.NotEmpty(t, c.TableVersion())
}

package memory_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

func Test_Memory(t *testing.T) {
	m := memory.New()

	iter := m.ForEach()
	_, err := iter.Next()
	require.NoError(t, err)
	require.True(t, iter.Done())

	genesis := database.GenesisBlock()
	require.NoError(t, m.Write(genesis))

	next := genesis
	next.Header.Nonce = 42
	require.NoError(t, m.Write(next))

	got, err := m.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Header.Nonce)

	_, err = m.GetBlock(2)
	require.Error(t, err)

	var nonces []uint64
	iter = m.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		nonces = append(nonces, block.Header.Nonce)
	}
	require.Equal(t, []uint64{genesis.Header.Nonce, 42}, nonces)

	_, err = iter.Next()
	require.True(t, errors.Is(err, memory.ErrEndOfChain))

	require.NoError(t, m.Reset())
	_, err = m.GetBlock(0)
	require.Error(t, err)
}

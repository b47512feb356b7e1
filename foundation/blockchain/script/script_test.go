package script_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/script"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	ownerHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func Test_Unlock(t *testing.T) {
	owner, err := crypto.HexToECDSA(ownerHexKey)
	require.NoError(t, err)

	other, err := crypto.HexToECDSA(otherHexKey)
	require.NoError(t, err)

	ownerPub := signature.PublicKeyBytes(owner.PublicKey)
	otherPub := signature.PublicKeyBytes(other.PublicKey)

	utxo := database.NewUTXO("owner", 100, signature.Hash160(ownerPub))

	ownerSig, err := script.UnlockSignature(owner)
	require.NoError(t, err)

	otherSig, err := script.UnlockSignature(other)
	require.NoError(t, err)

	t.Run("right key unlocks", func(t *testing.T) {
		require.True(t, script.Unlock(utxo, ownerSig, ownerPub))
	})

	t.Run("wrong key fails the hash check", func(t *testing.T) {
		require.False(t, script.Unlock(utxo, otherSig, otherPub))
	})

	t.Run("signature from another key fails", func(t *testing.T) {
		require.False(t, script.Unlock(utxo, otherSig, ownerPub))
	})

	t.Run("tampered signature fails", func(t *testing.T) {
		bad := append([]byte{}, ownerSig...)
		bad[10] ^= 0xff
		require.False(t, script.Unlock(utxo, bad, ownerPub))
	})

	t.Run("empty signature fails", func(t *testing.T) {
		require.False(t, script.Unlock(utxo, nil, ownerPub))
	})
}

func Test_Owns(t *testing.T) {
	owner, err := crypto.HexToECDSA(ownerHexKey)
	require.NoError(t, err)

	other, err := crypto.HexToECDSA(otherHexKey)
	require.NoError(t, err)

	ownerPub := signature.PublicKeyBytes(owner.PublicKey)
	utxo := database.NewUTXO("owner", 100, signature.Hash160(ownerPub))

	require.True(t, script.Owns(utxo, ownerPub))
	require.False(t, script.Owns(utxo, signature.PublicKeyBytes(other.PublicKey)))
	require.False(t, script.Owns(utxo, nil))
}

func Test_LockingScript(t *testing.T) {
	pkh := signature.Hash160([]byte("key"))

	locking, err := script.LockingScript(pkh)
	require.NoError(t, err)

	exp := []byte{txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20}
	exp = append(exp, pkh...)
	exp = append(exp, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)

	require.Equal(t, exp, locking)
}

func Test_Execute(t *testing.T) {
	t.Run("underflow", func(t *testing.T) {
		_, err := script.Execute([]byte{txscript.OP_DUP})
		require.True(t, errors.Is(err, script.ErrStackUnderflow))
	})

	t.Run("unsupported opcode", func(t *testing.T) {
		_, err := script.Execute([]byte{txscript.OP_1, txscript.OP_ADD})
		require.True(t, errors.Is(err, script.ErrUnsupportedOp))
	})

	t.Run("equal verify mismatch", func(t *testing.T) {
		program, err := txscript.NewScriptBuilder().
			AddData([]byte{1}).
			AddData([]byte{2}).
			AddOp(txscript.OP_EQUALVERIFY).
			Script()
		require.NoError(t, err)

		_, err = script.Execute(program)
		require.True(t, errors.Is(err, script.ErrEqualVerify))
	})

	t.Run("malformed push", func(t *testing.T) {
		_, err := script.Execute([]byte{txscript.OP_DATA_20, 1, 2})
		require.Error(t, err)
	})

	t.Run("single true value", func(t *testing.T) {
		ok, err := script.Execute([]byte{txscript.OP_DATA_1, 1})
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("more than one value", func(t *testing.T) {
		ok, err := script.Execute([]byte{txscript.OP_DATA_1, 1, txscript.OP_DATA_1, 1})
		require.NoError(t, err)
		require.False(t, ok)
	})
}

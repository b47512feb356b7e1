package wallet_test

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	kennedyHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pavelHexKey   = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func account(t *testing.T, name string, hexKey string) wallet.Account {
	pk, err := crypto.HexToECDSA(hexKey)
	require.NoError(t, err)

	return wallet.Account{Name: name, PrivateKey: pk}
}

func fund(to wallet.Account, amounts ...uint64) []database.TxIn {
	var utxos []database.TxIn
	for i, amount := range amounts {
		utxos = append(utxos, database.TxIn{
			OutPoint: database.OutPoint{TxID: "0xfunding", Index: uint32(i)},
			UTXO:     to.UTXO(amount),
		})
	}

	return utxos
}

// =============================================================================

func Test_Address(t *testing.T) {
	kennedy := account(t, "kennedy", kennedyHexKey)

	addr := kennedy.Address()
	require.NotEmpty(t, addr)
	require.Equal(t, byte('1'), addr[0], "mainnet P2PKH addresses start with 1")

	r, err := wallet.ParseAddress(addr)
	require.NoError(t, err)
	require.Equal(t, kennedy.Recipient(), r)

	_, err = wallet.ParseAddress("not-an-address")
	require.Error(t, err)
}

func Test_SaveLoad(t *testing.T) {
	kennedy, err := wallet.NewAccount("kennedy")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kennedy"+wallet.KeyExtension)
	require.NoError(t, kennedy.Save(path))

	loaded, err := wallet.LoadAccount(path)
	require.NoError(t, err)
	require.Equal(t, "kennedy", loaded.Name)
	require.Equal(t, kennedy.Address(), loaded.Address())
}

func Test_NewTransfer(t *testing.T) {
	kennedy := account(t, "kennedy", kennedyHexKey)
	pavel := account(t, "pavel", pavelHexKey)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("exact amount", func(t *testing.T) {
		tx, err := wallet.NewTransfer(kennedy, pavel.Recipient(), 100, fund(kennedy, 100), now)
		require.NoError(t, err)
		require.NoError(t, tx.Validate())
		require.Len(t, tx.Inputs, 1)
		require.Len(t, tx.Outputs, 1)
		require.Equal(t, tx.InputTotal(), tx.OutputTotal())
	})

	t.Run("change returned to the sender", func(t *testing.T) {
		tx, err := wallet.NewTransfer(kennedy, pavel.Recipient(), 120, fund(kennedy, 100, 50, 25), now)
		require.NoError(t, err)
		require.Len(t, tx.Inputs, 2, "inputs are selected in order until the amount is covered")
		require.Equal(t, uint64(150), tx.InputTotal())
		require.Equal(t, tx.InputTotal(), tx.OutputTotal())
		require.Equal(t, pavel.Address(), tx.Outputs[0].Address)
		require.Equal(t, uint64(120), tx.Outputs[0].Amount)
		require.Equal(t, kennedy.Address(), tx.Outputs[1].Address)
		require.Equal(t, uint64(30), tx.Outputs[1].Amount)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := wallet.NewTransfer(kennedy, pavel.Recipient(), 1000, fund(kennedy, 100), now)
		require.True(t, errors.Is(err, wallet.ErrInsufficientFunds))
	})

	t.Run("self payment", func(t *testing.T) {
		_, err := wallet.NewTransfer(kennedy, kennedy.Recipient(), 10, fund(kennedy, 100), now)
		require.True(t, errors.Is(err, wallet.ErrSelfPayment))
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := wallet.NewTransfer(kennedy, pavel.Recipient(), 0, fund(kennedy, 100), now)
		require.True(t, errors.Is(err, wallet.ErrZeroAmount))
	})

	t.Run("outputs owned by another key are not spendable", func(t *testing.T) {
		_, err := wallet.NewTransfer(kennedy, pavel.Recipient(), 10, fund(pavel, 100), now)
		require.True(t, errors.Is(err, wallet.ErrInsufficientFunds))
	})
}

func Test_RandomTransfer(t *testing.T) {
	kennedy := account(t, "kennedy", kennedyHexKey)
	pavel := account(t, "pavel", pavelHexKey)
	accounts := []wallet.Account{kennedy, pavel}

	utxos := map[string][]database.TxIn{
		kennedy.Address(): fund(kennedy, 500),
	}
	spendable := func(address string) ([]database.TxIn, error) {
		return utxos[address], nil
	}

	rng := rand.New(rand.NewPCG(1, 2))

	for range 20 {
		tx, err := wallet.RandomTransfer(rng, accounts, spendable, time.Now())
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			continue
		}
		require.NoError(t, err)
		require.NoError(t, tx.Validate())
		require.Equal(t, tx.InputTotal(), tx.OutputTotal())
		require.Equal(t, pavel.Address(), tx.Outputs[0].Address)
		require.GreaterOrEqual(t, tx.Outputs[0].Amount, uint64(1))
		require.LessOrEqual(t, tx.Outputs[0].Amount, uint64(500))
	}

	_, err := wallet.RandomTransfer(rng, accounts[:1], spendable, time.Now())
	require.Error(t, err)

	empty := func(string) ([]database.TxIn, error) { return nil, nil }
	_, err = wallet.RandomTransfer(rng, accounts, empty, time.Now())
	require.True(t, errors.Is(err, wallet.ErrInsufficientFunds))
}

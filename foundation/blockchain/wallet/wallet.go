// Package wallet maintains the keys for an account and knows how to
// construct signed transactions that spend the account's outputs.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/script"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyExtension is the file extension of a stored private key.
const KeyExtension = ".ecdsa"

// Set of errors returned when constructing transactions.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfPayment       = errors.New("sending money to yourself")
	ErrZeroAmount        = errors.New("amount must be greater than zero")
)

// params selects the address encoding used for every account.
var params = &chaincfg.MainNetParams

// =============================================================================

// Account represents a named key pair that can own and spend outputs.
type Account struct {
	Name       string
	PrivateKey *ecdsa.PrivateKey
}

// NewAccount generates a new key pair for the named account.
func NewAccount(name string) (Account, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return Account{}, err
	}

	return Account{Name: name, PrivateKey: pk}, nil
}

// LoadAccount reads the private key stored at the path. The account name is
// taken from the file name.
func LoadAccount(path string) (Account, error) {
	pk, err := crypto.LoadECDSA(path)
	if err != nil {
		return Account{}, fmt.Errorf("load key %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), KeyExtension)

	return Account{Name: name, PrivateKey: pk}, nil
}

// Save writes the private key in hex form to the path.
func (a Account) Save(path string) error {
	return crypto.SaveECDSA(path, a.PrivateKey)
}

// PublicKey returns the compressed public key.
func (a Account) PublicKey() []byte {
	return signature.PublicKeyBytes(a.PrivateKey.PublicKey)
}

// PubKeyHash returns the hash outputs paying this account are locked to.
func (a Account) PubKeyHash() []byte {
	return signature.Hash160(a.PublicKey())
}

// Address returns the base58 encoded address of the account.
func (a Account) Address() string {
	addr, err := btcutil.NewAddressPubKeyHash(a.PubKeyHash(), params)
	if err != nil {
		return ""
	}

	return addr.EncodeAddress()
}

// Recipient returns the information needed to pay this account.
func (a Account) Recipient() Recipient {
	return Recipient{
		Address:    a.Address(),
		PubKeyHash: a.PubKeyHash(),
	}
}

// UTXO constructs an output paying the amount to this account.
func (a Account) UTXO(amount uint64) database.UTXO {
	return a.Recipient().UTXO(amount)
}

// String implements the fmt.Stringer interface for logging.
func (a Account) String() string {
	return fmt.Sprintf("%s[%s]", a.Name, a.Address())
}

// =============================================================================

// Recipient represents the party being paid. Only the address and the hash
// of the public key are needed to lock an output.
type Recipient struct {
	Address    string
	PubKeyHash []byte
}

// ParseAddress decodes a base58 address into a recipient.
func ParseAddress(address string) (Recipient, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return Recipient{}, fmt.Errorf("decode address: %w", err)
	}

	pkh, ok := addr.(*btcutil.AddressPubKeyHash)
	if !ok {
		return Recipient{}, fmt.Errorf("address %s is not a pay to public key hash address", address)
	}

	return Recipient{Address: pkh.EncodeAddress(), PubKeyHash: pkh.ScriptAddress()}, nil
}

// UTXO constructs an output paying the amount to the recipient.
func (r Recipient) UTXO(amount uint64) database.UTXO {
	return database.NewUTXO(r.Address, amount, r.PubKeyHash)
}

// =============================================================================

// Unlockable filters the outputs down to the ones the account can prove it
// owns by running the unlock script.
func Unlockable(from Account, utxos []database.TxIn) ([]database.TxIn, error) {
	sig, err := script.UnlockSignature(from.PrivateKey)
	if err != nil {
		return nil, err
	}
	pubKey := from.PublicKey()

	var spendable []database.TxIn
	for _, in := range utxos {
		if script.Unlock(in.UTXO, sig, pubKey) {
			spendable = append(spendable, in)
		}
	}

	return spendable, nil
}

// NewTransfer constructs a signed transaction that pays the amount to the
// recipient. Inputs are selected in ledger order until they cover the
// amount and any excess is returned to the sender as change.
func NewTransfer(from Account, to Recipient, amount uint64, utxos []database.TxIn, now time.Time) (database.Tx, error) {
	if from.Address() == to.Address {
		return database.Tx{}, ErrSelfPayment
	}

	if amount == 0 {
		return database.Tx{}, ErrZeroAmount
	}

	spendable, err := Unlockable(from, utxos)
	if err != nil {
		return database.Tx{}, err
	}

	var inputs []database.TxIn
	var total uint64
	for _, in := range spendable {
		if total >= amount {
			break
		}

		inputs = append(inputs, in)
		total += in.UTXO.Amount
	}

	if total < amount {
		return database.Tx{}, fmt.Errorf("%w: balance %d, needed %d", ErrInsufficientFunds, total, amount)
	}

	outputs := []database.UTXO{to.UTXO(amount)}
	if change := total - amount; change > 0 {
		outputs = append(outputs, from.UTXO(change))
	}

	return database.NewTx(inputs, outputs, now).Sign(from.PrivateKey)
}

// SpendableFunc returns the true outputs for an address.
type SpendableFunc func(address string) ([]database.TxIn, error)

// RandomTransfer picks a random sender with funds and a different random
// recipient and constructs a transfer of a random amount between one and
// the sender's balance.
func RandomTransfer(rng *rand.Rand, accounts []Account, spendable SpendableFunc, now time.Time) (database.Tx, error) {
	if len(accounts) < 2 {
		return database.Tx{}, errors.New("at least two accounts are required")
	}

	for range 2 * len(accounts) {
		from := accounts[rng.IntN(len(accounts))]

		to := accounts[rng.IntN(len(accounts))]
		if from.Address() == to.Address() {
			continue
		}

		utxos, err := spendable(from.Address())
		if err != nil {
			return database.Tx{}, err
		}

		var balance uint64
		for _, in := range utxos {
			balance += in.UTXO.Amount
		}

		if balance == 0 {
			continue
		}

		amount := 1 + rng.Uint64N(balance)

		return NewTransfer(from, to.Recipient(), amount, utxos, now)
	}

	return database.Tx{}, ErrInsufficientFunds
}

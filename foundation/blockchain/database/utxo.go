package database

import (
	"fmt"
)

// UTXO represents an unspent transaction output. It is a single-owner,
// single-use unit of value that is locked to the hash of the owner's
// public key.
type UTXO struct {
	Address    string `json:"address" validate:"required"`             // Bitcoin: Base58 encoded P2PKH address of the owner.
	Amount     uint64 `json:"amount" validate:"gt=0"`                  // Bitcoin: Value carried by the output.
	PubKeyHash []byte `json:"pub_key_hash" validate:"required,len=20"` // Bitcoin: ripemd160(sha256(pubkey)) the output is locked to.
}

// NewUTXO constructs an output paying the specified amount to the owner.
func NewUTXO(address string, amount uint64, pubKeyHash []byte) UTXO {
	return UTXO{
		Address:    address,
		Amount:     amount,
		PubKeyHash: pubKeyHash,
	}
}

// String implements the fmt.Stringer interface for logging.
func (u UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.Address, u.Amount)
}

// =============================================================================

// OutPoint identifies a specific output of a specific transaction. Two
// outputs with the same address and amount are never confused since their
// out points differ.
type OutPoint struct {
	TxID  string `json:"tx_id" validate:"required"` // Bitcoin: Hash of the transaction that created the output.
	Index uint32 `json:"index"`                     // Bitcoin: Position of the output in that transaction.
}

// String implements the fmt.Stringer interface for logging.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// =============================================================================

// TxIn represents an output being spent. It carries the identity of the
// output along with the output itself so the amount and lock are known
// without a lookup.
type TxIn struct {
	OutPoint OutPoint `json:"outpoint"`
	UTXO     UTXO     `json:"utxo"`
}

// String implements the fmt.Stringer interface for logging.
func (in TxIn) String() string {
	return fmt.Sprintf("%s[%s]", in.OutPoint, in.UTXO)
}

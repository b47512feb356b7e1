package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
)

// ErrInvalidSignature is returned when a transaction's signature does not
// verify against its payload and public key.
var ErrInvalidSignature = errors.New("invalid transaction signature")

// =============================================================================

// Tx represents a transfer of value. The inputs are the outputs being spent
// and the outputs are the new outputs being created.
type Tx struct {
	Inputs    []TxIn `json:"inputs" validate:"dive"`                 // Bitcoin: Outputs being spent.
	Outputs   []UTXO `json:"outputs" validate:"required,min=1,dive"` // Bitcoin: Outputs being created.
	Signature []byte `json:"signature" validate:"required"`          // Signature over the inputs and outputs.
	PubKey    []byte `json:"pub_key" validate:"required"`            // Compressed public key of the signer.
	TimeStamp int64  `json:"timestamp"`                              // Time the transaction was constructed.
}

// NewTx constructs an unsigned transaction.
func NewTx(inputs []TxIn, outputs []UTXO, now time.Time) Tx {
	return Tx{
		Inputs:    inputs,
		Outputs:   outputs,
		TimeStamp: now.UTC().UnixMilli(),
	}
}

// Sign uses the specified private key to sign the transaction. The public
// key is recorded in the transaction so the signature can be verified.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	payload, err := tx.SignedPayload()
	if err != nil {
		return Tx{}, err
	}

	sig, err := signature.Sign(payload, privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	tx.PubKey = signature.PublicKeyBytes(privateKey.PublicKey)

	return tx, nil
}

// SignedPayload returns the canonical serialization of the inputs followed
// by the outputs. This is the data the signature covers.
func (tx Tx) SignedPayload() ([]byte, error) {
	payload := struct {
		Inputs  []TxIn `json:"inputs"`
		Outputs []UTXO `json:"outputs"`
	}{
		Inputs:  tx.Inputs,
		Outputs: tx.Outputs,
	}

	return json.Marshal(payload)
}

// Validate verifies the signature was produced over the payload by the key
// recorded in the transaction.
func (tx Tx) Validate() error {
	payload, err := tx.SignedPayload()
	if err != nil {
		return err
	}

	if !signature.Verify(payload, tx.Signature, tx.PubKey) {
		return ErrInvalidSignature
	}

	return nil
}

// ID returns the hex encoded hash of the full transaction. This is the
// transaction id used by out points and proofs.
func (tx Tx) ID() string {
	return signature.Hash(tx)
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() ([]byte, error) {
	return signature.Decode(tx.ID())
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID() == otherTx.ID()
}

// InputTotal returns the sum of the amounts being spent.
func (tx Tx) InputTotal() uint64 {
	var total uint64
	for _, in := range tx.Inputs {
		total += in.UTXO.Amount
	}

	return total
}

// OutputTotal returns the sum of the amounts being created.
func (tx Tx) OutputTotal() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Amount
	}

	return total
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	id := tx.ID()
	return fmt.Sprintf("%s:in[%d]:out[%d]:value[%d]", id[:10], len(tx.Inputs), len(tx.Outputs), tx.OutputTotal())
}

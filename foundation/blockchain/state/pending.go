package state

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/script"
)

// Set of errors returned when a transaction is refused by the pool.
var (
	ErrDoubleSpend      = errors.New("output already spent")
	ErrInputMismatch    = errors.New("input does not match the ledger")
	ErrUnauthorized     = errors.New("signer does not own the input")
	ErrValueNotBalanced = errors.New("outputs do not match inputs")
)

// reserve checks every input of the transaction is a true output of the
// chain, owned by the signer and not held by another waiting transaction.
// The outputs must carry exactly the value of the inputs. The inputs are then
// held until the transaction is sealed or released.
func (s *State) reserve(tx database.Tx) error {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	seen := make(map[database.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, exists := seen[in.OutPoint]; exists {
			return fmt.Errorf("%w: %s spent twice in tx", ErrDoubleSpend, in.OutPoint)
		}
		seen[in.OutPoint] = struct{}{}

		if _, exists := s.pending[in.OutPoint]; exists {
			return fmt.Errorf("%w: %s is pending", ErrDoubleSpend, in.OutPoint)
		}

		ledger, err := s.db.LookupUTXO(in.OutPoint)
		if err != nil {
			if errors.Is(err, database.ErrUTXONotFound) {
				return fmt.Errorf("%w: %s", ErrDoubleSpend, in.OutPoint)
			}
			return err
		}

		if !sameUTXO(ledger.UTXO, in.UTXO) {
			return fmt.Errorf("%w: %s: got %s, exp %s", ErrInputMismatch, in.OutPoint, in.UTXO, ledger.UTXO)
		}

		if !script.Owns(ledger.UTXO, tx.PubKey) {
			return fmt.Errorf("%w: %s", ErrUnauthorized, in.OutPoint)
		}
	}

	if !balanced(tx) {
		return fmt.Errorf("%w: in[%d] out[%d]", ErrValueNotBalanced, tx.InputTotal(), tx.OutputTotal())
	}

	for op := range seen {
		s.pending[op] = struct{}{}
	}

	return nil
}

// release drops the reservations held by the transactions.
func (s *State) release(trans ...database.Tx) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	for _, tx := range trans {
		for _, in := range tx.Inputs {
			delete(s.pending, in.OutPoint)
		}
	}
}

// isPending reports whether the output is held by a waiting transaction.
func (s *State) isPending(op database.OutPoint) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	_, exists := s.pending[op]
	return exists
}

// balanced reports whether the outputs carry exactly the value of the inputs.
// A sum that overflows is never balanced.
func balanced(tx database.Tx) bool {
	var in, out, carry uint64

	for _, txIn := range tx.Inputs {
		in, carry = bits.Add64(in, txIn.UTXO.Amount, 0)
		if carry != 0 {
			return false
		}
	}

	for _, utxo := range tx.Outputs {
		out, carry = bits.Add64(out, utxo.Amount, 0)
		if carry != 0 {
			return false
		}
	}

	return in == out
}

func sameUTXO(a database.UTXO, b database.UTXO) bool {
	return a.Address == b.Address && a.Amount == b.Amount && bytes.Equal(a.PubKeyHash, b.PubKeyHash)
}

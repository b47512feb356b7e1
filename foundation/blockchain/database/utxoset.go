package database

import (
	"errors"
	"fmt"
)

// ErrUTXONotFound is returned when an out point does not name a true output.
var ErrUTXONotFound = errors.New("utxo not found")

// TrueUTXOs returns the outputs owned by the address that have not been
// spent, in the order they were created. The set is recomputed from the
// blocks on every call.
func (db *Database) TrueUTXOs(address string) ([]TxIn, error) {
	blocks, err := db.Blocks()
	if err != nil {
		return nil, err
	}

	set := newUTXOSet()
	for _, block := range blocks {
		for _, tx := range block.Body.Trans {
			id := tx.ID()

			for i, out := range tx.Outputs {
				if out.Address != address {
					continue
				}
				set.add(TxIn{OutPoint: OutPoint{TxID: id, Index: uint32(i)}, UTXO: out})
			}

			for _, in := range tx.Inputs {
				if in.UTXO.Address != address {
					continue
				}
				set.remove(in.OutPoint)
			}
		}
	}

	return set.list(), nil
}

// Balance returns the sum of the true outputs owned by the address.
func (db *Database) Balance(address string) (uint64, error) {
	utxos, err := db.TrueUTXOs(address)
	if err != nil {
		return 0, err
	}

	var balance uint64
	for _, utxo := range utxos {
		balance += utxo.UTXO.Amount
	}

	return balance, nil
}

// TotalValue returns the sum of every true output across every address.
func (db *Database) TotalValue() (uint64, error) {
	set, err := db.trueSet()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, utxo := range set.list() {
		total += utxo.UTXO.Amount
	}

	return total, nil
}

// LookupUTXO returns the true output identified by the out point. The out
// point is unknown or already spent when ErrUTXONotFound is returned.
func (db *Database) LookupUTXO(op OutPoint) (TxIn, error) {
	set, err := db.trueSet()
	if err != nil {
		return TxIn{}, err
	}

	in, exists := set.utxos[op]
	if !exists {
		return TxIn{}, fmt.Errorf("%w: %s", ErrUTXONotFound, op)
	}

	return in, nil
}

// TotalOutputs returns the sum of every output ever created, spent or not.
func (db *Database) TotalOutputs() (uint64, error) {
	blocks, err := db.Blocks()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, block := range blocks {
		for _, tx := range block.Body.Trans {
			total += tx.OutputTotal()
		}
	}

	return total, nil
}

// trueSet replays every block and returns the outputs still unspent.
func (db *Database) trueSet() (*utxoSet, error) {
	blocks, err := db.Blocks()
	if err != nil {
		return nil, err
	}

	set := newUTXOSet()
	for _, block := range blocks {
		for _, tx := range block.Body.Trans {
			id := tx.ID()

			for i, out := range tx.Outputs {
				set.add(TxIn{OutPoint: OutPoint{TxID: id, Index: uint32(i)}, UTXO: out})
			}

			for _, in := range tx.Inputs {
				set.remove(in.OutPoint)
			}
		}
	}

	return set, nil
}

// =============================================================================

// utxoSet is an insertion ordered set of outputs keyed by out point.
type utxoSet struct {
	order []OutPoint
	utxos map[OutPoint]TxIn
}

func newUTXOSet() *utxoSet {
	return &utxoSet{
		utxos: make(map[OutPoint]TxIn),
	}
}

func (s *utxoSet) add(in TxIn) {
	if _, exists := s.utxos[in.OutPoint]; exists {
		return
	}

	s.order = append(s.order, in.OutPoint)
	s.utxos[in.OutPoint] = in
}

func (s *utxoSet) remove(op OutPoint) {
	delete(s.utxos, op)
}

func (s *utxoSet) list() []TxIn {
	list := make([]TxIn, 0, len(s.utxos))
	for _, op := range s.order {
		if in, exists := s.utxos[op]; exists {
			list = append(list, in)
		}
	}

	return list
}

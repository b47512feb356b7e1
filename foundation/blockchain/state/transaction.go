package state

import (
	"context"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// SubmitTransaction adds the transaction to the mempool. The call waits
// while the mempool is full. Every input must match a true output owned by
// the signer that no other waiting transaction spends, and the outputs must
// carry exactly the input value. Signatures are checked when the block is
// mined.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Tx) error {
	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitTransaction: completed")

	if err := s.reserve(tx); err != nil {
		return err
	}

	if err := s.mempool.Put(ctx, tx); err != nil {
		s.release(tx)
		return err
	}

	s.evHandler("viewer: tx: added: tx[%s]: pool[%d/%d]", tx, s.mempool.Count(), s.mempool.Capacity())

	return nil
}

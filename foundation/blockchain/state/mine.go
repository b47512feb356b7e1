package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// Set of errors returned while mining a block.
var (
	ErrForgedTransaction = errors.New("forged transaction")
	ErrBatchSize         = errors.New("batch does not match the block size")
)

// =============================================================================

// MineNewBlock waits for a full batch of transactions and mines it into a new
// block that is appended to the chain. A transaction with an invalid
// signature stops the process before anything is sealed.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: WAIT_FOR_BATCH: drain mempool")

	trans, err := s.mempool.DrainAll(ctx)
	if err != nil {
		return database.Block{}, err
	}

	// The inputs stay reserved until the batch is sealed or dropped.
	defer s.release(trans...)

	s.evHandler("state: MineNewBlock: VALIDATE: trans[%d]", len(trans))

	for _, tx := range trans {
		if err := tx.Validate(); err != nil {
			s.evHandler("state: MineNewBlock: VALIDATE: ERROR: tx[%s]: %s", tx, err)
			return database.Block{}, fmt.Errorf("%w: tx[%s]: %s", ErrForgedTransaction, tx.ID(), err)
		}
	}

	s.evHandler("state: MineNewBlock: ASSEMBLE_BODY")

	if len(trans) != int(s.genesis.TransPerBlock) {
		return database.Block{}, fmt.Errorf("%w: got %d, exp %d", ErrBatchSize, len(trans), s.genesis.TransPerBlock)
	}

	prevBlock := s.db.LatestBlock()

	nb, err := database.NewBlock(prevBlock, trans)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: SEARCH_NONCE: root[%s]", nb.Header.MerkleRoot)

	block, err := nb.POW(ctx, s.genesis.Difficulty, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: SEALED: block[%s]", block.Hash())

	if err := block.ValidateBlock(prevBlock, s.genesis.Difficulty, s.evHandler); err != nil {
		return database.Block{}, fmt.Errorf("validate sealed block: %w", err)
	}

	if err := s.db.AddNewBlock(block); err != nil {
		return database.Block{}, err
	}

	s.broadcast(block)

	return block, nil
}

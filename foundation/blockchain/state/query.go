package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/ardanlabs/minichain/foundation/blockchain/spv"
)

// QueryProof locates the block holding the transaction and returns the
// merkle path that proves it. Blocks are scanned in chain order.
func (s *State) QueryProof(ctx context.Context, txHash string) (spv.Proof, error) {
	txHash, err := signature.Normalize(txHash)
	if err != nil {
		return spv.Proof{}, fmt.Errorf("%w: %s", spv.ErrProofNotFound, err)
	}

	blocks, err := s.db.Blocks()
	if err != nil {
		return spv.Proof{}, err
	}

	for height, block := range blocks {
		if ctx.Err() != nil {
			return spv.Proof{}, ctx.Err()
		}

		for _, tx := range block.Body.Trans {
			if tx.ID() != txHash {
				continue
			}

			tree, err := block.Tree()
			if err != nil {
				return spv.Proof{}, err
			}

			path, err := tree.Proof(tx)
			if err != nil {
				return spv.Proof{}, err
			}

			proof := spv.Proof{
				TxHash:     txHash,
				MerkleRoot: tree.RootHex(),
				Height:     uint64(height),
				Path:       path,
			}

			return proof, nil
		}
	}

	return spv.Proof{}, spv.ErrProofNotFound
}

// QueryTrueUTXOs returns the spendable outputs owned by the address.
func (s *State) QueryTrueUTXOs(address string) ([]database.TxIn, error) {
	return s.db.TrueUTXOs(address)
}

// QuerySpendableUTXOs returns the true outputs owned by the address that no
// waiting transaction has reserved.
func (s *State) QuerySpendableUTXOs(address string) ([]database.TxIn, error) {
	utxos, err := s.db.TrueUTXOs(address)
	if err != nil {
		return nil, err
	}

	spendable := make([]database.TxIn, 0, len(utxos))
	for _, in := range utxos {
		if !s.isPending(in.OutPoint) {
			spendable = append(spendable, in)
		}
	}

	return spendable, nil
}

// QueryBalance returns the sum of the spendable outputs owned by the address.
func (s *State) QueryBalance(address string) (uint64, error) {
	return s.db.Balance(address)
}

// QueryBlocks returns every block in chain order.
func (s *State) QueryBlocks() ([]database.Block, error) {
	return s.db.Blocks()
}

// QueryHeaders returns every block header in chain order.
func (s *State) QueryHeaders() ([]database.BlockHeader, error) {
	return s.db.Headers()
}

// QueryTotalValue returns the sum of every spendable output on the chain.
func (s *State) QueryTotalValue() (uint64, error) {
	return s.db.TotalValue()
}

// QueryTotalOutputs returns the sum of every output ever created.
func (s *State) QueryTotalOutputs() (uint64, error) {
	return s.db.TotalOutputs()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

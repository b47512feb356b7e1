package database

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
	"strings"

	"github.com/ardanlabs/minichain/foundation/blockchain/merkle"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
)

// =============================================================================

// BlockHeader represents common information required for each block. The
// header is all a light client keeps.
type BlockHeader struct {
	PrevBlockHash string `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	MerkleRoot    string `json:"merkle_root"`     // Bitcoin: Merkle tree root hash for the transactions in this block.
	Nonce         uint64 `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
}

// BlockBody represents the transactions of a block along with their
// merkle root.
type BlockBody struct {
	MerkleRoot string `json:"merkle_root"`
	Trans      []Tx   `json:"trans"`
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader `json:"header"`
	Body   BlockBody   `json:"body"`
}

// GenesisBlock returns the first block of every chain. It has no
// transactions and empty roots.
func GenesisBlock() Block {
	return Block{
		Body: BlockBody{
			Trans: []Tx{},
		},
	}
}

// NewBlock constructs an unsolved block for the specified transactions that
// chains to the previous block.
func NewBlock(prevBlock Block, trans []Tx) (Block, error) {

	// Construct a merkle tree from the transactions for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlock.Hash(),
			MerkleRoot:    tree.RootHex(),
		},
		Body: BlockBody{
			MerkleRoot: tree.RootHex(),
			Trans:      trans,
		},
	}

	return nb, nil
}

// POW performs the work of mining to find a nonce that makes the hash of the
// whole block match the difficulty target. A fresh random nonce is drawn
// on every attempt. The search is unbounded and only stops when the
// context is cancelled.
func (b Block) POW(ctx context.Context, target string, ev func(v string, args ...any)) (Block, error) {
	ev("database: POW: MINING: started")
	defer ev("database: POW: MINING: completed")

	for _, tx := range b.Body.Trans {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return Block{}, err
	}
	rng := mrand.New(mrand.NewChaCha8(seed))

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		b.Header.Nonce = rng.Uint64()

		hash := b.Hash()
		if !isHashSolved(target, hash) {
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: POW: MINING: attempts[%d]", attempts)

		return b, nil
	}
}

// Hash returns the unique hash for the Block. The hash covers the header and
// the body, so every transaction byte is part of the proof of work.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// IsSolved reports whether the hash of the block starts with the target.
func (b Block) IsSolved(target string) bool {
	return isHashSolved(target, b.Hash())
}

// Tree reconstructs the merkle tree for the transactions in the block.
func (b Block) Tree() (*merkle.Tree[Tx], error) {
	return merkle.NewTree(b.Body.Trans)
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the previous block.
func (b Block) ValidateBlock(previousBlock Block, target string, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: check: block hash has been solved")

	hash := b.Hash()
	if !isHashSolved(target, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	evHandler("database: ValidateBlock: validate: check: parent hash does match parent block")

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: validate: check: merkle root does match transactions")

	tree, err := b.Tree()
	if err != nil {
		return err
	}

	if b.Header.MerkleRoot != tree.RootHex() || b.Body.MerkleRoot != tree.RootHex() {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", tree.RootHex(), b.Header.MerkleRoot)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// The hex digits of the hash must start with the target.
func isHashSolved(target string, hash string) bool {
	hash = strings.TrimPrefix(hash, "0x")
	if len(hash) != 64 {
		return false
	}

	return strings.HasPrefix(hash, target)
}

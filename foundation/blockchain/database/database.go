// Package database handles all the lower level support for maintaining the
// blockchain in storage and answering questions about which outputs are
// still spendable.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// Set of errors returned by the database.
var (
	ErrChainBroken   = errors.New("block does not chain to the latest block")
	ErrBlockNotFound = errors.New("block not found")
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered, append-only sequence of blocks starting with
// the genesis block. There is a single writer and every read takes a
// consistent view under the read lock.
type Database struct {
	mu          sync.RWMutex
	storage     Storage
	latestBlock Block
	height      uint64
}

// New constructs a new database over the specified storage and writes the
// genesis block if the storage is empty.
func New(storage Storage) (*Database, error) {
	db := Database{
		storage: storage,
	}

	var count uint64
	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		db.latestBlock = block
		count++
	}

	if count == 0 {
		genesis := GenesisBlock()
		if err := storage.Write(genesis); err != nil {
			return nil, fmt.Errorf("write genesis: %w", err)
		}

		db.latestBlock = genesis
		count = 1
	}

	db.height = count - 1

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// AddNewBlock appends the block to the chain. The block must chain to the
// latest block. No other validation is performed since the miner is the
// only writer.
func (db *Database) AddNewBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if block.Header.PrevBlockHash != db.latestBlock.Hash() {
		return fmt.Errorf("%w: got %s, exp %s", ErrChainBroken, block.Header.PrevBlockHash, db.latestBlock.Hash())
	}

	if err := db.storage.Write(block); err != nil {
		return err
	}

	db.latestBlock = block
	db.height++

	return nil
}

// LatestBlock returns the most recently appended block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the position of the latest block. The genesis block is at
// height zero.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.height
}

// BlockByNumber returns the block at the specified height.
func (db *Database) BlockByNumber(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	block, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %d: %s", ErrBlockNotFound, num, err)
	}

	return block, nil
}

// Blocks returns a snapshot of every block in chain order.
func (db *Database) Blocks() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks()
}

// Headers returns a snapshot of every block header in chain order.
func (db *Database) Headers() ([]BlockHeader, error) {
	blocks, err := db.Blocks()
	if err != nil {
		return nil, err
	}

	headers := make([]BlockHeader, len(blocks))
	for i, block := range blocks {
		headers[i] = block.Header
	}

	return headers, nil
}

// blocks walks the storage. The caller must hold the lock.
func (db *Database) blocks() ([]Block, error) {
	blocks := make([]Block, 0, db.height+1)

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

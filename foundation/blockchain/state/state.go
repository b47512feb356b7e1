// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
)

// ErrTooFewRecipients is returned when the funding block could not back a
// full batch of transactions.
var ErrTooFewRecipients = errors.New("fewer recipients than transactions per block")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and transaction production.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage
	Peers     *peer.PeerSet
	EvHandler EventHandler
}

// State manages the blockchain database.
type State struct {
	evHandler EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database
	peers   *peer.PeerSet

	pendingMu sync.Mutex
	pending   map[database.OutPoint]struct{}

	Worker Worker
}

// New constructs a new blockchain for data management. The genesis block is
// written and its header is sent to every known peer.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	peers := cfg.Peers
	if peers == nil {
		peers = peer.NewPeerSet()
	}

	// Access the storage for the blockchain. The genesis block is written
	// when the storage is empty.
	db, err := database.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Construct a mempool that holds exactly one block of transactions.
	mempool, err := mempool.New(int(cfg.Genesis.TransPerBlock))
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		mempool:   mempool,
		db:        db,
		peers:     peers,
		pending:   make(map[database.OutPoint]struct{}),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	state.broadcast(db.LatestBlock())

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Wake anyone still waiting on the mempool.
	s.mempool.Shutdown()

	return nil
}

// FundAccounts appends the block holding the funding transaction for the
// specified accounts. This must happen before any transaction is mined.
func (s *State) FundAccounts(recipients []wallet.Recipient) (database.Block, error) {
	s.evHandler("state: FundAccounts: started: accounts[%d]", len(recipients))
	defer s.evHandler("state: FundAccounts: completed")

	if s.db.Height() != 0 {
		return database.Block{}, errors.New("accounts can only be funded after genesis")
	}

	// Each funded output backs at most one transaction of a batch.
	if len(recipients) < int(s.genesis.TransPerBlock) {
		return database.Block{}, fmt.Errorf("%w: got %d, exp at least %d", ErrTooFewRecipients, len(recipients), s.genesis.TransPerBlock)
	}

	block, err := s.genesis.FundingBlock(s.db.LatestBlock(), recipients)
	if err != nil {
		return database.Block{}, err
	}

	if err := s.db.AddNewBlock(block); err != nil {
		return database.Block{}, fmt.Errorf("add funding block: %w", err)
	}

	s.broadcast(block)

	return block, nil
}

// =============================================================================

// broadcast sends the header of the block to every light peer and notifies
// the viewers.
func (s *State) broadcast(block database.Block) {
	s.peers.Broadcast(block.Header)

	s.evHandler("viewer: block: hash[%s]: prev[%s]: root[%s]: nonce[%d]: trans[%d]", block.Hash(), block.Header.PrevBlockHash, block.Header.MerkleRoot, block.Header.Nonce, len(block.Body.Trans))
}

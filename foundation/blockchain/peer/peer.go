// Package peer maintains the set of light peers that receive block headers
// as blocks are sealed.
package peer

import (
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// Subscriber represents a light peer that keeps the chain of block headers.
type Subscriber interface {
	Accept(header database.BlockHeader)
}

// Peer represents a named light peer.
type Peer struct {
	Name       string
	Subscriber Subscriber
}

// New contructs a new peer value.
func New(name string, sub Subscriber) Peer {
	return Peer{
		Name:       name,
		Subscriber: sub,
	}
}

// Match validates if the specified name matches this peer.
func (p Peer) Match(name string) bool {
	return p.Name == name
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known
// peers in the order they were added.
type PeerSet struct {
	mu    sync.RWMutex
	peers []Peer
}

// NewPeerSet constructs a new set to manage light peers.
func NewPeerSet() *PeerSet {
	return &PeerSet{}
}

// Add adds a new peer to the set. It returns false if a peer with the same
// name already exists.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, p := range ps.peers {
		if p.Match(peer.Name) {
			return false
		}
	}

	ps.peers = append(ps.peers, peer)

	return true
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(name string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, p := range ps.peers {
		if p.Match(name) {
			ps.peers = append(ps.peers[:i:i], ps.peers[i+1:]...)
			return
		}
	}
}

// Copy returns a list of the known peers excluding the named peer.
func (ps *PeerSet) Copy(name string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for _, peer := range ps.peers {
		if !peer.Match(name) {
			peers = append(peers, peer)
		}
	}

	return peers
}

// Broadcast delivers the header to every peer in the order they were added.
// Delivery is synchronous, so a peer holds the header when Broadcast
// returns.
func (ps *PeerSet) Broadcast(header database.BlockHeader) {
	for _, peer := range ps.Copy("") {
		peer.Subscriber.Accept(header)
	}
}
